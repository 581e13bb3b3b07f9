// Package services contains server-side business logic. AuthService is the
// single entry point for registration, login, email verification and token
// validation; transports call it and nothing else.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/verification"
)

const (
	maxUsernameLength = 254

	// DefaultSendTimeout bounds code delivery so a stalled mail relay
	// cannot hold a request open.
	DefaultSendTimeout = 10 * time.Second

	// dummyPassword is hashed once at startup; unknown logins are compared
	// against it so they cost the same as a wrong password.
	dummyPassword = "authkeeper-dummy-password"
)

// AuthService composes the credential vault, the verification engine and
// the token issuer on top of the user repository.
type AuthService struct {
	users        users.Repository
	vault        *credentials.Vault
	engine       *verification.Engine
	tokens       *auth.TokenIssuer
	sender       notify.Sender
	logger       logging.Logger
	storeTimeout time.Duration
	sendTimeout  time.Duration
	dummyHash    string
}

// NewAuthService wires the collaborators. It fails only if the dummy hash
// cannot be computed.
func NewAuthService(
	users users.Repository,
	vault *credentials.Vault,
	engine *verification.Engine,
	tokens *auth.TokenIssuer,
	sender notify.Sender,
	logger logging.Logger,
	storeTimeout time.Duration,
) (*AuthService, error) {
	if users == nil || vault == nil || engine == nil || tokens == nil || sender == nil {
		return nil, fmt.Errorf("%w: auth service collaborators must not be nil", common.ErrConfiguration)
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	if storeTimeout <= 0 {
		storeTimeout = verification.DefaultStoreTimeout
	}

	dummyHash, err := vault.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:        users,
		vault:        vault,
		engine:       engine,
		tokens:       tokens,
		sender:       sender,
		logger:       logger.With("module", "auth"),
		storeTimeout: storeTimeout,
		sendTimeout:  DefaultSendTimeout,
		dummyHash:    dummyHash,
	}, nil
}

// Register creates a user with a fresh bcrypt credential. A taken username
// yields common.ErrorAlreadyExists.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}

	hash, err := s.vault.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserName:     username,
		Email:        username,
		PasswordHash: hash,
		Role:         common.DefaultRole,
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	u, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		s.logger.Error(ctx, "create user failed", "error", err)
		return nil, storeError(err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login returns a session token. Unknown usernames and wrong passwords are
// indistinguishable: both return common.ErrInvalidCredentials after one
// bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.lookupByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.vault.Verify(password, s.dummyHash)
			return "", common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "lookup user failed", "error", err)
		return "", storeError(err)
	}

	if !s.vault.Verify(password, user.PasswordHash) {
		s.logger.Info(ctx, "login rejected", "user_id", user.ID)
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.UserName, user.Role)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return token, nil
}

// RequestEmailVerification issues a new challenge and hands the code to the
// sender. Delivery failures are logged and do not fail the request. Users
// that are already verified get no new challenge.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.lookupByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.Verified {
		s.logger.Info(ctx, "verification requested for verified user", "user_id", userID)
		return nil
	}

	code, err := s.engine.Generate(ctx, user.ID)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.sender.Send(sendCtx, user.Email, code); err != nil {
		s.logger.Warn(ctx, "verification code delivery failed", "user_id", userID, "error", err)
	}

	return nil
}

// ConfirmEmailVerification checks code and marks the user verified on
// success. The verification errors of the engine are returned unchanged.
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, userID, code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: empty verification code", common.ErrValidation)
	}

	if err := s.engine.Verify(ctx, userID, code); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		s.logger.Error(ctx, "mark verified failed", "user_id", userID, "error", err)
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return storeError(err)
	}

	s.logger.Info(ctx, "email verified", "user_id", userID)
	return nil
}

// ValidateToken returns the claims of a valid session token.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.tokens.Validate(strings.TrimSpace(token))
}

// ChangePassword replaces the credential after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.lookupByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.vault.Verify(oldPassword, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := s.vault.Hash(newPassword)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.users.SetCredential(ctx, user.ID, hash); err != nil {
		s.logger.Error(ctx, "set credential failed", "user_id", userID, "error", err)
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return storeError(err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// --- helpers below ---

func (s *AuthService) lookupByLogin(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.users.GetUserByLogin(ctx, username)
}

func (s *AuthService) lookupByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", common.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "lookup user failed", "user_id", userID, "error", err)
		return nil, storeError(err)
	}
	return user, nil
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is empty", common.ErrValidation)
	}
	if len(username) > maxUsernameLength {
		return "", fmt.Errorf("%w: username longer than %d bytes", common.ErrValidation, maxUsernameLength)
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: username contains whitespace or control characters", common.ErrValidation)
		}
	}
	return username, nil
}

func storeError(err error) error {
	if errors.Is(err, common.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
}
