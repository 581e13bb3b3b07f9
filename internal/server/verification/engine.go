// Package verification issues and checks the one-time numeric codes used to
// prove control of an email address.
//
// A user has at most one challenge. Generate replaces it wholesale; Verify
// classifies and mutates it inside the store's per-user critical section, so
// concurrent calls for the same user are linearised and at most one of them
// can ever consume a code.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/challenges"
)

const (
	DefaultCodeLength   = 6
	DefaultCodeLifetime = 5 * time.Minute
	DefaultMaxAttempts  = 3
	DefaultStoreTimeout = 3 * time.Second
)

// State is the derived lifecycle state of a user's challenge.
type State int

const (
	NoChallenge State = iota
	Active
	Consumed
	Expired
	Exhausted
)

func (s State) String() string {
	switch s {
	case NoChallenge:
		return "no_challenge"
	case Active:
		return "active"
	case Consumed:
		return "consumed"
	case Expired:
		return "expired"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Classify derives the state of c at the given instant. Consumed wins over
// Expired, and Expired wins over Exhausted.
func Classify(c *models.Challenge, now time.Time, maxAttempts int) State {
	switch {
	case c == nil:
		return NoChallenge
	case c.IsUsed:
		return Consumed
	case now.After(c.ExpiresAt):
		return Expired
	case c.FailedAttempts >= maxAttempts:
		return Exhausted
	default:
		return Active
	}
}

// Config holds engine tunables. Zero values select the defaults.
type Config struct {
	CodeLength   int
	CodeLifetime time.Duration
	MaxAttempts  int
	StoreTimeout time.Duration
}

// Engine is safe for concurrent use; all mutable state lives in the store.
type Engine struct {
	store        challenges.Store
	codeLength   int
	codeLifetime time.Duration
	maxAttempts  int
	storeTimeout time.Duration
	logger       logging.Logger
	now          func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store challenges.Store, cfg Config, logger logging.Logger, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: challenge store is nil", common.ErrConfiguration)
	}
	if cfg.CodeLength == 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.CodeLifetime == 0 {
		cfg.CodeLifetime = DefaultCodeLifetime
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.StoreTimeout == 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.CodeLength < 0 || cfg.CodeLifetime < 0 || cfg.MaxAttempts < 0 || cfg.StoreTimeout < 0 {
		return nil, fmt.Errorf("%w: verification settings must be positive", common.ErrConfiguration)
	}
	if logger == nil {
		logger = logging.Nop{}
	}

	e := &Engine{
		store:        store,
		codeLength:   cfg.CodeLength,
		codeLifetime: cfg.CodeLifetime,
		maxAttempts:  cfg.MaxAttempts,
		storeTimeout: cfg.StoreTimeout,
		logger:       logger.With("module", "verification"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Generate issues a fresh challenge for userID, discarding any previous one,
// and returns the plaintext code. Only its hash is stored.
func (e *Engine) Generate(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", common.ErrValidation)
	}

	code, err := cryptox.GenerateNumericCode(e.codeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	now := e.now()
	c := &models.Challenge{
		UserID:    userID,
		CodeHash:  cryptox.HashCode(userID, code),
		ExpiresAt: now.Add(e.codeLifetime),
		CreatedAt: now,
	}

	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	if err := e.store.Replace(ctx, c); err != nil {
		e.logger.Error(ctx, "replace challenge failed", "user_id", userID, "error", err)
		return "", unavailable(err)
	}

	e.logger.Debug(ctx, "challenge issued", "user_id", userID, "expires_at", c.ExpiresAt)
	return code, nil
}

// Verify checks code against the user's challenge. A nil return is the only
// success; otherwise the error is one of common.ErrChallengeNotFound,
// ErrCodeAlreadyUsed, ErrCodeExpired, ErrAttemptsExhausted, ErrCodeMismatch
// or a wrapped common.ErrUnavailable.
//
// With maxAttempts = 3 three wrong codes each return ErrCodeMismatch and the
// fourth call returns ErrAttemptsExhausted whatever the code. A code from a
// replaced challenge is just a wrong code for the current one.
func (e *Engine) Verify(ctx context.Context, userID, code string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", common.ErrValidation)
	}

	provided := cryptox.HashCode(userID, code)

	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	var outcome error
	err := e.store.Update(ctx, userID, func(c *models.Challenge) bool {
		// read under the store's per-user lock so expiry is checked at the
		// moment of consumption
		switch Classify(c, e.now(), e.maxAttempts) {
		case Consumed:
			outcome = common.ErrCodeAlreadyUsed
			return false
		case Expired:
			outcome = common.ErrCodeExpired
			return false
		case Exhausted:
			outcome = common.ErrAttemptsExhausted
			return false
		}

		if !cryptox.EqualHash(c.CodeHash, provided) {
			c.FailedAttempts++
			outcome = common.ErrCodeMismatch
			return true
		}

		c.IsUsed = true
		outcome = nil
		return true
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrChallengeNotFound
		}
		e.logger.Error(ctx, "verify challenge failed", "user_id", userID, "error", err)
		return unavailable(err)
	}

	if outcome != nil {
		e.logger.Info(ctx, "verification rejected", "user_id", userID, "reason", outcome.Error())
		return outcome
	}

	e.logger.Info(ctx, "verification succeeded", "user_id", userID)
	return nil
}

// State reports the current state of the user's challenge.
func (e *Engine) State(ctx context.Context, userID string) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	c, err := e.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return NoChallenge, nil
		}
		return NoChallenge, unavailable(err)
	}
	return Classify(c, e.now(), e.maxAttempts), nil
}

func unavailable(err error) error {
	if errors.Is(err, common.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
}
