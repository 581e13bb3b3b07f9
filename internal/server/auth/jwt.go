// Package auth mints and validates the HS256 session tokens handed out on
// login. Tokens are self-contained; nothing is stored server-side.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenValidity is used when the configured lifetime is zero.
const DefaultTokenValidity = 60 * time.Minute

// Claims is the full claim set carried by a session token. The subject
// holds the user id; ID (jti) is random per token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenIssuer signs and checks session tokens. Its configuration is fixed
// at construction and it is safe for concurrent use.
type TokenIssuer struct {
	secretKey []byte
	issuer    string
	audience  string
	validity  time.Duration
	now       func() time.Time
}

// NewTokenIssuer fails with common.ErrConfiguration when the key, issuer
// or audience is blank, or when validity is negative. A zero validity
// selects DefaultTokenValidity.
func NewTokenIssuer(secretKey, issuer, audience string, validity time.Duration) (*TokenIssuer, error) {
	switch {
	case strings.TrimSpace(secretKey) == "":
		return nil, fmt.Errorf("%w: signing key is empty", common.ErrConfiguration)
	case strings.TrimSpace(issuer) == "":
		return nil, fmt.Errorf("%w: token issuer is empty", common.ErrConfiguration)
	case strings.TrimSpace(audience) == "":
		return nil, fmt.Errorf("%w: token audience is empty", common.ErrConfiguration)
	case validity < 0:
		return nil, fmt.Errorf("%w: token validity must be positive", common.ErrConfiguration)
	}
	if validity == 0 {
		validity = DefaultTokenValidity
	}

	return &TokenIssuer{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		audience:  audience,
		validity:  validity,
		now:       time.Now,
	}, nil
}

// WithClock replaces the time source. Intended for tests.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *i
	cp.now = now
	return &cp
}

// Issue returns a signed token for the given identity.
func (i *TokenIssuer) Issue(userID, username, role string) (string, error) {
	now := i.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		Username: username,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Validate checks signature, issuer, audience and expiry. It returns
// common.ErrInvalidToken for anything malformed or tampered with,
// common.ErrTokenExpired once exp has passed and common.ErrWrongAudience
// when the token was minted for another issuer or audience.
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(i.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secretKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, common.ErrInvalidToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidAudience), errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, common.ErrWrongAudience
		default:
			return nil, common.ErrInvalidToken
		}
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
