package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	minCodeLength = 4
	maxCodeLength = 10
)

// Validate reports every problem at once, wrapped in common.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.EndpointAddrGRPC) == "" {
		add("grpc address is empty")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		add("secret key is empty")
	}
	if strings.TrimSpace(c.TokenIssuer) == "" {
		add("token issuer is empty")
	}
	if strings.TrimSpace(c.TokenAudience) == "" {
		add("token audience is empty")
	}
	if c.TokenValidityDuration <= 0 {
		add("token validity must be positive")
	}
	if c.VerificationCodeLength < minCodeLength || c.VerificationCodeLength > maxCodeLength {
		add("verification code length must be between %d and %d", minCodeLength, maxCodeLength)
	}
	if c.VerificationCodeValidityDuration <= 0 {
		add("verification code validity must be positive")
	}
	if c.VerificationMaxAttempts < 1 {
		add("verification max attempts must be at least 1")
	}
	if c.StoreTimeout <= 0 {
		add("store timeout must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		add("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch c.UserStore {
	case BackendPostgres, BackendMemory:
	default:
		add("unknown user store %q", c.UserStore)
	}
	switch c.ChallengeStore {
	case BackendPostgres, BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			add("redis address is required for the redis challenge store")
		}
	default:
		add("unknown challenge store %q", c.ChallengeStore)
	}
	if c.NeedsPostgres() && c.DatabaseDSN == "" {
		add("database DSN is required for postgres backends")
	}
	if c.UserStore == BackendMemory && c.ChallengeStore == BackendPostgres {
		add("postgres challenge store requires the postgres user store")
	}

	switch c.Notifier {
	case NotifierLog:
	case NotifierSMTP:
		if c.SMTPHost == "" || c.MailFrom == "" {
			add("smtp notifier requires smtp host and mail from")
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			add("smtp port out of range")
		}
	case NotifierS3:
		if c.S3Bucket == "" {
			add("s3 notifier requires a bucket")
		}
	default:
		add("unknown notifier %q", c.Notifier)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", common.ErrConfiguration, errors.Join(errs...))
}

// NeedsPostgres reports whether any backend uses the database.
func (c *Config) NeedsPostgres() bool {
	return c.UserStore == BackendPostgres || c.ChallengeStore == BackendPostgres
}
