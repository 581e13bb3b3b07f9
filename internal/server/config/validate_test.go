package config

import (
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	c.SecretKey = "s3cr3t"
	return c
}

func TestValidate_Defaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.Validate()
	require.ErrorIs(t, err, common.ErrConfiguration)
	assert.Contains(t, err.Error(), "secret key is empty")

	require.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"blank issuer", func(c *Config) { c.TokenIssuer = " " }, "token issuer is empty"},
		{"blank audience", func(c *Config) { c.TokenAudience = "" }, "token audience is empty"},
		{"zero token validity", func(c *Config) { c.TokenValidityDuration = 0 }, "token validity must be positive"},
		{"short code", func(c *Config) { c.VerificationCodeLength = 3 }, "verification code length"},
		{"long code", func(c *Config) { c.VerificationCodeLength = 11 }, "verification code length"},
		{"zero code validity", func(c *Config) { c.VerificationCodeValidityDuration = 0 }, "verification code validity"},
		{"no attempts", func(c *Config) { c.VerificationMaxAttempts = 0 }, "max attempts"},
		{"no store timeout", func(c *Config) { c.StoreTimeout = 0 }, "store timeout"},
		{"bcrypt cost", func(c *Config) { c.BcryptCost = 2 }, "bcrypt cost"},
		{"unknown user store", func(c *Config) { c.UserStore = "mongo" }, "unknown user store"},
		{"unknown challenge store", func(c *Config) { c.ChallengeStore = "etcd" }, "unknown challenge store"},
		{"redis without address", func(c *Config) {
			c.ChallengeStore = BackendRedis
			c.RedisAddr = ""
		}, "redis address is required"},
		{"postgres without dsn", func(c *Config) { c.DatabaseDSN = "" }, "database DSN is required"},
		{"postgres challenges need postgres users", func(c *Config) { c.UserStore = BackendMemory }, "requires the postgres user store"},
		{"smtp without host", func(c *Config) { c.Notifier = NotifierSMTP }, "smtp host"},
		{"smtp bad port", func(c *Config) {
			c.Notifier = NotifierSMTP
			c.SMTPHost = "mail"
			c.SMTPPort = 0
		}, "smtp port"},
		{"s3 without bucket", func(c *Config) {
			c.Notifier = NotifierS3
			c.S3Bucket = ""
		}, "s3 notifier requires a bucket"},
		{"unknown notifier", func(c *Config) { c.Notifier = "pigeon" }, "unknown notifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			require.ErrorIs(t, err, common.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MemoryOnly(t *testing.T) {
	c := validConfig()
	c.UserStore = BackendMemory
	c.ChallengeStore = BackendMemory
	c.DatabaseDSN = ""

	require.NoError(t, c.Validate())
	assert.False(t, c.NeedsPostgres())
}

func TestValidate_ReportsEverything(t *testing.T) {
	c := &Config{}

	err := c.Validate()
	require.ErrorIs(t, err, common.ErrConfiguration)
	for _, want := range []string{"grpc address", "secret key", "token issuer", "unknown user store", "unknown notifier"} {
		assert.Contains(t, err.Error(), want)
	}
}
