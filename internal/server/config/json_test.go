package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_grpc":                  "www.example:9000",
		"database_dsn":                        "postgres://db",
		"user_store":                          "memory",
		"challenge_store":                     "redis",
		"redis_addr":                          "redis:6379",
		"redis_db":                            0,
		"secret_key":                          "my_secret_key",
		"token_issuer":                        "issuer",
		"token_audience":                      "audience",
		"token_validity_duration":             "30m",
		"verification_code_length":            8,
		"verification_code_validity_duration": "10m",
		"verification_max_attempts":           4,
		"store_timeout":                       "2s",
		"bcrypt_cost":                         12,
		"notifier":                            "smtp",
		"mail_from":                           "noreply@example.com",
		"smtp_host":                           "smtp.example.com",
		"smtp_port":                           2525,
		"s3_bucket":                           "bucket",
		"log_level":                           "debug",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{RedisDB: 7}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "memory", cfg.UserStore)
		assert.Equal(t, "redis", cfg.ChallengeStore)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 0, cfg.RedisDB)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "issuer", cfg.TokenIssuer)
		assert.Equal(t, "audience", cfg.TokenAudience)
		assert.Equal(t, 30*time.Minute, cfg.TokenValidityDuration)
		assert.Equal(t, 8, cfg.VerificationCodeLength)
		assert.Equal(t, 10*time.Minute, cfg.VerificationCodeValidityDuration)
		assert.Equal(t, 4, cfg.VerificationMaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, "smtp", cfg.Notifier)
		assert.Equal(t, "noreply@example.com", cfg.MailFrom)
		assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("missing keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"secret_key": "only-this",
		})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, 5*time.Minute, cfg.VerificationCodeValidityDuration)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrGRPC:      "defaults:1234",
			DatabaseDSN:           "vault.db",
			SecretKey:             "key",
			TokenValidityDuration: 2 * time.Minute,
			S3Bucket:              "s3bucket",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "vault.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.TokenValidityDuration)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
