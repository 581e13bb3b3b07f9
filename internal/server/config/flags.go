package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-us", "-cs", "-r", "-s", "-i", "-o", "-t",
	"-l", "-m", "-x", "-n", "-u", "-p", "-b", "-g", "-e", "-v",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-us string  user store backend (postgres, memory)
//	-cs string  challenge store backend (postgres, redis, memory)
//	-r string   Redis address
//	-s string   token signing key
//	-i string   token issuer
//	-o string   token audience
//	-t int      token validity, minutes
//	-l int      verification code length, digits
//	-m int      verification code validity, minutes
//	-x int      verification attempts allowed
//	-n string   notifier (log, smtp, s3)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-v string   log level
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.UserStore, "us", config.UserStore, "user store backend")
	fs.StringVar(&config.ChallengeStore, "cs", config.ChallengeStore, "challenge store backend")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "token issuer")
	fs.StringVar(&config.TokenAudience, "o", config.TokenAudience, "token audience")

	tokenValidityDuration := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")
	fs.IntVar(&config.VerificationCodeLength, "l", config.VerificationCodeLength, "verification code length")
	codeValidityDuration := fs.Int("m", int(config.VerificationCodeValidityDuration.Minutes()), "verification_code_validity_duration (in minutes)")
	fs.IntVar(&config.VerificationMaxAttempts, "x", config.VerificationMaxAttempts, "verification attempts allowed")

	fs.StringVar(&config.Notifier, "n", config.Notifier, "notifier (log, smtp, s3)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 outbox bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Minute
	config.VerificationCodeValidityDuration = time.Duration(*codeValidityDuration) * time.Minute
}
