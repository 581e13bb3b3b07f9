// Package config loads runtime configuration for the authkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. AUTHKEEPER_SERVER_ADDR, AUTHKEEPER_REQUEST_TIMEOUT and AUTHKEEPER_TOKEN.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-w int      per-request timeout (seconds)
//	-t string   session token for authenticated commands
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s"
//	}
//
// The token is deliberately not read from JSON files.
package config
