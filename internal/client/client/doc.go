// Package client contains the gRPC client used by the authkeeper CLI.
//
// GRPCClient owns one connection, attaches the session token as an
// "authorization: Bearer" header through a unary interceptor, and maps
// gRPC status codes to the sentinel errors below so callers can use
// errors.Is.
package client
