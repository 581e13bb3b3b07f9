// Package common contains shared constants and sentinel errors used across
// authkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on authenticated requests.
const AccessTokenHeaderName = "authorization"

// BearerPrefix precedes the token in the AccessTokenHeaderName value.
const BearerPrefix = "Bearer "

// DefaultRole is assigned to newly registered users.
const DefaultRole = "user"
