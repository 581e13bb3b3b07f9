// Package cli implements the authkeeper command-line client.
//
// Each invocation runs one subcommand against the server:
//
//	register [username]
//	login [username]
//	request-verification
//	confirm-verification [code]
//	validate [token]
//	change-password
//	ping
//
// Passwords are read from the terminal without echo. Authenticated
// subcommands take the session token from -t or AUTHKEEPER_TOKEN; login
// prints the token so it can be exported.
package cli
