// Package models defines server-side data models persisted by the stores.
package models

import "time"

// User is an identity together with its Credential. PasswordHash is the
// bcrypt output; it is excluded from JSON so it never reaches a response.
type User struct {
	ID           string    `db:"id"`
	UserName     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role"`
	Verified     bool      `db:"is_verified"`
	CreatedAt    time.Time `db:"created_at"`
}
