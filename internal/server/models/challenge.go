package models

import "time"

// Challenge is the single verification record a user may have. A new
// challenge for the same user replaces the old one wholesale.
type Challenge struct {
	UserID         string
	CodeHash       []byte
	ExpiresAt      time.Time
	FailedAttempts int
	IsUsed         bool
	CreatedAt      time.Time
}

// Clone returns a deep copy, so stores can hand out records without
// sharing the hash slice.
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	cp := *c
	cp.CodeHash = append([]byte(nil), c.CodeHash...)
	return &cp
}
