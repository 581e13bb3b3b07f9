// Package challenges persists the per-user verification challenge. Every
// backend keeps at most one record per user and runs Update mutators under
// per-user mutual exclusion, so two concurrent verifications of the same
// user never both observe an unused record.
package challenges

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Mutator receives a private copy of the stored challenge. Returning true
// writes the copy back in the same critical section; returning false leaves
// the stored record untouched. Backends that retry on contention may call
// a Mutator more than once, so it must not keep state between calls.
type Mutator func(c *models.Challenge) bool

type Store interface {
	// Replace stores c as the user's only challenge, discarding any
	// previous record including its attempt counter.
	Replace(ctx context.Context, c *models.Challenge) error
	// Update runs fn against the user's challenge atomically. It returns
	// common.ErrorNotFound when the user has no challenge.
	Update(ctx context.Context, userID string, fn Mutator) error
	// Get returns a copy of the user's challenge or common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.Challenge, error)
}
