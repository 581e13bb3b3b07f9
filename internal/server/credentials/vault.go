// Package credentials turns passwords into bcrypt hashes and checks them.
// Plaintext passwords never leave the call that received them.
package credentials

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// Vault hashes and verifies passwords. It holds no state besides the cost
// factor and is safe for concurrent use.
type Vault struct {
	cost int
}

// NewVault returns a Vault using the given bcrypt cost.
func NewVault(cost int) (*Vault, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]",
			common.ErrConfiguration, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Vault{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of password. The salt and cost are
// embedded in the result.
func (v *Vault) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", common.ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Mismatches, malformed
// hashes and passwords Hash would refuse all yield false; bcrypt ignores
// bytes past the 72nd, so longer inputs are never compared.
func (v *Vault) Verify(password, hash string) bool {
	if password == "" || len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
