package credentials

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := NewVault(bcrypt.MinCost)
	require.NoError(t, err)
	return v
}

func TestNewVault_RejectsBadCost(t *testing.T) {
	_, err := NewVault(bcrypt.MinCost - 1)
	require.ErrorIs(t, err, common.ErrConfiguration)

	_, err = NewVault(bcrypt.MaxCost + 1)
	require.ErrorIs(t, err, common.ErrConfiguration)

	_, err = NewVault(bcrypt.DefaultCost)
	require.NoError(t, err)
}

func TestVault_RoundTrip(t *testing.T) {
	v := newTestVault(t)

	for _, pw := range []string{"P@ssw0rd", "x", "пароль-с-юникодом", strings.Repeat("a", 72)} {
		hash, err := v.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.NotContains(t, hash, pw)
		assert.True(t, v.Verify(pw, hash), "password %q must verify", pw)
	}
}

func TestVault_DifferentPasswordsDoNotVerify(t *testing.T) {
	v := newTestVault(t)

	hash, err := v.Hash("P@ssw0rd")
	require.NoError(t, err)

	assert.False(t, v.Verify("P@ssw0rD", hash))
	assert.False(t, v.Verify("wrong", hash))
	assert.False(t, v.Verify("", hash))
}

func TestVault_VerifyRejectsInputsPastBcryptLimit(t *testing.T) {
	v := newTestVault(t)

	pw := strings.Repeat("a", 72)
	hash, err := v.Hash(pw)
	require.NoError(t, err)
	require.True(t, v.Verify(pw, hash))

	longer := pw + "-completely-different-suffix"
	_, err = v.Hash(longer)
	require.ErrorIs(t, err, common.ErrValidation)

	assert.False(t, v.Verify(longer, hash))
	assert.False(t, v.Verify(pw+"a", hash))
}

func TestVault_HashIsSalted(t *testing.T) {
	v := newTestVault(t)

	h1, err := v.Hash("same")
	require.NoError(t, err)
	h2, err := v.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, v.Verify("same", h1))
	assert.True(t, v.Verify("same", h2))
}

func TestVault_HashValidation(t *testing.T) {
	v := newTestVault(t)

	_, err := v.Hash("")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = v.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestVault_VerifyMalformedHash(t *testing.T) {
	v := newTestVault(t)

	assert.False(t, v.Verify("pw", ""))
	assert.False(t, v.Verify("pw", "not-a-bcrypt-hash"))
}
