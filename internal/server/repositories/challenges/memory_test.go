package challenges

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChallenge(userID string) *models.Challenge {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Challenge{
		UserID:    userID,
		CodeHash:  []byte("hash-" + userID),
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
}

func TestMemoryStore_ReplaceAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	c := sampleChallenge("u1")
	require.NoError(t, s.Replace(ctx, c))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// stored copy is isolated from the caller's value
	c.CodeHash[0] = 'X'
	got, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, byte('h'), got.CodeHash[0])
}

func TestMemoryStore_ReplaceResetsCounter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Replace(ctx, sampleChallenge("u1")))
	require.NoError(t, s.Update(ctx, "u1", func(c *models.Challenge) bool {
		c.FailedAttempts = 2
		return true
	}))

	require.NoError(t, s.Replace(ctx, sampleChallenge("u1")))
	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedAttempts)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Update(ctx, "ghost", func(c *models.Challenge) bool { return true })
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.Replace(ctx, sampleChallenge("u1")))

	// mutator returning false discards its changes
	require.NoError(t, s.Update(ctx, "u1", func(c *models.Challenge) bool {
		c.IsUsed = true
		return false
	}))
	got, _ := s.Get(ctx, "u1")
	assert.False(t, got.IsUsed)

	require.NoError(t, s.Update(ctx, "u1", func(c *models.Challenge) bool {
		c.IsUsed = true
		return true
	}))
	got, _ = s.Get(ctx, "u1")
	assert.True(t, got.IsUsed)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	require.ErrorIs(t, s.Replace(ctx, sampleChallenge("u1")), context.Canceled)
	require.ErrorIs(t, s.Update(ctx, "u1", func(*models.Challenge) bool { return true }), context.Canceled)
	_, err := s.Get(ctx, "u1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_UpdateIsSerialisedPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Replace(ctx, sampleChallenge("u1")))
	require.NoError(t, s.Replace(ctx, sampleChallenge("u2")))

	const workers = 64

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "u1", func(c *models.Challenge) bool {
				c.FailedAttempts++
				return true
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "u2", func(c *models.Challenge) bool {
				if c.IsUsed {
					return false
				}
				c.IsUsed = true
				mu.Lock()
				winners++
				mu.Unlock()
				return true
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, workers, got.FailedAttempts)
	assert.Equal(t, 1, winners)
}
