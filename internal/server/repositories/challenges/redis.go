package challenges

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix       = "avc"
	challengeRecordVersionV1 = 1

	// DefaultRetention keeps a record around after it expires so that a
	// late verify still reports an expired code rather than a missing one.
	DefaultRetention = 24 * time.Hour

	maxWatchRetries = 4
)

// RedisStore keeps one binary-encoded record per user and serialises
// Update with WATCH/MULTI optimistic transactions.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

func NewRedisStore(client redis.UniversalClient, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisStore{
		redis:     client,
		prefix:    challengeKeyPrefix,
		retention: retention,
	}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *RedisStore) ttl(c *models.Challenge) time.Duration {
	ttl := time.Until(c.ExpiresAt) + s.retention
	if ttl <= 0 {
		ttl = s.retention
	}
	return ttl
}

func (s *RedisStore) Replace(ctx context.Context, c *models.Challenge) error {
	encoded, err := encodeChallenge(c)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(c.UserID), encoded, s.ttl(c)).Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	return nil
}

func (s *RedisStore) Update(ctx context.Context, userID string, fn Mutator) error {
	key := s.key(userID)

	for i := 0; i < maxWatchRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			c, err := decodeChallenge(data)
			if err != nil {
				return err
			}

			if !fn(c) {
				return nil
			}

			updated, err := encodeChallenge(c)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, s.ttl(c))
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
		}

		return nil
	}

	return fmt.Errorf("%w: %w: too much contention on %s", common.ErrUnavailable, common.ErrVersionConflict, key)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.Challenge, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	return decodeChallenge(data)
}

func encodeChallenge(c *models.Challenge) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(challengeRecordVersionV1)

	var used byte
	if c.IsUsed {
		used = 1
	}
	buf.WriteByte(used)

	if c.FailedAttempts < 0 || c.FailedAttempts > 0xFFFF {
		return nil, errors.New("challenge attempt counter out of range")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(c.FailedAttempts)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, c.ExpiresAt.UnixNano()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, c.CreatedAt.UnixNano()); err != nil {
		return nil, err
	}

	for _, field := range [][]byte{[]byte(c.UserID), c.CodeHash} {
		if len(field) > 0xFFFF {
			return nil, errors.New("challenge record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.Write(field)
	}

	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (*models.Challenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersionV1 {
		return nil, errors.New("invalid challenge record version")
	}

	used, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	var (
		attempts           uint16
		expiresAt, created int64
	)
	if err := binary.Read(reader, binary.BigEndian, &attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &created); err != nil {
		return nil, err
	}

	fields := make([][]byte, 2)
	for i := range fields {
		var n uint16
		if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		fields[i] = make([]byte, n)
		if _, err := io.ReadFull(reader, fields[i]); err != nil {
			return nil, err
		}
	}

	return &models.Challenge{
		UserID:         string(fields[0]),
		CodeHash:       fields[1],
		ExpiresAt:      time.Unix(0, expiresAt).UTC(),
		FailedAttempts: int(attempts),
		IsUsed:         used == 1,
		CreatedAt:      time.Unix(0, created).UTC(),
	}, nil
}
