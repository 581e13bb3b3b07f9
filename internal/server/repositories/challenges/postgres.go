package challenges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository holds the row-level queries for the
// verification_challenges table and works on either a *sql.DB or a *sql.Tx.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes c as the user's challenge, resetting every column.
func (r *PostgresRepository) Upsert(ctx context.Context, c *models.Challenge) error {
	query :=
		`INSERT INTO verification_challenges (user_id, code_hash, expires_at, failed_attempts, is_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		 code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at,
		 failed_attempts = EXCLUDED.failed_attempts, is_used = EXCLUDED.is_used,
		 created_at = EXCLUDED.created_at
		 `

	_, err := r.db.ExecContext(ctx, query,
		c.UserID, c.CodeHash, c.ExpiresAt, c.FailedAttempts, c.IsUsed, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) get(ctx context.Context, query, userID string) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&c.UserID, &c.CodeHash, &c.ExpiresAt, &c.FailedAttempts, &c.IsUsed, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

// GetByUserID reads the challenge without locking it.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Challenge, error) {
	query :=
		`SELECT user_id, code_hash, expires_at, failed_attempts, is_used, created_at
		 FROM verification_challenges
		 WHERE user_id = $1
		 `
	return r.get(ctx, query, userID)
}

// GetForUpdate reads the challenge and row-locks it until the surrounding
// transaction ends. It must run inside a transaction.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID string) (*models.Challenge, error) {
	query :=
		`SELECT user_id, code_hash, expires_at, failed_attempts, is_used, created_at
		 FROM verification_challenges
		 WHERE user_id = $1
		 FOR UPDATE
		 `
	return r.get(ctx, query, userID)
}

// Save persists the mutable columns of an existing challenge.
func (r *PostgresRepository) Save(ctx context.Context, c *models.Challenge) error {
	query :=
		`UPDATE verification_challenges
		 SET failed_attempts = $2, is_used = $3
		 WHERE user_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, c.UserID, c.FailedAttempts, c.IsUsed)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// PostgresStore implements Store on top of PostgresRepository. Update runs
// as SELECT ... FOR UPDATE followed by UPDATE in one transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Replace(ctx context.Context, c *models.Challenge) error {
	return NewPostgresRepository(s.db).Upsert(ctx, c)
}

func (s *PostgresStore) Update(ctx context.Context, userID string, fn Mutator) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewPostgresRepository(tx)

		c, err := repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if !fn(c) {
			return nil
		}

		return repo.Save(ctx, c)
	})
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*models.Challenge, error) {
	return NewPostgresRepository(s.db).GetByUserID(ctx, userID)
}
