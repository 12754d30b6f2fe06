package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdeckhq/flashdeck/internal/models"
)

// PostgresStore implements TokenStore and UserStore over pgx.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const tokenColumns = `id, user_id, name, token_hash, abilities, last_used_at, expires_at, created_at`

func scanToken(row pgx.Row) (*models.APIToken, error) {
	var t models.APIToken
	var abilitiesJSON []byte
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &abilitiesJSON, &t.LastUsedAt, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	if err := json.Unmarshal(abilitiesJSON, &t.Abilities); err != nil {
		return nil, fmt.Errorf("unmarshal abilities: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) Insert(ctx context.Context, t *models.APIToken) error {
	abilities, err := json.Marshal(t.Abilities)
	if err != nil {
		return fmt.Errorf("marshal abilities: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO api_tokens (id, user_id, name, token_hash, abilities, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.Name, t.TokenHash, abilities, t.ExpiresAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// InsertIfUnderLimit guards the per-user ceiling inside the insert
// statement itself, so two concurrent creates cannot both slip past the
// count the way a separate check-then-insert would allow.
func (s *PostgresStore) InsertIfUnderLimit(ctx context.Context, t *models.APIToken, max int, now time.Time) (bool, error) {
	abilities, err := json.Marshal(t.Abilities)
	if err != nil {
		return false, fmt.Errorf("marshal abilities: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`INSERT INTO api_tokens (id, user_id, name, token_hash, abilities, expires_at, created_at)
		 SELECT $1, $2, $3, $4, $5, $6, $7
		 WHERE (SELECT COUNT(*) FROM api_tokens
		        WHERE user_id = $2 AND (expires_at IS NULL OR expires_at > $8)) < $9`,
		t.ID, t.UserID, t.Name, t.TokenHash, abilities, t.ExpiresAt, t.CreatedAt, now, max,
	)
	if err != nil {
		return false, fmt.Errorf("insert token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*models.APIToken, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE token_hash = $1`, hash)
	return scanToken(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.APIToken, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE id = $1`, id)
	return scanToken(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+tokenColumns+` FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.APIToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

func (s *PostgresStore) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM api_tokens
		 WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		userID, now,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active tokens: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE api_tokens SET last_used_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("touch last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM api_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
