package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const credentialColumns = `
	id, token, name, owner_id, plan, status,
	can_chat, can_embeddings, can_moderations, can_images,
	rate_limit_per_minute, rate_limit_per_day,
	expires_at, total_requests, total_tokens, last_used_at,
	created_at, updated_at`

// PostgresStore persists credentials in the credentials table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Lookup fetches a credential by its unique token.
func (s *PostgresStore) Lookup(ctx context.Context, token string) (*Credential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+credentialColumns+` FROM credentials WHERE token = $1`, token)
	cred, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup credential: %w", err)
	}
	return cred, nil
}

// GetByID fetches a credential by id.
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+credentialColumns+` FROM credentials WHERE id = $1`, id)
	cred, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

// TouchLastUsed records the most recent successful authentication time.
func (s *PostgresStore) TouchLastUsed(ctx context.Context, id uuid.UUID, ts time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE credentials SET last_used_at = $2, updated_at = now() WHERE id = $1`, id, ts)
	if err != nil {
		return fmt.Errorf("touch last used: %w", err)
	}
	return nil
}

// AddUsage folds one request and its token count into the credential's
// running totals. The single UPDATE statement is the atomic increment
// primitive: concurrent callers serialize on the row and no increment
// is lost.
func (s *PostgresStore) AddUsage(ctx context.Context, id uuid.UUID, tokens int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE credentials
		    SET total_requests = total_requests + 1,
		        total_tokens = total_tokens + $2,
		        updated_at = now()
		  WHERE id = $1`, id, tokens)
	if err != nil {
		return fmt.Errorf("add usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserts a new credential. A token collision surfaces as
// ErrTokenTaken so callers can regenerate and retry.
func (s *PostgresStore) Create(ctx context.Context, cred *Credential) error {
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO credentials (
			id, token, name, owner_id, plan, status,
			can_chat, can_embeddings, can_moderations, can_images,
			rate_limit_per_minute, rate_limit_per_day,
			expires_at, total_requests, total_tokens, last_used_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,0,0,NULL,$14,$14)`,
		cred.ID, cred.Token, cred.Name, cred.OwnerID, cred.Plan, cred.Status,
		cred.CanChat, cred.CanEmbeddings, cred.CanModerations, cred.CanImages,
		cred.RateLimitPerMinute, cred.RateLimitPerDay,
		cred.ExpiresAt, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrTokenTaken
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// ErrTokenTaken indicates a generated token collided with an existing one.
var ErrTokenTaken = errors.New("credential token already exists")

func scanCredential(row pgx.Row) (*Credential, error) {
	var cred Credential
	err := row.Scan(
		&cred.ID, &cred.Token, &cred.Name, &cred.OwnerID, &cred.Plan, &cred.Status,
		&cred.CanChat, &cred.CanEmbeddings, &cred.CanModerations, &cred.CanImages,
		&cred.RateLimitPerMinute, &cred.RateLimitPerDay,
		&cred.ExpiresAt, &cred.TotalRequests, &cred.TotalTokens, &cred.LastUsedAt,
		&cred.CreatedAt, &cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cred, nil
}
