package usage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink appends events to the usage_events table. The unique
// request_id index plus ON CONFLICT DO NOTHING makes replays harmless.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Append(ctx context.Context, ev Event) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO usage_events (
			id, request_id, credential_id, operation, model,
			tokens_in, tokens_out, total_tokens,
			status_code, error_message, response_time_ms,
			client_ip, user_agent, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (request_id) DO NOTHING`,
		ev.ID, ev.RequestID, ev.CredentialID, ev.Operation, ev.Model,
		ev.TokensIn, ev.TokensOut, ev.TotalTokens,
		ev.StatusCode, ev.ErrorMessage, ev.ResponseTimeMs,
		nullable(ev.ClientIP), nullable(ev.UserAgent), ev.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("append usage event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
