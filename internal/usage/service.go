package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mockgate/mockgate/internal/timeutil"
)

// Service answers aggregation queries over the usage event log.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Summary aggregates a credential's events inside a reporting window.
type Summary struct {
	CredentialID      uuid.UUID            `json:"credential_id"`
	Period            string               `json:"period"`
	WindowStart       time.Time            `json:"window_start"`
	WindowEnd         time.Time            `json:"window_end"`
	Requests          int64                `json:"requests"`
	TokensIn          int64                `json:"tokens_in"`
	TokensOut         int64                `json:"tokens_out"`
	TotalTokens       int64                `json:"total_tokens"`
	AvgResponseTimeMs float64              `json:"avg_response_time_ms"`
	LastEventAt       *time.Time           `json:"last_event_at,omitempty"`
	ByOperation       []OperationBreakdown `json:"by_operation"`
}

// OperationBreakdown is the per-operation slice of a summary.
type OperationBreakdown struct {
	Operation string `json:"operation"`
	Requests  int64  `json:"requests"`
	Tokens    int64  `json:"tokens"`
}

// CredentialSummary aggregates the credential's usage over the window.
func (s *Service) CredentialSummary(ctx context.Context, credentialID uuid.UUID, w timeutil.Window) (Summary, error) {
	summary := Summary{
		CredentialID: credentialID,
		Period:       w.Period(),
		WindowStart:  w.Start(),
		WindowEnd:    w.End(),
	}

	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(tokens_in), 0),
		        COALESCE(SUM(tokens_out), 0),
		        COALESCE(SUM(total_tokens), 0),
		        COALESCE(AVG(response_time_ms), 0),
		        MAX(created_at)
		   FROM usage_events
		  WHERE credential_id = $1
		    AND created_at >= $2 AND created_at < $3`,
		credentialID, w.Start(), w.End())
	if err := row.Scan(
		&summary.Requests, &summary.TokensIn, &summary.TokensOut,
		&summary.TotalTokens, &summary.AvgResponseTimeMs, &summary.LastEventAt,
	); err != nil {
		return Summary{}, fmt.Errorf("aggregate usage: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT operation, COUNT(*), COALESCE(SUM(total_tokens), 0)
		   FROM usage_events
		  WHERE credential_id = $1
		    AND created_at >= $2 AND created_at < $3
		  GROUP BY operation
		  ORDER BY operation`,
		credentialID, w.Start(), w.End())
	if err != nil {
		return Summary{}, fmt.Errorf("aggregate usage by operation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var breakdown OperationBreakdown
		if err := rows.Scan(&breakdown.Operation, &breakdown.Requests, &breakdown.Tokens); err != nil {
			return Summary{}, fmt.Errorf("scan operation breakdown: %w", err)
		}
		summary.ByOperation = append(summary.ByOperation, breakdown)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("aggregate usage by operation: %w", err)
	}

	return summary, nil
}
