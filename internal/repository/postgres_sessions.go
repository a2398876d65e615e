package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/moviezone/linkgate/internal/model"
)

// Ad-view sessions live in a single table with a unique index on
// (ip_address, code, kind). RecordAdView is a native upsert, so two
// concurrent calls for the same key can never produce two rows.

func (r *PostgresRepository) HasActiveSession(ctx context.Context, ip, code string, kind model.LinkKind) (bool, error) {
	// Expiry is re-checked here; an expired row that the purge sweep has
	// not reached yet counts as absent.
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ad_view_sessions
			WHERE ip_address = $1 AND code = $2 AND kind = $3 AND expires_at > now()
		)
	`

	var active bool
	if err := r.pool.QueryRow(ctx, query, ip, code, string(kind)).Scan(&active); err != nil {
		return false, fmt.Errorf("failed to check ad session: %w", err)
	}

	return active, nil
}

func (r *PostgresRepository) RecordAdView(ctx context.Context, ip, code string, kind model.LinkKind, ttl time.Duration) error {
	query := `
		INSERT INTO ad_view_sessions (ip_address, code, kind, viewed_at, expires_at)
		VALUES ($1, $2, $3, now(), now() + make_interval(secs => $4))
		ON CONFLICT (ip_address, code, kind)
		DO UPDATE SET viewed_at = now(), expires_at = now() + make_interval(secs => $4)
	`

	if _, err := r.pool.Exec(ctx, query, ip, code, string(kind), ttl.Seconds()); err != nil {
		return fmt.Errorf("failed to record ad view: %w", err)
	}

	return nil
}

// PurgeExpiredSessions deletes expired rows and reports how many went.
// Running it is optional housekeeping; lookups never trust row presence
// alone.
func (r *PostgresRepository) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM ad_view_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge ad sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
