package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/moviezone/linkgate/internal/model"
)

func (r *PostgresRepository) CreateToken(ctx context.Context, token *model.AccessToken) error {
	query := `
		INSERT INTO access_tokens (name, value, scope, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, token.Name, token.Value, string(token.Scope), token.IsActive).Scan(
		&token.ID,
		&token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetActiveTokenByValue looks a token up by its secret. Inactive tokens
// are filtered in the query, so a disabled credential is indistinguishable
// from one that never existed.
func (r *PostgresRepository) GetActiveTokenByValue(ctx context.Context, value string) (*model.AccessToken, error) {
	query := `
		SELECT id, name, value, scope, is_active, created_at, last_used_at
		FROM access_tokens
		WHERE value = $1 AND is_active = true
	`

	return scanTokenRow(r.pool.QueryRow(ctx, query, value))
}

func (r *PostgresRepository) ListTokens(ctx context.Context) ([]model.AccessToken, error) {
	query := `
		SELECT id, name, value, scope, is_active, created_at, last_used_at
		FROM access_tokens
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.AccessToken
	for rows.Next() {
		token, err := scanTokenRow(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *token)
	}

	return tokens, rows.Err()
}

func (r *PostgresRepository) SetTokenActive(ctx context.Context, id int64, active bool) (*model.AccessToken, error) {
	query := `
		UPDATE access_tokens SET is_active = $1
		WHERE id = $2
		RETURNING id, name, value, scope, is_active, created_at, last_used_at
	`

	return scanTokenRow(r.pool.QueryRow(ctx, query, active, id))
}

func (r *PostgresRepository) DeleteToken(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}

	return nil
}

// TouchTokenLastUsed stamps last_used_at. Callers treat failures as
// best-effort bookkeeping, not authorization failures.
func (r *PostgresRepository) TouchTokenLastUsed(ctx context.Context, value string) error {
	_, err := r.pool.Exec(ctx, `UPDATE access_tokens SET last_used_at = now() WHERE value = $1`, value)
	if err != nil {
		return fmt.Errorf("failed to touch token last used: %w", err)
	}

	return nil
}

func scanTokenRow(row pgx.Row) (*model.AccessToken, error) {
	var token model.AccessToken
	var scope string
	err := row.Scan(
		&token.ID,
		&token.Name,
		&token.Value,
		&scope,
		&token.IsActive,
		&token.CreatedAt,
		&token.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}

	token.Scope = model.LinkKind(scope)
	return &token, nil
}
