package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/moviezone/linkgate/internal/config"
	"github.com/moviezone/linkgate/internal/model"
)

var (
	ErrLinkNotFound  = errors.New("link not found")
	ErrTokenNotFound = errors.New("token not found")
	ErrCodeTaken     = errors.New("short code already taken")
)

// linkTables maps each kind to its backing table. Every table carries the
// same code/views/ads_enabled columns, so kind-generic statements switch on
// this map only.
var linkTables = map[model.LinkKind]string{
	model.KindSingle:        "single_links",
	model.KindQuality:       "quality_links",
	model.KindEpisodeSeries: "episode_series",
	model.KindEpisodeRange:  "episode_archives",
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(cfg *config.PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// failure. The allocator's caller treats this as a retry signal, not a
// fatal error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CodeInUse checks the shared code namespace across all four link tables
// in a single round trip.
func (r *PostgresRepository) CodeInUse(ctx context.Context, code string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM single_links WHERE code = $1)
		    OR EXISTS (SELECT 1 FROM quality_links WHERE code = $1)
		    OR EXISTS (SELECT 1 FROM episode_series WHERE code = $1)
		    OR EXISTS (SELECT 1 FROM episode_archives WHERE code = $1)
	`

	var inUse bool
	if err := r.pool.QueryRow(ctx, query, code).Scan(&inUse); err != nil {
		return false, fmt.Errorf("failed to check code usage: %w", err)
	}

	return inUse, nil
}

// IncrementViewsBy applies an accumulated view delta as a single atomic
// statement. Read-modify-write from the application side would lose
// concurrent updates.
func (r *PostgresRepository) IncrementViewsBy(ctx context.Context, kind model.LinkKind, code string, delta int64) error {
	table, ok := linkTables[kind]
	if !ok {
		return fmt.Errorf("unknown link kind %q", kind)
	}

	query := `UPDATE ` + table + ` SET views = views + $1 WHERE code = $2`

	result, err := r.pool.Exec(ctx, query, delta, code)
	if err != nil {
		return fmt.Errorf("failed to increment views by %d: %w", delta, err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// --- single links ---

func (r *PostgresRepository) CreateSingle(ctx context.Context, link *model.SingleLink) error {
	query := `
		INSERT INTO single_links (code, display_name, target_url, ads_enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, views, created_at
	`

	err := r.pool.QueryRow(ctx, query, link.Code, link.DisplayName, link.TargetURL, link.AdsEnabled).Scan(
		&link.ID,
		&link.Views,
		&link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("failed to create single link: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetSingleByCode(ctx context.Context, code string) (*model.SingleLink, error) {
	query := `
		SELECT id, code, display_name, target_url, views, ads_enabled, created_at
		FROM single_links
		WHERE code = $1
	`

	var link model.SingleLink
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&link.ID,
		&link.Code,
		&link.DisplayName,
		&link.TargetURL,
		&link.Views,
		&link.AdsEnabled,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get single link: %w", err)
	}

	return &link, nil
}

func (r *PostgresRepository) UpdateSingle(ctx context.Context, id int64, upd model.UpdateSingleRequest) (*model.SingleLink, error) {
	set := newSetBuilder()
	set.add("display_name", upd.DisplayName)
	set.add("target_url", upd.TargetURL)
	set.add("ads_enabled", upd.AdsEnabled)
	if set.empty() {
		return r.getSingleByID(ctx, id)
	}

	query := `UPDATE single_links SET ` + set.clause() + ` WHERE id = ` + set.next() + `
		RETURNING id, code, display_name, target_url, views, ads_enabled, created_at`

	var link model.SingleLink
	err := r.pool.QueryRow(ctx, query, set.withArg(id)...).Scan(
		&link.ID,
		&link.Code,
		&link.DisplayName,
		&link.TargetURL,
		&link.Views,
		&link.AdsEnabled,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to update single link: %w", err)
	}

	return &link, nil
}

func (r *PostgresRepository) getSingleByID(ctx context.Context, id int64) (*model.SingleLink, error) {
	query := `
		SELECT id, code, display_name, target_url, views, ads_enabled, created_at
		FROM single_links
		WHERE id = $1
	`

	var link model.SingleLink
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&link.ID,
		&link.Code,
		&link.DisplayName,
		&link.TargetURL,
		&link.Views,
		&link.AdsEnabled,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get single link: %w", err)
	}

	return &link, nil
}

func (r *PostgresRepository) DeleteSingle(ctx context.Context, id int64) (string, error) {
	return r.deleteLink(ctx, "single_links", id)
}

func (r *PostgresRepository) ListSingle(ctx context.Context) ([]model.SingleLink, error) {
	query := `
		SELECT id, code, display_name, target_url, views, ads_enabled, created_at
		FROM single_links
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list single links: %w", err)
	}
	defer rows.Close()

	var links []model.SingleLink
	for rows.Next() {
		var link model.SingleLink
		if err := rows.Scan(
			&link.ID,
			&link.Code,
			&link.DisplayName,
			&link.TargetURL,
			&link.Views,
			&link.AdsEnabled,
			&link.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan single link: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

// --- quality links ---

func (r *PostgresRepository) CreateQuality(ctx context.Context, link *model.QualityLink) error {
	query := `
		INSERT INTO quality_links (code, display_name, url_low, url_medium, url_high, ads_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, views, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		link.Code, link.DisplayName,
		link.Quality.Low, link.Quality.Medium, link.Quality.High,
		link.AdsEnabled,
	).Scan(&link.ID, &link.Views, &link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("failed to create quality link: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetQualityByCode(ctx context.Context, code string) (*model.QualityLink, error) {
	query := `
		SELECT id, code, display_name, url_low, url_medium, url_high, views, ads_enabled, created_at
		FROM quality_links
		WHERE code = $1
	`

	return scanQualityRow(r.pool.QueryRow(ctx, query, code))
}

func (r *PostgresRepository) UpdateQuality(ctx context.Context, id int64, upd model.UpdateQualityRequest) (*model.QualityLink, error) {
	set := newSetBuilder()
	set.add("display_name", upd.DisplayName)
	// An empty string clears the tier to NULL; all tiers cleared is a
	// valid "unavailable" state.
	set.addNullable("url_low", upd.Low)
	set.addNullable("url_medium", upd.Medium)
	set.addNullable("url_high", upd.High)
	set.add("ads_enabled", upd.AdsEnabled)
	if set.empty() {
		return r.getQualityByID(ctx, id)
	}

	query := `UPDATE quality_links SET ` + set.clause() + ` WHERE id = ` + set.next() + `
		RETURNING id, code, display_name, url_low, url_medium, url_high, views, ads_enabled, created_at`

	return scanQualityRow(r.pool.QueryRow(ctx, query, set.withArg(id)...))
}

func (r *PostgresRepository) getQualityByID(ctx context.Context, id int64) (*model.QualityLink, error) {
	query := `
		SELECT id, code, display_name, url_low, url_medium, url_high, views, ads_enabled, created_at
		FROM quality_links
		WHERE id = $1
	`

	return scanQualityRow(r.pool.QueryRow(ctx, query, id))
}

func scanQualityRow(row pgx.Row) (*model.QualityLink, error) {
	var link model.QualityLink
	err := row.Scan(
		&link.ID,
		&link.Code,
		&link.DisplayName,
		&link.Quality.Low,
		&link.Quality.Medium,
		&link.Quality.High,
		&link.Views,
		&link.AdsEnabled,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to scan quality link: %w", err)
	}

	return &link, nil
}

func (r *PostgresRepository) DeleteQuality(ctx context.Context, id int64) (string, error) {
	return r.deleteLink(ctx, "quality_links", id)
}

func (r *PostgresRepository) ListQuality(ctx context.Context) ([]model.QualityLink, error) {
	query := `
		SELECT id, code, display_name, url_low, url_medium, url_high, views, ads_enabled, created_at
		FROM quality_links
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality links: %w", err)
	}
	defer rows.Close()

	var links []model.QualityLink
	for rows.Next() {
		link, err := scanQualityRow(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}

	return links, rows.Err()
}

// --- episode series ---

func (r *PostgresRepository) CreateEpisodeSeries(ctx context.Context, series *model.EpisodeSeries) error {
	episodes, err := json.Marshal(series.Episodes)
	if err != nil {
		return fmt.Errorf("failed to marshal episodes: %w", err)
	}

	query := `
		INSERT INTO episode_series (code, display_name, start_from, episodes, ads_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, views, created_at
	`

	err = r.pool.QueryRow(ctx, query,
		series.Code, series.DisplayName, series.StartFrom, episodes, series.AdsEnabled,
	).Scan(&series.ID, &series.Views, &series.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("failed to create episode series: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetEpisodeSeriesByCode(ctx context.Context, code string) (*model.EpisodeSeries, error) {
	query := `
		SELECT id, code, display_name, start_from, episodes, views, ads_enabled, created_at
		FROM episode_series
		WHERE code = $1
	`

	return scanSeriesRow(r.pool.QueryRow(ctx, query, code))
}

func (r *PostgresRepository) UpdateEpisodeSeries(ctx context.Context, id int64, upd model.UpdateEpisodesRequest) (*model.EpisodeSeries, error) {
	set := newSetBuilder()
	set.add("display_name", upd.DisplayName)
	set.add("start_from", upd.StartFrom)
	if upd.Episodes != nil {
		episodes, err := json.Marshal(model.EpisodesFromInputs(*upd.Episodes))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal episodes: %w", err)
		}
		set.add("episodes", episodes)
	}
	set.add("ads_enabled", upd.AdsEnabled)
	if set.empty() {
		return r.getEpisodeSeriesByID(ctx, id)
	}

	query := `UPDATE episode_series SET ` + set.clause() + ` WHERE id = ` + set.next() + `
		RETURNING id, code, display_name, start_from, episodes, views, ads_enabled, created_at`

	return scanSeriesRow(r.pool.QueryRow(ctx, query, set.withArg(id)...))
}

func (r *PostgresRepository) getEpisodeSeriesByID(ctx context.Context, id int64) (*model.EpisodeSeries, error) {
	query := `
		SELECT id, code, display_name, start_from, episodes, views, ads_enabled, created_at
		FROM episode_series
		WHERE id = $1
	`

	return scanSeriesRow(r.pool.QueryRow(ctx, query, id))
}

func scanSeriesRow(row pgx.Row) (*model.EpisodeSeries, error) {
	var series model.EpisodeSeries
	var episodes []byte
	err := row.Scan(
		&series.ID,
		&series.Code,
		&series.DisplayName,
		&series.StartFrom,
		&episodes,
		&series.Views,
		&series.AdsEnabled,
		&series.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to scan episode series: %w", err)
	}

	if err := json.Unmarshal(episodes, &series.Episodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal episodes: %w", err)
	}

	return &series, nil
}

func (r *PostgresRepository) DeleteEpisodeSeries(ctx context.Context, id int64) (string, error) {
	return r.deleteLink(ctx, "episode_series", id)
}

func (r *PostgresRepository) ListEpisodeSeries(ctx context.Context) ([]model.EpisodeSeries, error) {
	query := `
		SELECT id, code, display_name, start_from, episodes, views, ads_enabled, created_at
		FROM episode_series
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list episode series: %w", err)
	}
	defer rows.Close()

	var series []model.EpisodeSeries
	for rows.Next() {
		s, err := scanSeriesRow(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, *s)
	}

	return series, rows.Err()
}

// --- episode archives ---

func (r *PostgresRepository) CreateEpisodeRange(ctx context.Context, archive *model.EpisodeRange) error {
	query := `
		INSERT INTO episode_archives (code, display_name, from_episode, to_episode, url_low, url_medium, url_high, ads_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, views, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		archive.Code, archive.DisplayName,
		archive.FromEpisode, archive.ToEpisode,
		archive.Quality.Low, archive.Quality.Medium, archive.Quality.High,
		archive.AdsEnabled,
	).Scan(&archive.ID, &archive.Views, &archive.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("failed to create episode archive: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetEpisodeRangeByCode(ctx context.Context, code string) (*model.EpisodeRange, error) {
	query := `
		SELECT id, code, display_name, from_episode, to_episode, url_low, url_medium, url_high, views, ads_enabled, created_at
		FROM episode_archives
		WHERE code = $1
	`

	return scanArchiveRow(r.pool.QueryRow(ctx, query, code))
}

func (r *PostgresRepository) UpdateEpisodeRange(ctx context.Context, id int64, upd model.UpdateArchiveRequest) (*model.EpisodeRange, error) {
	set := newSetBuilder()
	set.add("display_name", upd.DisplayName)
	set.add("from_episode", upd.FromEpisode)
	set.add("to_episode", upd.ToEpisode)
	set.addNullable("url_low", upd.Low)
	set.addNullable("url_medium", upd.Medium)
	set.addNullable("url_high", upd.High)
	set.add("ads_enabled", upd.AdsEnabled)
	if set.empty() {
		return r.getEpisodeRangeByID(ctx, id)
	}

	query := `UPDATE episode_archives SET ` + set.clause() + ` WHERE id = ` + set.next() + `
		RETURNING id, code, display_name, from_episode, to_episode, url_low, url_medium, url_high, views, ads_enabled, created_at`

	return scanArchiveRow(r.pool.QueryRow(ctx, query, set.withArg(id)...))
}

func (r *PostgresRepository) getEpisodeRangeByID(ctx context.Context, id int64) (*model.EpisodeRange, error) {
	query := `
		SELECT id, code, display_name, from_episode, to_episode, url_low, url_medium, url_high, views, ads_enabled, created_at
		FROM episode_archives
		WHERE id = $1
	`

	return scanArchiveRow(r.pool.QueryRow(ctx, query, id))
}

func scanArchiveRow(row pgx.Row) (*model.EpisodeRange, error) {
	var archive model.EpisodeRange
	err := row.Scan(
		&archive.ID,
		&archive.Code,
		&archive.DisplayName,
		&archive.FromEpisode,
		&archive.ToEpisode,
		&archive.Quality.Low,
		&archive.Quality.Medium,
		&archive.Quality.High,
		&archive.Views,
		&archive.AdsEnabled,
		&archive.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to scan episode archive: %w", err)
	}

	return &archive, nil
}

func (r *PostgresRepository) DeleteEpisodeRange(ctx context.Context, id int64) (string, error) {
	return r.deleteLink(ctx, "episode_archives", id)
}

func (r *PostgresRepository) ListEpisodeRange(ctx context.Context) ([]model.EpisodeRange, error) {
	query := `
		SELECT id, code, display_name, from_episode, to_episode, url_low, url_medium, url_high, views, ads_enabled, created_at
		FROM episode_archives
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list episode archives: %w", err)
	}
	defer rows.Close()

	var archives []model.EpisodeRange
	for rows.Next() {
		a, err := scanArchiveRow(rows)
		if err != nil {
			return nil, err
		}
		archives = append(archives, *a)
	}

	return archives, rows.Err()
}

// deleteLink removes a row by id and reports the short code it owned so
// callers can invalidate the resolution cache.
func (r *PostgresRepository) deleteLink(ctx context.Context, table string, id int64) (string, error) {
	query := `DELETE FROM ` + table + ` WHERE id = $1 RETURNING code`

	var code string
	if err := r.pool.QueryRow(ctx, query, id).Scan(&code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return code, nil
}

// Health checks the database connection
func (r *PostgresRepository) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

