package service

import (
	"context"
	"time"

	"github.com/moviezone/linkgate/internal/config"
	"github.com/moviezone/linkgate/internal/model"
)

// LinkStore is the CRUD surface over the four link record kinds. All four
// tables share one short-code namespace; CodeInUse probes every kind.
type LinkStore interface {
	CodeInUse(ctx context.Context, code string) (bool, error)
	IncrementViewsBy(ctx context.Context, kind model.LinkKind, code string, delta int64) error

	CreateSingle(ctx context.Context, link *model.SingleLink) error
	GetSingleByCode(ctx context.Context, code string) (*model.SingleLink, error)
	UpdateSingle(ctx context.Context, id int64, upd model.UpdateSingleRequest) (*model.SingleLink, error)
	DeleteSingle(ctx context.Context, id int64) (string, error)
	ListSingle(ctx context.Context) ([]model.SingleLink, error)

	CreateQuality(ctx context.Context, link *model.QualityLink) error
	GetQualityByCode(ctx context.Context, code string) (*model.QualityLink, error)
	UpdateQuality(ctx context.Context, id int64, upd model.UpdateQualityRequest) (*model.QualityLink, error)
	DeleteQuality(ctx context.Context, id int64) (string, error)
	ListQuality(ctx context.Context) ([]model.QualityLink, error)

	CreateEpisodeSeries(ctx context.Context, series *model.EpisodeSeries) error
	GetEpisodeSeriesByCode(ctx context.Context, code string) (*model.EpisodeSeries, error)
	UpdateEpisodeSeries(ctx context.Context, id int64, upd model.UpdateEpisodesRequest) (*model.EpisodeSeries, error)
	DeleteEpisodeSeries(ctx context.Context, id int64) (string, error)
	ListEpisodeSeries(ctx context.Context) ([]model.EpisodeSeries, error)

	CreateEpisodeRange(ctx context.Context, archive *model.EpisodeRange) error
	GetEpisodeRangeByCode(ctx context.Context, code string) (*model.EpisodeRange, error)
	UpdateEpisodeRange(ctx context.Context, id int64, upd model.UpdateArchiveRequest) (*model.EpisodeRange, error)
	DeleteEpisodeRange(ctx context.Context, id int64) (string, error)
	ListEpisodeRange(ctx context.Context) ([]model.EpisodeRange, error)
}

// SessionStore tracks which clients already cleared the ad gate for a
// code. At most one row exists per (ip, code, kind); RecordAdView must be
// an upsert.
type SessionStore interface {
	HasActiveSession(ctx context.Context, ip, code string, kind model.LinkKind) (bool, error)
	RecordAdView(ctx context.Context, ip, code string, kind model.LinkKind, ttl time.Duration) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// TokenStore persists the bearer credentials for creation endpoints.
type TokenStore interface {
	CreateToken(ctx context.Context, token *model.AccessToken) error
	GetActiveTokenByValue(ctx context.Context, value string) (*model.AccessToken, error)
	ListTokens(ctx context.Context) ([]model.AccessToken, error)
	SetTokenActive(ctx context.Context, id int64, active bool) (*model.AccessToken, error)
	DeleteToken(ctx context.Context, id int64) error
	TouchTokenLastUsed(ctx context.Context, value string) error
}

// Store is the full storage surface the engine consumes.
type Store interface {
	LinkStore
	SessionStore
	TokenStore
}

// ResolutionCache fronts the store for the hot resolve path. A nil,nil
// return is a cache miss.
type ResolutionCache interface {
	GetResolution(ctx context.Context, code string) (*model.Resolution, error)
	SetResolution(ctx context.Context, code string, res *model.Resolution) error
	InvalidateResolution(ctx context.Context, code string) error
}

// ViewCounter increments the per-record visit counter. Implementations
// must never lose concurrent increments.
type ViewCounter interface {
	IncrementView(ctx context.Context, kind model.LinkKind, code string) error
}

// Service implements short-link resolution and the ad-gate session engine.
type Service struct {
	store Store
	cache ResolutionCache
	views ViewCounter
	cfg   *config.Config
}

func NewService(store Store, cache ResolutionCache, views ViewCounter, cfg *config.Config) *Service {
	return &Service{
		store: store,
		cache: cache,
		views: views,
		cfg:   cfg,
	}
}
