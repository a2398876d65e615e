package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/repository"
)

var (
	// ErrInvalidRange rejects an episode archive whose range [from, to)
	// is empty or inverted. Nothing is persisted.
	ErrInvalidRange = errors.New("from_episode must be below to_episode")

	// ErrNoDestination rejects a creation carrying zero destination URLs.
	// Edits may still clear every URL later; only creation requires one.
	ErrNoDestination = errors.New("at least one destination url is required")
)

// createWithRetry allocates a code and runs the kind-specific insert.
// Losing the check-then-insert race surfaces as a uniqueness violation
// from the store; that costs exactly one full retry with a fresh code.
func (s *Service) createWithRetry(ctx context.Context, insert func(code string) error) (string, error) {
	code, err := s.AllocateCode(ctx)
	if err != nil {
		return "", err
	}

	if err := insert(code); err == nil {
		return code, nil
	} else if !errors.Is(err, repository.ErrCodeTaken) {
		return "", err
	}

	log.Printf("short code collided at insert, retrying once: code=%s", code)

	code, err = s.AllocateCode(ctx)
	if err != nil {
		return "", err
	}
	if err := insert(code); err != nil {
		return "", fmt.Errorf("failed to create link after retry: %w", err)
	}

	return code, nil
}

func (s *Service) CreateSingle(ctx context.Context, req *model.CreateSingleRequest) (*model.SingleLink, error) {
	link := &model.SingleLink{
		DisplayName: req.DisplayName,
		TargetURL:   req.TargetURL,
		AdsEnabled:  boolOr(req.AdsEnabled, true),
	}

	_, err := s.createWithRetry(ctx, func(code string) error {
		link.Code = code
		return s.store.CreateSingle(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	return link, nil
}

func (s *Service) CreateQuality(ctx context.Context, req *model.CreateQualityRequest) (*model.QualityLink, error) {
	quality := model.QualityURLs{Low: req.Low, Medium: req.Medium, High: req.High}
	if !quality.HasAny() {
		return nil, ErrNoDestination
	}

	link := &model.QualityLink{
		DisplayName: req.DisplayName,
		Quality:     quality,
		AdsEnabled:  boolOr(req.AdsEnabled, true),
	}

	_, err := s.createWithRetry(ctx, func(code string) error {
		link.Code = code
		return s.store.CreateQuality(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	return link, nil
}

func (s *Service) CreateEpisodeSeries(ctx context.Context, req *model.CreateEpisodesRequest) (*model.EpisodeSeries, error) {
	episodes := model.EpisodesFromInputs(req.Episodes)
	for _, ep := range episodes {
		if !ep.Quality.HasAny() {
			return nil, fmt.Errorf("episode %d: %w", ep.Number, ErrNoDestination)
		}
	}

	startFrom := req.StartFrom
	if startFrom <= 0 {
		startFrom = 1
	}

	series := &model.EpisodeSeries{
		DisplayName: req.DisplayName,
		StartFrom:   startFrom,
		Episodes:    episodes,
		AdsEnabled:  boolOr(req.AdsEnabled, true),
	}

	_, err := s.createWithRetry(ctx, func(code string) error {
		series.Code = code
		return s.store.CreateEpisodeSeries(ctx, series)
	})
	if err != nil {
		return nil, err
	}

	return series, nil
}

func (s *Service) CreateEpisodeRange(ctx context.Context, req *model.CreateArchiveRequest) (*model.EpisodeRange, error) {
	if req.FromEpisode >= req.ToEpisode {
		return nil, ErrInvalidRange
	}

	quality := model.QualityURLs{Low: req.Low, Medium: req.Medium, High: req.High}
	if !quality.HasAny() {
		return nil, ErrNoDestination
	}

	archive := &model.EpisodeRange{
		DisplayName: req.DisplayName,
		FromEpisode: req.FromEpisode,
		ToEpisode:   req.ToEpisode,
		Quality:     quality,
		AdsEnabled:  boolOr(req.AdsEnabled, true),
	}

	_, err := s.createWithRetry(ctx, func(code string) error {
		archive.Code = code
		return s.store.CreateEpisodeRange(ctx, archive)
	})
	if err != nil {
		return nil, err
	}

	return archive, nil
}

func (s *Service) UpdateSingle(ctx context.Context, id int64, upd *model.UpdateSingleRequest) (*model.SingleLink, error) {
	link, err := s.store.UpdateSingle(ctx, id, *upd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, link.Code)
	return link, nil
}

func (s *Service) UpdateQuality(ctx context.Context, id int64, upd *model.UpdateQualityRequest) (*model.QualityLink, error) {
	link, err := s.store.UpdateQuality(ctx, id, *upd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, link.Code)
	return link, nil
}

func (s *Service) UpdateEpisodeSeries(ctx context.Context, id int64, upd *model.UpdateEpisodesRequest) (*model.EpisodeSeries, error) {
	if upd.Episodes != nil {
		for _, ep := range *upd.Episodes {
			if !(model.QualityURLs{Low: ep.Low, Medium: ep.Medium, High: ep.High}).HasAny() {
				return nil, fmt.Errorf("episode %d: %w", ep.Number, ErrNoDestination)
			}
		}
	}

	series, err := s.store.UpdateEpisodeSeries(ctx, id, *upd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, series.Code)
	return series, nil
}

func (s *Service) UpdateEpisodeRange(ctx context.Context, id int64, upd *model.UpdateArchiveRequest) (*model.EpisodeRange, error) {
	// Range edits carry both bounds so the invariant checks up front.
	if (upd.FromEpisode == nil) != (upd.ToEpisode == nil) {
		return nil, ErrInvalidRange
	}
	if upd.FromEpisode != nil && *upd.FromEpisode >= *upd.ToEpisode {
		return nil, ErrInvalidRange
	}

	archive, err := s.store.UpdateEpisodeRange(ctx, id, *upd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, archive.Code)
	return archive, nil
}

func (s *Service) DeleteLink(ctx context.Context, kind model.LinkKind, id int64) error {
	var (
		code string
		err  error
	)

	switch kind {
	case model.KindSingle:
		code, err = s.store.DeleteSingle(ctx, id)
	case model.KindQuality:
		code, err = s.store.DeleteQuality(ctx, id)
	case model.KindEpisodeSeries:
		code, err = s.store.DeleteEpisodeSeries(ctx, id)
	case model.KindEpisodeRange:
		code, err = s.store.DeleteEpisodeRange(ctx, id)
	default:
		return repository.ErrLinkNotFound
	}
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)
	return nil
}

func (s *Service) ListSingle(ctx context.Context) ([]model.SingleLink, error) {
	return s.store.ListSingle(ctx)
}

func (s *Service) ListQuality(ctx context.Context) ([]model.QualityLink, error) {
	return s.store.ListQuality(ctx)
}

func (s *Service) ListEpisodeSeries(ctx context.Context) ([]model.EpisodeSeries, error) {
	return s.store.ListEpisodeSeries(ctx)
}

func (s *Service) ListEpisodeRange(ctx context.Context) ([]model.EpisodeRange, error) {
	return s.store.ListEpisodeRange(ctx)
}

// ShortURL renders the public URL for a code.
func (s *Service) ShortURL(code string) string {
	return s.cfg.App.BaseURL + "/" + code
}

// invalidate drops the cached resolution for a code. A stale delete is
// only a UX wrinkle, so failures are logged and ignored.
func (s *Service) invalidate(ctx context.Context, code string) {
	if err := s.cache.InvalidateResolution(ctx, code); err != nil {
		log.Printf("cache invalidate failed: code=%s err=%v", code, err)
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
