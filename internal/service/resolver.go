package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/repository"
)

// ErrLinkNotFound re-exports the store's miss so web callers render one
// generic "expired or missing" outcome without learning which kinds were
// probed.
var ErrLinkNotFound = repository.ErrLinkNotFound

// Resolve maps a short code to its owning record, decides whether this
// client may skip the ad timer, and counts the view. The probe order is
// fixed: single, quality, episode series, episode archive. Global code
// uniqueness means at most one probe can hit; the order only stabilizes
// diagnostics.
func (s *Service) Resolve(ctx context.Context, code, clientIP string) (*model.Resolution, error) {
	res, err := s.cache.GetResolution(ctx, code)
	if err != nil {
		log.Printf("cache get resolution failed: code=%s err=%v", code, err)
	}

	if res == nil {
		res, err = s.lookup(ctx, code)
		if err != nil {
			return nil, err
		}

		if err := s.cache.SetResolution(ctx, code, res); err != nil {
			log.Printf("cache set resolution failed: code=%s err=%v", code, err)
		}
	}

	// Ads disabled skips the gate unconditionally; the session table is
	// not consulted and not written.
	skip := !res.AdsEnabled
	if !skip {
		skip, err = s.store.HasActiveSession(ctx, clientIP, code, res.Kind)
		if err != nil {
			log.Printf("session check failed: code=%s ip=%s err=%v", code, clientIP, err)
			skip = false
		}
	}

	// Every successful resolve counts exactly one view, gate or no gate.
	s.countView(res.Kind, code)

	out := *res
	out.SkipTimer = skip
	if !skip {
		out.Countdown = s.countdownSeconds()
	}
	return &out, nil
}

func (s *Service) countdownSeconds() int {
	if s.cfg.Gate.CountdownSeconds > 0 {
		return s.cfg.Gate.CountdownSeconds
	}
	return 10
}

// lookup probes the four kinds in order and normalizes the hit.
func (s *Service) lookup(ctx context.Context, code string) (*model.Resolution, error) {
	single, err := s.store.GetSingleByCode(ctx, code)
	if err == nil {
		return &model.Resolution{
			Kind:        model.KindSingle,
			DisplayName: single.DisplayName,
			AdsEnabled:  single.AdsEnabled,
			TargetURL:   single.TargetURL,
		}, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, err
	}

	quality, err := s.store.GetQualityByCode(ctx, code)
	if err == nil {
		q := quality.Quality
		return &model.Resolution{
			Kind:        model.KindQuality,
			DisplayName: quality.DisplayName,
			AdsEnabled:  quality.AdsEnabled,
			Quality:     &q,
		}, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, err
	}

	series, err := s.store.GetEpisodeSeriesByCode(ctx, code)
	if err == nil {
		return &model.Resolution{
			Kind:        model.KindEpisodeSeries,
			DisplayName: series.DisplayName,
			AdsEnabled:  series.AdsEnabled,
			StartFrom:   series.StartFrom,
			Episodes:    series.Episodes,
		}, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, err
	}

	archive, err := s.store.GetEpisodeRangeByCode(ctx, code)
	if err == nil {
		q := archive.Quality
		return &model.Resolution{
			Kind:        model.KindEpisodeRange,
			DisplayName: archive.DisplayName,
			AdsEnabled:  archive.AdsEnabled,
			FromEpisode: archive.FromEpisode,
			ToEpisode:   archive.ToEpisode,
			Quality:     &q,
		}, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, err
	}

	return nil, ErrLinkNotFound
}

// countView records the view off the request path with a short budget;
// a failed count is logged and dropped rather than failing the resolve.
func (s *Service) countView(kind model.LinkKind, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := s.views.IncrementView(ctx, kind, code); err != nil {
		log.Printf("view count failed: kind=%s code=%s err=%v", kind, code, err)
	}
}
