package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviezone/linkgate/internal/model"
)

func TestResolveUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), "nosuch", "203.0.113.1")
	require.ErrorIs(t, err, ErrLinkNotFound)
}

func TestResolveNormalizesEachKind(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ip := "203.0.113.2"

	single, err := svc.CreateSingle(ctx, &model.CreateSingleRequest{
		DisplayName: "Feature Film",
		TargetURL:   "https://cdn.example.com/film.mp4",
	})
	require.NoError(t, err)

	quality, err := svc.CreateQuality(ctx, &model.CreateQualityRequest{
		DisplayName: "Tiered Film",
		Low:         strPtr("https://cdn.example.com/film-480p.mp4"),
		High:        strPtr("https://cdn.example.com/film-1080p.mp4"),
	})
	require.NoError(t, err)

	series, err := svc.CreateEpisodeSeries(ctx, &model.CreateEpisodesRequest{
		DisplayName: "Season 2",
		StartFrom:   13,
		Episodes: []model.EpisodeInput{
			{Number: 13, Medium: strPtr("https://cdn.example.com/s2e13.mp4")},
			{Number: 14, Medium: strPtr("https://cdn.example.com/s2e14.mp4")},
		},
	})
	require.NoError(t, err)

	archive, err := svc.CreateEpisodeRange(ctx, &model.CreateArchiveRequest{
		DisplayName: "Season 2 Pack",
		FromEpisode: 13,
		ToEpisode:   25,
		High:        strPtr("https://cdn.example.com/s2.zip"),
	})
	require.NoError(t, err)

	res, err := svc.Resolve(ctx, single.Code, ip)
	require.NoError(t, err)
	assert.Equal(t, model.KindSingle, res.Kind)
	assert.Equal(t, "https://cdn.example.com/film.mp4", res.TargetURL)
	assert.Nil(t, res.Quality)

	res, err = svc.Resolve(ctx, quality.Code, ip)
	require.NoError(t, err)
	assert.Equal(t, model.KindQuality, res.Kind)
	require.NotNil(t, res.Quality)
	assert.NotNil(t, res.Quality.Low)
	assert.Nil(t, res.Quality.Medium)

	res, err = svc.Resolve(ctx, series.Code, ip)
	require.NoError(t, err)
	assert.Equal(t, model.KindEpisodeSeries, res.Kind)
	assert.Equal(t, 13, res.StartFrom)
	assert.Len(t, res.Episodes, 2)

	res, err = svc.Resolve(ctx, archive.Code, ip)
	require.NoError(t, err)
	assert.Equal(t, model.KindEpisodeRange, res.Kind)
	assert.Equal(t, 13, res.FromEpisode)
	assert.Equal(t, 25, res.ToEpisode)
}

func TestResolveSkipTimerLifecycle(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	ip := "203.0.113.3"

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }

	link, err := svc.CreateSingle(ctx, &model.CreateSingleRequest{
		DisplayName: "Gated",
		TargetURL:   "https://cdn.example.com/gated.mp4",
	})
	require.NoError(t, err)

	res, err := svc.Resolve(ctx, link.Code, ip)
	require.NoError(t, err)
	assert.False(t, res.SkipTimer, "no session yet")
	assert.Equal(t, 10, res.Countdown, "gated resolves carry the timer length")

	require.NoError(t, svc.RecordAdCleared(ctx, ip, link.Code, model.KindSingle))

	res, err = svc.Resolve(ctx, link.Code, ip)
	require.NoError(t, err)
	assert.True(t, res.SkipTimer, "inside the session window")
	assert.Zero(t, res.Countdown)

	// Another client gets no free pass
	res, err = svc.Resolve(ctx, link.Code, "203.0.113.4")
	require.NoError(t, err)
	assert.False(t, res.SkipTimer)

	// The window closes at exactly viewed_at + TTL
	now = now.Add(5 * time.Minute)
	res, err = svc.Resolve(ctx, link.Code, ip)
	require.NoError(t, err)
	assert.False(t, res.SkipTimer, "session expired")
}

func TestResolveAdsDisabledBypassesGate(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	link, err := svc.CreateSingle(ctx, &model.CreateSingleRequest{
		DisplayName: "Ad Free",
		TargetURL:   "https://cdn.example.com/adfree.mp4",
		AdsEnabled:  boolPtr(false),
	})
	require.NoError(t, err)

	res, err := svc.Resolve(ctx, link.Code, "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, res.SkipTimer)
	assert.Equal(t, 0, mem.SessionCount(), "gate bypass touches no sessions")

	// The view still counts
	got, err := mem.GetSingleByCode(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
}

func TestResolveServesFromCache(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	ip := "203.0.113.6"

	link, err := svc.CreateSingle(ctx, &model.CreateSingleRequest{
		DisplayName: "Cached",
		TargetURL:   "https://cdn.example.com/cached.mp4",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, link.Code, ip)
	require.NoError(t, err)

	cached, err := mem.GetResolution(ctx, link.Code)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Cached", cached.DisplayName)
	assert.False(t, cached.SkipTimer, "skip flag is per-client, never cached")
}
