package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviezone/linkgate/internal/model"
)

func TestCreateTokenGeneratesSecret(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.CreateToken(context.Background(), &model.CreateTokenRequest{
		Name:  "uploader",
		Scope: model.KindSingle,
	})
	require.NoError(t, err)

	assert.Len(t, token.Value, 64)
	assert.Regexp(t, "^[0-9a-f]+$", token.Value)
	assert.True(t, token.IsActive)
}

func TestAuthorize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.CreateToken(ctx, &model.CreateTokenRequest{
		Name:  "quality uploader",
		Scope: model.KindQuality,
	})
	require.NoError(t, err)

	t.Run("missing value", func(t *testing.T) {
		_, err := svc.Authorize(ctx, "", model.KindQuality)
		assert.ErrorIs(t, err, ErrTokenUnauthorized)
	})

	t.Run("unknown value", func(t *testing.T) {
		_, err := svc.Authorize(ctx, "deadbeef", model.KindQuality)
		assert.ErrorIs(t, err, ErrTokenUnauthorized)
	})

	t.Run("wrong scope is forbidden, not unauthorized", func(t *testing.T) {
		_, err := svc.Authorize(ctx, token.Value, model.KindSingle)
		assert.ErrorIs(t, err, ErrTokenForbidden)
		assert.NotErrorIs(t, err, ErrTokenUnauthorized)
	})

	t.Run("matching scope", func(t *testing.T) {
		got, err := svc.Authorize(ctx, token.Value, model.KindQuality)
		require.NoError(t, err)
		assert.Equal(t, token.ID, got.ID)
	})

	t.Run("use stamps last_used", func(t *testing.T) {
		tokens, err := svc.ListTokens(ctx)
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		assert.NotNil(t, tokens[0].LastUsedAt)
	})
}

func TestAuthorizeDeactivatedToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.CreateToken(ctx, &model.CreateTokenRequest{
		Name:  "revoked",
		Scope: model.KindEpisodeSeries,
	})
	require.NoError(t, err)

	_, err = svc.SetTokenActive(ctx, token.ID, false)
	require.NoError(t, err)

	_, err = svc.Authorize(ctx, token.Value, model.KindEpisodeSeries)
	assert.ErrorIs(t, err, ErrTokenUnauthorized)

	// Reactivation restores access
	_, err = svc.SetTokenActive(ctx, token.ID, true)
	require.NoError(t, err)

	_, err = svc.Authorize(ctx, token.Value, model.KindEpisodeSeries)
	assert.NoError(t, err)
}

func TestDeleteToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.CreateToken(ctx, &model.CreateTokenRequest{
		Name:  "ephemeral",
		Scope: model.KindEpisodeRange,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteToken(ctx, token.ID))

	_, err = svc.Authorize(ctx, token.Value, model.KindEpisodeRange)
	assert.ErrorIs(t, err, ErrTokenUnauthorized)
}
