package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviezone/linkgate/internal/model"
)

func TestAllocateCodeShape(t *testing.T) {
	svc, _ := newTestService(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := svc.AllocateCode(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, "^[0-9a-f]+$", code)
		seen[code] = true
	}

	// 100 draws from a 16^6 space should not collide in practice
	assert.Greater(t, len(seen), 95)
}

func TestAllocateCodeSkipsTakenCodes(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	taken, err := svc.AllocateCode(ctx)
	require.NoError(t, err)
	require.NoError(t, mem.CreateSingle(ctx, &model.SingleLink{
		Code:        taken,
		DisplayName: "occupied",
		TargetURL:   "https://example.com/a",
	}))

	for i := 0; i < 50; i++ {
		code, err := svc.AllocateCode(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, taken, code)
	}
}

func TestAllocateCodeExhaustsWhenNamespaceFull(t *testing.T) {
	svc, mem := newTestService(t)
	svc.cfg.Gate.CodeLength = 1
	ctx := context.Background()

	// Occupy the whole single-char hex namespace so every attempt collides
	for _, c := range "0123456789abcdef" {
		require.NoError(t, mem.CreateSingle(ctx, &model.SingleLink{
			Code:        string(c),
			DisplayName: "filler",
			TargetURL:   "https://example.com/filler",
		}))
	}

	_, err := svc.AllocateCode(ctx)
	require.ErrorIs(t, err, ErrAllocationExhausted)
}
