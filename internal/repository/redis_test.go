package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moviezone/linkgate/internal/model"
)

func TestViewCountKeyRoundTrip(t *testing.T) {
	for _, kind := range model.Kinds {
		key := viewCountKey(kind, "abc123")
		gotKind, gotCode, ok := ParseViewCountKey(key)
		assert.True(t, ok, key)
		assert.Equal(t, kind, gotKind)
		assert.Equal(t, "abc123", gotCode)
	}
}

func TestParseViewCountKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{
		"",
		"views:",
		"views:single",
		"views:single:",
		"views:bogus:abc123",
		"link:abc123",
		"ratelimit:203.0.113.1",
	} {
		_, _, ok := ParseViewCountKey(key)
		assert.False(t, ok, key)
	}
}
