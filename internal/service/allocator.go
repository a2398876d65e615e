package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrAllocationExhausted means the allocator burned its whole retry budget
// without finding a free code. Surfaced to creation callers as a retryable
// server error, never as a possibly-colliding code.
var ErrAllocationExhausted = errors.New("short code allocation exhausted")

// AllocateCode generates a random hex short code and verifies it is unused
// across all four link kinds, retrying on collision up to the configured
// attempt budget. The check and the eventual insert are not atomic; the
// store's uniqueness constraint backstops the race and the creation path
// retries once on that signal.
func (s *Service) AllocateCode(ctx context.Context) (string, error) {
	attempts := s.cfg.Gate.AllocAttempts
	if attempts <= 0 {
		attempts = 10
	}

	for i := 0; i < attempts; i++ {
		code, err := randomCode(s.cfg.Gate.CodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}

		inUse, err := s.store.CodeInUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}

	return "", ErrAllocationExhausted
}

// randomCode returns length lowercase hex characters from crypto/rand.
func randomCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf)[:length], nil
}
