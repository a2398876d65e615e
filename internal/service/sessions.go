package service

import (
	"context"
	"time"

	"github.com/moviezone/linkgate/internal/model"
)

// RecordAdCleared marks that a client finished the countdown for a code,
// so repeat visits inside the session window skip the timer. The store
// upserts; calling this twice refreshes the one existing row.
func (s *Service) RecordAdCleared(ctx context.Context, clientIP, code string, kind model.LinkKind) error {
	return s.store.RecordAdView(ctx, clientIP, code, kind, s.sessionTTL())
}

// HasActiveSession reports whether the client cleared the gate for this
// code recently. Exposed for the web layer's gate rendering.
func (s *Service) HasActiveSession(ctx context.Context, clientIP, code string, kind model.LinkKind) (bool, error) {
	return s.store.HasActiveSession(ctx, clientIP, code, kind)
}

func (s *Service) sessionTTL() time.Duration {
	if s.cfg.Gate.SessionTTL > 0 {
		return s.cfg.Gate.SessionTTL
	}
	return 5 * time.Minute
}
