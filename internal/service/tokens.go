package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/repository"
)

var (
	// ErrTokenUnauthorized covers both a missing credential and a
	// deactivated one; the two are deliberately indistinguishable.
	ErrTokenUnauthorized = errors.New("token missing or inactive")

	// ErrTokenForbidden means the credential is live but scoped to a
	// different link kind than the endpoint requires.
	ErrTokenForbidden = errors.New("token scope does not cover this link kind")
)

// Authorize validates a bearer credential against the required scope and
// stamps its last-used time. The stamp is best-effort bookkeeping; its
// failure never fails the request.
func (s *Service) Authorize(ctx context.Context, value string, required model.LinkKind) (*model.AccessToken, error) {
	if value == "" {
		return nil, ErrTokenUnauthorized
	}

	token, err := s.store.GetActiveTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrTokenUnauthorized
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if token.Scope != required {
		return nil, ErrTokenForbidden
	}

	if err := s.store.TouchTokenLastUsed(ctx, value); err != nil {
		log.Printf("token last-used update failed: name=%s err=%v", token.Name, err)
	}

	return token, nil
}

// CreateToken mints a scoped token with a server-generated secret. The
// secret leaves the service exactly once, in this return value.
func (s *Service) CreateToken(ctx context.Context, req *model.CreateTokenRequest) (*model.AccessToken, error) {
	value, err := randomTokenValue()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token value: %w", err)
	}

	token := &model.AccessToken{
		Name:     req.Name,
		Value:    value,
		Scope:    req.Scope,
		IsActive: true,
	}

	if err := s.store.CreateToken(ctx, token); err != nil {
		return nil, err
	}

	return token, nil
}

func (s *Service) ListTokens(ctx context.Context) ([]model.AccessToken, error) {
	return s.store.ListTokens(ctx)
}

func (s *Service) SetTokenActive(ctx context.Context, id int64, active bool) (*model.AccessToken, error) {
	return s.store.SetTokenActive(ctx, id, active)
}

func (s *Service) DeleteToken(ctx context.Context, id int64) error {
	return s.store.DeleteToken(ctx, id)
}

func randomTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
