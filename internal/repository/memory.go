package repository

import (
	"context"
	"sync"
	"time"

	"github.com/moviezone/linkgate/internal/model"
)

// MemoryStore is an in-process implementation of the storage surface,
// used by tests and for running the service without its backing stores.
// A single mutex serializes every operation, which also makes the view
// counter increment atomic.
type MemoryStore struct {
	mu sync.Mutex

	// Now is injectable so session-expiry tests can travel in time.
	Now func() time.Time

	nextID   int64
	singles  map[int64]*model.SingleLink
	quality  map[int64]*model.QualityLink
	series   map[int64]*model.EpisodeSeries
	archives map[int64]*model.EpisodeRange

	sessions map[sessionKey]*model.AdViewSession
	tokens   map[int64]*model.AccessToken

	resolutions map[string]*model.Resolution
}

type sessionKey struct {
	ip   string
	code string
	kind model.LinkKind
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now:         time.Now,
		singles:     make(map[int64]*model.SingleLink),
		quality:     make(map[int64]*model.QualityLink),
		series:      make(map[int64]*model.EpisodeSeries),
		archives:    make(map[int64]*model.EpisodeRange),
		sessions:    make(map[sessionKey]*model.AdViewSession),
		tokens:      make(map[int64]*model.AccessToken),
		resolutions: make(map[string]*model.Resolution),
	}
}

func (m *MemoryStore) nextIDLocked() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) codeInUseLocked(code string) bool {
	for _, l := range m.singles {
		if l.Code == code {
			return true
		}
	}
	for _, l := range m.quality {
		if l.Code == code {
			return true
		}
	}
	for _, l := range m.series {
		if l.Code == code {
			return true
		}
	}
	for _, l := range m.archives {
		if l.Code == code {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CodeInUse(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codeInUseLocked(code), nil
}

// --- single links ---

func (m *MemoryStore) CreateSingle(_ context.Context, link *model.SingleLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codeInUseLocked(link.Code) {
		return ErrCodeTaken
	}

	link.ID = m.nextIDLocked()
	link.CreatedAt = m.Now()
	cp := *link
	m.singles[link.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSingleByCode(_ context.Context, code string) (*model.SingleLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.singles {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrLinkNotFound
}

func (m *MemoryStore) UpdateSingle(_ context.Context, id int64, upd model.UpdateSingleRequest) (*model.SingleLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.singles[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	if upd.DisplayName != nil {
		l.DisplayName = *upd.DisplayName
	}
	if upd.TargetURL != nil {
		l.TargetURL = *upd.TargetURL
	}
	if upd.AdsEnabled != nil {
		l.AdsEnabled = *upd.AdsEnabled
	}
	cp := *l
	return &cp, nil
}

func (m *MemoryStore) DeleteSingle(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.singles[id]
	if !ok {
		return "", ErrLinkNotFound
	}
	delete(m.singles, id)
	return l.Code, nil
}

func (m *MemoryStore) ListSingle(_ context.Context) ([]model.SingleLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	links := make([]model.SingleLink, 0, len(m.singles))
	for _, l := range m.singles {
		links = append(links, *l)
	}
	return links, nil
}

// --- quality links ---

func (m *MemoryStore) CreateQuality(_ context.Context, link *model.QualityLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codeInUseLocked(link.Code) {
		return ErrCodeTaken
	}

	link.ID = m.nextIDLocked()
	link.CreatedAt = m.Now()
	cp := *link
	m.quality[link.ID] = &cp
	return nil
}

func (m *MemoryStore) GetQualityByCode(_ context.Context, code string) (*model.QualityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.quality {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrLinkNotFound
}

func (m *MemoryStore) UpdateQuality(_ context.Context, id int64, upd model.UpdateQualityRequest) (*model.QualityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.quality[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	if upd.DisplayName != nil {
		l.DisplayName = *upd.DisplayName
	}
	applyTier(&l.Quality.Low, upd.Low)
	applyTier(&l.Quality.Medium, upd.Medium)
	applyTier(&l.Quality.High, upd.High)
	if upd.AdsEnabled != nil {
		l.AdsEnabled = *upd.AdsEnabled
	}
	cp := *l
	return &cp, nil
}

func (m *MemoryStore) DeleteQuality(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.quality[id]
	if !ok {
		return "", ErrLinkNotFound
	}
	delete(m.quality, id)
	return l.Code, nil
}

func (m *MemoryStore) ListQuality(_ context.Context) ([]model.QualityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	links := make([]model.QualityLink, 0, len(m.quality))
	for _, l := range m.quality {
		links = append(links, *l)
	}
	return links, nil
}

// --- episode series ---

func (m *MemoryStore) CreateEpisodeSeries(_ context.Context, series *model.EpisodeSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codeInUseLocked(series.Code) {
		return ErrCodeTaken
	}

	series.ID = m.nextIDLocked()
	series.CreatedAt = m.Now()
	cp := *series
	m.series[series.ID] = &cp
	return nil
}

func (m *MemoryStore) GetEpisodeSeriesByCode(_ context.Context, code string) (*model.EpisodeSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.series {
		if s.Code == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrLinkNotFound
}

func (m *MemoryStore) UpdateEpisodeSeries(_ context.Context, id int64, upd model.UpdateEpisodesRequest) (*model.EpisodeSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.series[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	if upd.DisplayName != nil {
		s.DisplayName = *upd.DisplayName
	}
	if upd.StartFrom != nil {
		s.StartFrom = *upd.StartFrom
	}
	if upd.Episodes != nil {
		s.Episodes = model.EpisodesFromInputs(*upd.Episodes)
	}
	if upd.AdsEnabled != nil {
		s.AdsEnabled = *upd.AdsEnabled
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) DeleteEpisodeSeries(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.series[id]
	if !ok {
		return "", ErrLinkNotFound
	}
	delete(m.series, id)
	return s.Code, nil
}

func (m *MemoryStore) ListEpisodeSeries(_ context.Context) ([]model.EpisodeSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	series := make([]model.EpisodeSeries, 0, len(m.series))
	for _, s := range m.series {
		series = append(series, *s)
	}
	return series, nil
}

// --- episode archives ---

func (m *MemoryStore) CreateEpisodeRange(_ context.Context, archive *model.EpisodeRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codeInUseLocked(archive.Code) {
		return ErrCodeTaken
	}

	archive.ID = m.nextIDLocked()
	archive.CreatedAt = m.Now()
	cp := *archive
	m.archives[archive.ID] = &cp
	return nil
}

func (m *MemoryStore) GetEpisodeRangeByCode(_ context.Context, code string) (*model.EpisodeRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.archives {
		if a.Code == code {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrLinkNotFound
}

func (m *MemoryStore) UpdateEpisodeRange(_ context.Context, id int64, upd model.UpdateArchiveRequest) (*model.EpisodeRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.archives[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	if upd.DisplayName != nil {
		a.DisplayName = *upd.DisplayName
	}
	if upd.FromEpisode != nil {
		a.FromEpisode = *upd.FromEpisode
	}
	if upd.ToEpisode != nil {
		a.ToEpisode = *upd.ToEpisode
	}
	applyTier(&a.Quality.Low, upd.Low)
	applyTier(&a.Quality.Medium, upd.Medium)
	applyTier(&a.Quality.High, upd.High)
	if upd.AdsEnabled != nil {
		a.AdsEnabled = *upd.AdsEnabled
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) DeleteEpisodeRange(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.archives[id]
	if !ok {
		return "", ErrLinkNotFound
	}
	delete(m.archives, id)
	return a.Code, nil
}

func (m *MemoryStore) ListEpisodeRange(_ context.Context) ([]model.EpisodeRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	archives := make([]model.EpisodeRange, 0, len(m.archives))
	for _, a := range m.archives {
		archives = append(archives, *a)
	}
	return archives, nil
}

// --- view counter ---

// IncrementView bumps the stored record directly; the mutex serializes
// concurrent increments so none are lost.
func (m *MemoryStore) IncrementView(ctx context.Context, kind model.LinkKind, code string) error {
	return m.IncrementViewsBy(ctx, kind, code, 1)
}

func (m *MemoryStore) IncrementViewsBy(_ context.Context, kind model.LinkKind, code string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case model.KindSingle:
		for _, l := range m.singles {
			if l.Code == code {
				l.Views += delta
				return nil
			}
		}
	case model.KindQuality:
		for _, l := range m.quality {
			if l.Code == code {
				l.Views += delta
				return nil
			}
		}
	case model.KindEpisodeSeries:
		for _, s := range m.series {
			if s.Code == code {
				s.Views += delta
				return nil
			}
		}
	case model.KindEpisodeRange:
		for _, a := range m.archives {
			if a.Code == code {
				a.Views += delta
				return nil
			}
		}
	}
	return ErrLinkNotFound
}

// --- ad-view sessions ---

func (m *MemoryStore) HasActiveSession(_ context.Context, ip, code string, kind model.LinkKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionKey{ip: ip, code: code, kind: kind}]
	if !ok {
		return false, nil
	}
	return s.Active(m.Now()), nil
}

func (m *MemoryStore) RecordAdView(_ context.Context, ip, code string, kind model.LinkKind, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey{ip: ip, code: code, kind: kind}
	now := m.Now()
	if s, ok := m.sessions[key]; ok {
		s.ViewedAt = now
		s.ExpiresAt = now.Add(ttl)
		return nil
	}
	m.sessions[key] = &model.AdViewSession{
		ID:        m.nextIDLocked(),
		IPAddress: ip,
		Code:      code,
		Kind:      kind,
		ViewedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

func (m *MemoryStore) PurgeExpiredSessions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	var purged int64
	for key, s := range m.sessions {
		if !s.Active(now) {
			delete(m.sessions, key)
			purged++
		}
	}
	return purged, nil
}

// SessionCount reports live rows, expired or not. Test helper.
func (m *MemoryStore) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// --- access tokens ---

func (m *MemoryStore) CreateToken(_ context.Context, token *model.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token.ID = m.nextIDLocked()
	token.CreatedAt = m.Now()
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *MemoryStore) GetActiveTokenByValue(_ context.Context, value string) (*model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tokens {
		if t.Value == value && t.IsActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTokenNotFound
}

func (m *MemoryStore) ListTokens(_ context.Context) ([]model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := make([]model.AccessToken, 0, len(m.tokens))
	for _, t := range m.tokens {
		tokens = append(tokens, *t)
	}
	return tokens, nil
}

func (m *MemoryStore) SetTokenActive(_ context.Context, id int64, active bool) (*model.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	t.IsActive = active
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) DeleteToken(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[id]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStore) TouchTokenLastUsed(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tokens {
		if t.Value == value {
			now := m.Now()
			t.LastUsedAt = &now
			return nil
		}
	}
	return nil
}

// --- resolution cache ---

func (m *MemoryStore) GetResolution(_ context.Context, code string) (*model.Resolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.resolutions[code]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (m *MemoryStore) SetResolution(_ context.Context, code string, res *model.Resolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *res
	m.resolutions[code] = &cp
	return nil
}

func (m *MemoryStore) InvalidateResolution(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.resolutions, code)
	return nil
}

// applyTier applies a three-state tier edit: nil leaves the tier alone,
// "" clears it, anything else replaces it.
func applyTier(dst **string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		*dst = nil
		return
	}
	s := *v
	*dst = &s
}
