package model

import (
	"time"
)

// LinkKind discriminates the four record kinds sharing the short-code namespace.
type LinkKind string

const (
	KindSingle        LinkKind = "single"
	KindQuality       LinkKind = "quality"
	KindEpisodeSeries LinkKind = "episodes"
	KindEpisodeRange  LinkKind = "archive"
)

// Kinds lists every link kind in resolution probe order.
var Kinds = []LinkKind{KindSingle, KindQuality, KindEpisodeSeries, KindEpisodeRange}

// Valid reports whether k is one of the four known kinds.
func (k LinkKind) Valid() bool {
	switch k {
	case KindSingle, KindQuality, KindEpisodeSeries, KindEpisodeRange:
		return true
	}
	return false
}

// QualityURLs holds up to three optional destination URLs keyed by tier.
// A nil field means that tier is unavailable.
type QualityURLs struct {
	Low    *string `json:"low,omitempty"`
	Medium *string `json:"medium,omitempty"`
	High   *string `json:"high,omitempty"`
}

// HasAny reports whether at least one tier has a non-empty URL.
func (q QualityURLs) HasAny() bool {
	for _, u := range []*string{q.Low, q.Medium, q.High} {
		if u != nil && *u != "" {
			return true
		}
	}
	return false
}

// SingleLink points a short code at one destination URL.
type SingleLink struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
	TargetURL   string    `json:"target_url"`
	Views       int64     `json:"views"`
	AdsEnabled  bool      `json:"ads_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// QualityLink points a short code at up to three quality-tier URLs.
// All tiers may be cleared by an edit; the record then renders as
// unavailable rather than erroring.
type QualityLink struct {
	ID          int64       `json:"id"`
	Code        string      `json:"code"`
	DisplayName string      `json:"display_name"`
	Quality     QualityURLs `json:"quality"`
	Views       int64       `json:"views"`
	AdsEnabled  bool        `json:"ads_enabled"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Episode is one entry of an EpisodeSeries.
type Episode struct {
	Number  int         `json:"number"`
	Quality QualityURLs `json:"quality"`
}

// EpisodeSeries points a short code at an ordered per-episode list.
// Episodes are edited wholesale and are not individually addressable.
type EpisodeSeries struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
	StartFrom   int       `json:"start_from"`
	Episodes    []Episode `json:"episodes"`
	Views       int64     `json:"views"`
	AdsEnabled  bool      `json:"ads_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// EpisodeRange points a short code at an archive covering episodes
// [FromEpisode, ToEpisode). FromEpisode < ToEpisode always holds for
// stored records.
type EpisodeRange struct {
	ID          int64       `json:"id"`
	Code        string      `json:"code"`
	DisplayName string      `json:"display_name"`
	FromEpisode int         `json:"from_episode"`
	ToEpisode   int         `json:"to_episode"`
	Quality     QualityURLs `json:"quality"`
	Views       int64       `json:"views"`
	AdsEnabled  bool        `json:"ads_enabled"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Resolution is the normalized outcome of resolving a short code.
// Exactly one kind-specific payload group is populated.
type Resolution struct {
	Kind        LinkKind     `json:"kind"`
	DisplayName string       `json:"display_name"`
	AdsEnabled  bool         `json:"ads_enabled"`
	SkipTimer   bool         `json:"skip_timer"`
	Countdown   int          `json:"countdown_seconds,omitempty"`
	TargetURL   string       `json:"target_url,omitempty"`
	Quality     *QualityURLs `json:"quality,omitempty"`
	StartFrom   int          `json:"start_from,omitempty"`
	Episodes    []Episode    `json:"episodes,omitempty"`
	FromEpisode int          `json:"from_episode,omitempty"`
	ToEpisode   int          `json:"to_episode,omitempty"`
}
