package model

// CreateSingleRequest is the body for creating a single-destination link.
type CreateSingleRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	TargetURL   string `json:"target_url" binding:"required,url"`
	AdsEnabled  *bool  `json:"ads_enabled,omitempty"`
}

// CreateQualityRequest is the body for creating a quality-tier link.
// At least one tier URL must be present.
type CreateQualityRequest struct {
	DisplayName string  `json:"display_name" binding:"required"`
	Low         *string `json:"low,omitempty" binding:"omitempty,url"`
	Medium      *string `json:"medium,omitempty" binding:"omitempty,url"`
	High        *string `json:"high,omitempty" binding:"omitempty,url"`
	AdsEnabled  *bool   `json:"ads_enabled,omitempty"`
}

// EpisodeInput is one episode entry in a series creation or edit.
type EpisodeInput struct {
	Number  int     `json:"number" binding:"required,min=1"`
	Low     *string `json:"low,omitempty" binding:"omitempty,url"`
	Medium  *string `json:"medium,omitempty" binding:"omitempty,url"`
	High    *string `json:"high,omitempty" binding:"omitempty,url"`
}

// CreateEpisodesRequest is the body for creating an episode series link.
type CreateEpisodesRequest struct {
	DisplayName string         `json:"display_name" binding:"required"`
	StartFrom   int            `json:"start_from" binding:"omitempty,min=1"`
	Episodes    []EpisodeInput `json:"episodes" binding:"required,min=1,dive"`
	AdsEnabled  *bool          `json:"ads_enabled,omitempty"`
}

// CreateArchiveRequest is the body for creating an episode-range archive
// link. The range is [from_episode, to_episode) and from must be below to.
type CreateArchiveRequest struct {
	DisplayName string  `json:"display_name" binding:"required"`
	FromEpisode int     `json:"from_episode" binding:"required,min=1"`
	ToEpisode   int     `json:"to_episode" binding:"required,min=1"`
	Low         *string `json:"low,omitempty" binding:"omitempty,url"`
	Medium      *string `json:"medium,omitempty" binding:"omitempty,url"`
	High        *string `json:"high,omitempty" binding:"omitempty,url"`
	AdsEnabled  *bool   `json:"ads_enabled,omitempty"`
}

// UpdateSingleRequest carries a partial edit; nil fields are untouched.
type UpdateSingleRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	TargetURL   *string `json:"target_url,omitempty" binding:"omitempty,url"`
	AdsEnabled  *bool   `json:"ads_enabled,omitempty"`
}

// UpdateQualityRequest carries a partial edit. A tier set to the empty
// string is cleared to null; clearing every tier is a valid state.
type UpdateQualityRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Low         *string `json:"low,omitempty"`
	Medium      *string `json:"medium,omitempty"`
	High        *string `json:"high,omitempty"`
	AdsEnabled  *bool   `json:"ads_enabled,omitempty"`
}

// UpdateEpisodesRequest carries a partial edit; the episode list, when
// present, replaces the stored list wholesale.
type UpdateEpisodesRequest struct {
	DisplayName *string         `json:"display_name,omitempty"`
	StartFrom   *int            `json:"start_from,omitempty" binding:"omitempty,min=1"`
	Episodes    *[]EpisodeInput `json:"episodes,omitempty" binding:"omitempty,min=1,dive"`
	AdsEnabled  *bool           `json:"ads_enabled,omitempty"`
}

// UpdateArchiveRequest carries a partial edit. Editing the range requires
// both bounds so the from < to invariant can be checked up front.
type UpdateArchiveRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	FromEpisode *int    `json:"from_episode,omitempty" binding:"omitempty,min=1"`
	ToEpisode   *int    `json:"to_episode,omitempty" binding:"omitempty,min=1"`
	Low         *string `json:"low,omitempty"`
	Medium      *string `json:"medium,omitempty"`
	High        *string `json:"high,omitempty"`
	AdsEnabled  *bool   `json:"ads_enabled,omitempty"`
}

// EpisodesFromInputs converts request episode entries to their stored form.
func EpisodesFromInputs(in []EpisodeInput) []Episode {
	episodes := make([]Episode, 0, len(in))
	for _, e := range in {
		episodes = append(episodes, Episode{
			Number: e.Number,
			Quality: QualityURLs{
				Low:    e.Low,
				Medium: e.Medium,
				High:   e.High,
			},
		})
	}
	return episodes
}

// CreateLinkResponse is returned by every creation endpoint.
type CreateLinkResponse struct {
	Code        string   `json:"code"`
	ShortURL    string   `json:"short_url"`
	Kind        LinkKind `json:"kind"`
	DisplayName string   `json:"display_name"`
	AdsEnabled  bool     `json:"ads_enabled"`
}

// RecordAdViewRequest is the body for recording a cleared ad gate.
type RecordAdViewRequest struct {
	Code string   `json:"code" binding:"required"`
	Kind LinkKind `json:"kind" binding:"required"`
}

// CreateTokenRequest is the body for minting an access token.
type CreateTokenRequest struct {
	Name  string   `json:"name" binding:"required"`
	Scope LinkKind `json:"scope" binding:"required"`
}

// CreateTokenResponse carries the secret exactly once, at creation.
type CreateTokenResponse struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Value     string   `json:"value"`
	Scope     LinkKind `json:"scope"`
	IsActive  bool     `json:"is_active"`
}

// UpdateTokenStatusRequest toggles a token's active flag.
type UpdateTokenStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
