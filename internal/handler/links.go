package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/service"
)

func (h *Handler) respondCreateError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, service.ErrNoDestination):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "At least one destination URL is required",
		})
	case errors.Is(err, service.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "from_episode must be below to_episode",
		})
	case errors.Is(err, service.ErrAllocationExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "allocation_exhausted",
			"message": "Could not allocate a short code, please retry",
		})
	default:
		log.Printf("create %s failed: ip=%s err=%v", what, c.ClientIP(), err)
		respondInternalError(c, "Failed to create link")
	}
}

func (h *Handler) CreateSingle(c *gin.Context) {
	var req model.CreateSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	link, err := h.service.CreateSingle(c.Request.Context(), &req)
	if err != nil {
		h.respondCreateError(c, err, "single link")
		return
	}

	c.JSON(http.StatusCreated, model.CreateLinkResponse{
		Code:        link.Code,
		ShortURL:    h.service.ShortURL(link.Code),
		Kind:        model.KindSingle,
		DisplayName: link.DisplayName,
		AdsEnabled:  link.AdsEnabled,
	})
}

func (h *Handler) CreateQuality(c *gin.Context) {
	var req model.CreateQualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	link, err := h.service.CreateQuality(c.Request.Context(), &req)
	if err != nil {
		h.respondCreateError(c, err, "quality link")
		return
	}

	c.JSON(http.StatusCreated, model.CreateLinkResponse{
		Code:        link.Code,
		ShortURL:    h.service.ShortURL(link.Code),
		Kind:        model.KindQuality,
		DisplayName: link.DisplayName,
		AdsEnabled:  link.AdsEnabled,
	})
}

func (h *Handler) CreateEpisodeSeries(c *gin.Context) {
	var req model.CreateEpisodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	series, err := h.service.CreateEpisodeSeries(c.Request.Context(), &req)
	if err != nil {
		h.respondCreateError(c, err, "episode series")
		return
	}

	c.JSON(http.StatusCreated, model.CreateLinkResponse{
		Code:        series.Code,
		ShortURL:    h.service.ShortURL(series.Code),
		Kind:        model.KindEpisodeSeries,
		DisplayName: series.DisplayName,
		AdsEnabled:  series.AdsEnabled,
	})
}

func (h *Handler) CreateEpisodeRange(c *gin.Context) {
	var req model.CreateArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	archive, err := h.service.CreateEpisodeRange(c.Request.Context(), &req)
	if err != nil {
		h.respondCreateError(c, err, "episode archive")
		return
	}

	c.JSON(http.StatusCreated, model.CreateLinkResponse{
		Code:        archive.Code,
		ShortURL:    h.service.ShortURL(archive.Code),
		Kind:        model.KindEpisodeRange,
		DisplayName: archive.DisplayName,
		AdsEnabled:  archive.AdsEnabled,
	})
}

// ListLinks handles GET /api/links/:kind.
func (h *Handler) ListLinks(c *gin.Context) {
	kind, ok := kindFromParam(c)
	if !ok {
		return
	}

	var (
		links any
		err   error
	)
	ctx := c.Request.Context()
	switch kind {
	case model.KindSingle:
		links, err = h.service.ListSingle(ctx)
	case model.KindQuality:
		links, err = h.service.ListQuality(ctx)
	case model.KindEpisodeSeries:
		links, err = h.service.ListEpisodeSeries(ctx)
	case model.KindEpisodeRange:
		links, err = h.service.ListEpisodeRange(ctx)
	}
	if err != nil {
		log.Printf("list links failed: kind=%s err=%v", kind, err)
		respondInternalError(c, "Failed to list links")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":  kind,
		"links": links,
	})
}

// UpdateLink handles PATCH /api/links/:kind/:id with a kind-specific body.
func (h *Handler) UpdateLink(c *gin.Context) {
	kind, ok := kindFromParam(c)
	if !ok {
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var (
		updated any
		err     error
	)
	ctx := c.Request.Context()
	switch kind {
	case model.KindSingle:
		var upd model.UpdateSingleRequest
		if !bindUpdate(c, &upd) {
			return
		}
		updated, err = h.service.UpdateSingle(ctx, id, &upd)
	case model.KindQuality:
		var upd model.UpdateQualityRequest
		if !bindUpdate(c, &upd) {
			return
		}
		updated, err = h.service.UpdateQuality(ctx, id, &upd)
	case model.KindEpisodeSeries:
		var upd model.UpdateEpisodesRequest
		if !bindUpdate(c, &upd) {
			return
		}
		updated, err = h.service.UpdateEpisodeSeries(ctx, id, &upd)
	case model.KindEpisodeRange:
		var upd model.UpdateArchiveRequest
		if !bindUpdate(c, &upd) {
			return
		}
		updated, err = h.service.UpdateEpisodeRange(ctx, id, &upd)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Link not found",
			})
		case errors.Is(err, service.ErrInvalidRange):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "from_episode must be below to_episode, and range edits need both bounds",
			})
		case errors.Is(err, service.ErrNoDestination):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "At least one destination URL is required",
			})
		default:
			log.Printf("update link failed: kind=%s id=%d err=%v", kind, id, err)
			respondInternalError(c, "Failed to update link")
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteLink handles DELETE /api/links/:kind/:id.
func (h *Handler) DeleteLink(c *gin.Context) {
	kind, ok := kindFromParam(c)
	if !ok {
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteLink(c.Request.Context(), kind, id); err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Link not found",
			})
			return
		}
		log.Printf("delete link failed: kind=%s id=%d err=%v", kind, id, err)
		respondInternalError(c, "Failed to delete link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
	})
}

func idFromParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid link id",
		})
		return 0, false
	}
	return id, true
}

func bindUpdate(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}
