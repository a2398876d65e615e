package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/service"
)

// HealthChecker pings one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Handler struct {
	service  *service.Service
	postgres HealthChecker
	redis    HealthChecker
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

// WithHealthChecks attaches dependency pings for the detailed probe.
func (h *Handler) WithHealthChecks(postgres, redis HealthChecker) *Handler {
	h.postgres = postgres
	h.redis = redis
	return h
}

func respondInternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": message,
	})
}

// kindFromParam maps a :kind path segment to its LinkKind.
func kindFromParam(c *gin.Context) (model.LinkKind, bool) {
	kind := model.LinkKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Unknown link kind",
		})
		return "", false
	}
	return kind, true
}

// Resolve handles GET /api/resolve/:code. A missing code of any kind
// returns the same generic 404.
func (h *Handler) Resolve(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Short code is required",
		})
		return
	}

	res, err := h.service.Resolve(c.Request.Context(), code, c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Link not found",
			})
			return
		}
		log.Printf("resolve failed: code=%s ip=%s err=%v", code, c.ClientIP(), err)
		respondInternalError(c, "Failed to resolve link")
		return
	}

	c.JSON(http.StatusOK, res)
}

// RecordAdView handles POST /api/ad-views. Clearing the gate twice for
// the same link just refreshes the session window.
func (h *Handler) RecordAdView(c *gin.Context) {
	var req model.RecordAdViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	if !req.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Unknown link kind",
		})
		return
	}

	if err := h.service.RecordAdCleared(c.Request.Context(), c.ClientIP(), req.Code, req.Kind); err != nil {
		log.Printf("record ad view failed: code=%s kind=%s ip=%s err=%v", req.Code, req.Kind, c.ClientIP(), err)
		respondInternalError(c, "Failed to record ad view")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "recorded",
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) HealthDetailed(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	body := gin.H{"status": "healthy"}

	for name, dep := range map[string]HealthChecker{
		"postgres": h.postgres,
		"redis":    h.redis,
	} {
		if dep == nil {
			continue
		}
		if err := dep.Health(ctx); err != nil {
			log.Printf("health check failed: dep=%s err=%v", name, err)
			body[name] = "error"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "connected"
	}

	c.JSON(status, body)
}
