package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/repository"
)

// CreateToken handles POST /api/tokens. The secret value is returned in
// this response and never again.
func (h *Handler) CreateToken(c *gin.Context) {
	var req model.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	if !req.Scope.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Unknown token scope",
		})
		return
	}

	token, err := h.service.CreateToken(c.Request.Context(), &req)
	if err != nil {
		log.Printf("create token failed: name=%s err=%v", req.Name, err)
		respondInternalError(c, "Failed to create token")
		return
	}

	c.JSON(http.StatusCreated, model.CreateTokenResponse{
		ID:       token.ID,
		Name:     token.Name,
		Value:    token.Value,
		Scope:    token.Scope,
		IsActive: token.IsActive,
	})
}

func (h *Handler) ListTokens(c *gin.Context) {
	tokens, err := h.service.ListTokens(c.Request.Context())
	if err != nil {
		log.Printf("list tokens failed: err=%v", err)
		respondInternalError(c, "Failed to list tokens")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// UpdateTokenStatus handles PATCH /api/tokens/:id/status.
func (h *Handler) UpdateTokenStatus(c *gin.Context) {
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var req model.UpdateTokenStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	token, err := h.service.SetTokenActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Token not found",
			})
			return
		}
		log.Printf("update token status failed: id=%d err=%v", id, err)
		respondInternalError(c, "Failed to update token")
		return
	}

	c.JSON(http.StatusOK, token)
}

func (h *Handler) DeleteToken(c *gin.Context) {
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteToken(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Token not found",
			})
			return
		}
		log.Printf("delete token failed: id=%d err=%v", id, err)
		respondInternalError(c, "Failed to delete token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
	})
}
