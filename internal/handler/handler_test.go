package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviezone/linkgate/internal/config"
	"github.com/moviezone/linkgate/internal/middleware"
	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/repository"
	"github.com/moviezone/linkgate/internal/service"
)

const (
	adminUser = "admin"
	adminPass = "secret"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.Service, *repository.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{BaseURL: "http://sho.rt"},
		Gate: config.GateConfig{
			CodeLength:    6,
			AllocAttempts: 10,
			SessionTTL:    5 * time.Minute,
		},
	}

	mem := repository.NewMemoryStore()
	svc := service.NewService(mem, mem, mem, cfg)
	h := NewHandler(svc)

	router := gin.New()
	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.GET("/resolve/:code", h.Resolve)
	api.POST("/ad-views", h.RecordAdView)

	api.POST("/links/single", middleware.TokenAuth(svc, model.KindSingle), h.CreateSingle)
	api.POST("/links/quality", middleware.TokenAuth(svc, model.KindQuality), h.CreateQuality)
	api.POST("/links/episodes", middleware.TokenAuth(svc, model.KindEpisodeSeries), h.CreateEpisodeSeries)
	api.POST("/links/archive", middleware.TokenAuth(svc, model.KindEpisodeRange), h.CreateEpisodeRange)

	admin := api.Group("", gin.BasicAuth(gin.Accounts{adminUser: adminPass}))
	admin.GET("/links/:kind", h.ListLinks)
	admin.PATCH("/links/:kind/:id", h.UpdateLink)
	admin.DELETE("/links/:kind/:id", h.DeleteLink)
	admin.POST("/tokens", h.CreateToken)
	admin.GET("/tokens", h.ListTokens)
	admin.PATCH("/tokens/:id/status", h.UpdateTokenStatus)
	admin.DELETE("/tokens/:id", h.DeleteToken)

	return router, svc, mem
}

func doJSON(router *gin.Engine, method, path string, body any, decorate func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.50:40000"
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func withBearer(value string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+value)
	}
}

func withBasicAuth(req *http.Request) {
	req.SetBasicAuth(adminUser, adminPass)
}

func TestResolveNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/resolve/nosuch", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSingleTokenGate(t *testing.T) {
	router, svc, _ := newTestRouter(t)

	body := model.CreateSingleRequest{
		DisplayName: "Gate Check",
		TargetURL:   "https://cdn.example.com/gate.mp4",
	}

	w := doJSON(router, http.MethodPost, "/api/links/single", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no token")

	wrongScope, err := svc.CreateToken(context.Background(), &model.CreateTokenRequest{
		Name:  "quality only",
		Scope: model.KindQuality,
	})
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/api/links/single", body, withBearer(wrongScope.Value))
	assert.Equal(t, http.StatusForbidden, w.Code, "wrong scope")

	token, err := svc.CreateToken(context.Background(), &model.CreateTokenRequest{
		Name:  "single uploader",
		Scope: model.KindSingle,
	})
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/api/links/single", body, withBearer(token.Value))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp model.CreateLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Code, 6)
	assert.Equal(t, "http://sho.rt/"+resp.Code, resp.ShortURL)
	assert.Equal(t, model.KindSingle, resp.Kind)
}

func TestCreateArchiveRejectsBadRange(t *testing.T) {
	router, svc, _ := newTestRouter(t)

	token, err := svc.CreateToken(context.Background(), &model.CreateTokenRequest{
		Name:  "archive uploader",
		Scope: model.KindEpisodeRange,
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, "/api/links/archive", model.CreateArchiveRequest{
		DisplayName: "Inverted",
		FromEpisode: 8,
		ToEpisode:   3,
		Low:         strPtr("https://cdn.example.com/bad.zip"),
	}, withBearer(token.Value))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdViewFlow(t *testing.T) {
	router, svc, _ := newTestRouter(t)

	link, err := svc.CreateSingle(context.Background(), &model.CreateSingleRequest{
		DisplayName: "Gated Film",
		TargetURL:   "https://cdn.example.com/gated.mp4",
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, "/api/resolve/"+link.Code, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res model.Resolution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.SkipTimer)

	w = doJSON(router, http.MethodPost, "/api/ad-views", model.RecordAdViewRequest{
		Code: link.Code,
		Kind: model.KindSingle,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/resolve/"+link.Code, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.SkipTimer, "same client inside the session window")
}

func TestRecordAdViewRejectsUnknownKind(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/ad-views", map[string]string{
		"code": "abc123",
		"kind": "bogus",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRequiresBasicAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/links/single", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/api/links/single", nil, withBasicAuth)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminListRejectsUnknownKind(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/links/bogus", nil, withBasicAuth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenAdmin(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/tokens", model.CreateTokenRequest{
		Name:  "uploader",
		Scope: model.KindSingle,
	}, withBasicAuth)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.CreateTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Len(t, created.Value, 64, "secret returned once at creation")

	// The listing never echoes secrets
	w = doJSON(router, http.MethodGet, "/api/tokens", nil, withBasicAuth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), created.Value)

	w = doJSON(router, http.MethodPatch, "/api/tokens/1/status", model.UpdateTokenStatusRequest{
		IsActive: boolPtr(false),
	}, withBasicAuth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/tokens/1", nil, withBasicAuth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/tokens/1", nil, withBasicAuth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestLinkLifecycle walks create, resolve, ad clear, edit and delete end
// to end through the HTTP surface.
func TestLinkLifecycle(t *testing.T) {
	router, svc, mem := newTestRouter(t)

	token, err := svc.CreateToken(context.Background(), &model.CreateTokenRequest{
		Name:  "uploader",
		Scope: model.KindQuality,
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, "/api/links/quality", model.CreateQualityRequest{
		DisplayName: "Lifecycle Film",
		Low:         strPtr("https://cdn.example.com/film-480p.mp4"),
		High:        strPtr("https://cdn.example.com/film-1080p.mp4"),
	}, withBearer(token.Value))
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.CreateLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	stored, err := mem.GetQualityByCode(context.Background(), created.Code)
	require.NoError(t, err)
	linkPath := "/api/links/quality/" + strconv.FormatInt(stored.ID, 10)

	w = doJSON(router, http.MethodPost, "/api/ad-views", model.RecordAdViewRequest{
		Code: created.Code,
		Kind: model.KindQuality,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/resolve/"+created.Code, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res model.Resolution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.SkipTimer)
	require.NotNil(t, res.Quality)
	assert.Nil(t, res.Quality.Medium)

	// Fill in the missing tier, then confirm the edit is visible
	w = doJSON(router, http.MethodPatch, linkPath, model.UpdateQualityRequest{
		Medium: strPtr("https://cdn.example.com/film-720p.mp4"),
	}, withBasicAuth)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/resolve/"+created.Code, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotNil(t, res.Quality)
	assert.NotNil(t, res.Quality.Medium)

	w = doJSON(router, http.MethodDelete, linkPath, nil, withBasicAuth)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/resolve/"+created.Code, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
