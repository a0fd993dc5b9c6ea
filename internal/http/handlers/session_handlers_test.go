package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/you/paywallsvc/domain"
	"github.com/you/paywallsvc/internal/infrastructure/auth"
	"github.com/you/paywallsvc/internal/mocks"
)

func setupSessionRouter(sessionSvc *mocks.MockSessionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSessionHandlers(sessionSvc, auth.NewFingerprintService())

	router := gin.New()
	router.POST("/session", h.CreateOrRefresh)
	return router
}

func TestSessionHandlers_CreateOrRefresh(t *testing.T) {
	t.Run("creates session with precomputed fingerprint", func(t *testing.T) {
		sessionSvc := mocks.NewMockSessionService()
		sessionSvc.CreateOrGetFunc = func(ctx context.Context, sessionID, fingerprint, email, phone string) (*domain.BuyerSession, error) {
			assert.Empty(t, sessionID)
			assert.Equal(t, "fp_abc", fingerprint)
			return &domain.BuyerSession{ID: "sess_1", Fingerprint: fingerprint}, nil
		}
		router := setupSessionRouter(sessionSvc)

		w := performJSON(t, router, http.MethodPost, "/session", gin.H{"fingerprint": "fp_abc"})

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "sess_1", data["session_token"])
		assert.Equal(t, "fp_abc", data["fingerprint"])
	})

	t.Run("derives fingerprint from raw signals", func(t *testing.T) {
		sessionSvc := mocks.NewMockSessionService()
		var derived string
		sessionSvc.CreateOrGetFunc = func(ctx context.Context, sessionID, fingerprint, email, phone string) (*domain.BuyerSession, error) {
			derived = fingerprint
			return &domain.BuyerSession{ID: "sess_1", Fingerprint: fingerprint}, nil
		}
		router := setupSessionRouter(sessionSvc)

		w := performJSON(t, router, http.MethodPost, "/session", gin.H{
			"signals": gin.H{"user_agent": "Mozilla/5.0", "platform": "MacIntel"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, derived, 64, "signals are hashed into a stable fingerprint")
	})

	t.Run("refreshes existing session", func(t *testing.T) {
		sessionSvc := mocks.NewMockSessionService()
		sessionSvc.CreateOrGetFunc = func(ctx context.Context, sessionID, fingerprint, email, phone string) (*domain.BuyerSession, error) {
			assert.Equal(t, "sess_known", sessionID)
			assert.Equal(t, "buyer@example.com", email)
			return &domain.BuyerSession{ID: sessionID, Email: email}, nil
		}
		router := setupSessionRouter(sessionSvc)

		w := performJSON(t, router, http.MethodPost, "/session", gin.H{
			"session_token": "sess_known",
			"email":         "buyer@example.com",
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed email rejected", func(t *testing.T) {
		router := setupSessionRouter(mocks.NewMockSessionService())
		w := performJSON(t, router, http.MethodPost, "/session", gin.H{"email": "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContentHandlers_Get(t *testing.T) {
	setup := func(item *domain.ContentItem) *gin.Engine {
		gin.SetMode(gin.TestMode)
		repo := mocks.NewMockContentRepository()
		if item != nil {
			repo.Seed(item)
		}
		h := NewContentHandlers(repo)

		router := gin.New()
		router.GET("/content/:id", h.Get)
		return router
	}

	t.Run("published content summary", func(t *testing.T) {
		router := setup(&domain.ContentItem{
			ID: "content_1", Title: "Clip", PriceCents: 999, Currency: "USD",
			ObjectKey: "clips/1.mp4", Published: true,
		})

		w := performJSON(t, router, http.MethodGet, "/content/content_1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "Clip", data["title"])
		assert.Equal(t, float64(999), data["price_cents"])
		assert.NotContains(t, data, "object_key", "storage location never leaves the server")
	})

	t.Run("unpublished content hidden", func(t *testing.T) {
		router := setup(&domain.ContentItem{ID: "content_1", Title: "Draft"})
		w := performJSON(t, router, http.MethodGet, "/content/content_1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown content", func(t *testing.T) {
		router := setup(nil)
		w := performJSON(t, router, http.MethodGet, "/content/content_missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
