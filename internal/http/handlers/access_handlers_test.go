package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/paywallsvc/domain"
	"github.com/you/paywallsvc/internal/infrastructure/auth"
	"github.com/you/paywallsvc/internal/mocks"
)

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func setupAccessRouter(accessSvc *mocks.MockAccessService, challengeSvc *mocks.MockChallengeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAccessHandlers(accessSvc, challengeSvc, auth.NewFingerprintService())

	router := gin.New()
	router.POST("/access", h.Redeem)
	router.POST("/access/check-eligibility", h.CheckEligibility)
	router.POST("/access/request-device-verification", h.RequestDeviceVerification)
	router.POST("/access/verify-device", h.VerifyDevice)
	return router
}

func TestAccessHandlers_CheckEligibility(t *testing.T) {
	tests := []struct {
		name             string
		eligibility      *domain.Eligibility
		expectedDecision string
		expectedReason   string
	}{
		{
			name:             "granted",
			eligibility:      &domain.Eligibility{Decision: domain.EligibilityGranted},
			expectedDecision: "granted",
		},
		{
			name:             "device mismatch",
			eligibility:      &domain.Eligibility{Decision: domain.EligibilityDeviceMismatch},
			expectedDecision: "device_mismatch",
		},
		{
			name:             "denied with reason",
			eligibility:      &domain.Eligibility{Decision: domain.EligibilityDenied, Reason: "invalid_token"},
			expectedDecision: "denied",
			expectedReason:   "invalid_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accessSvc := mocks.NewMockAccessService()
			accessSvc.CheckEligibilityFunc = func(ctx context.Context, token, fingerprint string) (*domain.Eligibility, error) {
				assert.Equal(t, "fp_abc", fingerprint, "fingerprint must be normalized")
				return tt.eligibility, nil
			}
			router := setupAccessRouter(accessSvc, mocks.NewMockChallengeService())

			w := performJSON(t, router, http.MethodPost, "/access/check-eligibility", gin.H{
				"access_token": "act_known",
				"fingerprint":  "  FP_ABC ",
			})

			assert.Equal(t, http.StatusOK, w.Code)
			data := decodeBody(t, w)["data"].(map[string]interface{})
			assert.Equal(t, tt.expectedDecision, data["decision"])
			if tt.expectedReason != "" {
				assert.Equal(t, tt.expectedReason, data["reason"])
			} else {
				assert.NotContains(t, data, "reason")
			}
		})
	}
}

func TestAccessHandlers_CheckEligibility_BadRequest(t *testing.T) {
	router := setupAccessRouter(mocks.NewMockAccessService(), mocks.NewMockChallengeService())

	w := performJSON(t, router, http.MethodPost, "/access/check-eligibility", gin.H{
		"access_token": "act_known",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccessHandlers_RequestDeviceVerification(t *testing.T) {
	tests := []struct {
		name           string
		serviceError   error
		expectedStatus int
		expectedKind   string
	}{
		{"accepted", nil, http.StatusAccepted, ""},
		{"email mismatch", domain.ErrEmailMismatch, http.StatusForbidden, KindEmailMismatch},
		{"unknown token", domain.ErrTokenNotFound, http.StatusNotFound, KindNotFound},
		{"revoked token", domain.ErrTokenRevoked, http.StatusNotFound, KindNotFound},
		{"purchase incomplete", domain.ErrPurchaseIncomplete, http.StatusConflict, KindInvalidRequest},
		{"resend throttled", domain.ErrChallengeResendLimit, http.StatusTooManyRequests, KindResendLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			challengeSvc := mocks.NewMockChallengeService()
			if tt.serviceError != nil {
				challengeSvc.RequestFunc = func(ctx context.Context, token, fp, email string) (*domain.DeviceChallenge, error) {
					return nil, tt.serviceError
				}
			}
			router := setupAccessRouter(mocks.NewMockAccessService(), challengeSvc)

			w := performJSON(t, router, http.MethodPost, "/access/request-device-verification", gin.H{
				"access_token": "act_known",
				"fingerprint":  "fp_new",
				"email":        "buyer@example.com",
			})

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedKind != "" {
				errBody := decodeBody(t, w)["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedKind, errBody["kind"])
			}
		})
	}
}

func TestAccessHandlers_VerifyDevice(t *testing.T) {
	tests := []struct {
		name           string
		serviceError   error
		expectedStatus int
		expectedKind   string
	}{
		{"verified", nil, http.StatusOK, ""},
		{"invalid code", domain.ErrChallengeInvalidCode, http.StatusBadRequest, KindInvalidCode},
		{"expired challenge", domain.ErrChallengeExpired, http.StatusGone, KindExpired},
		{"attempts exhausted", domain.ErrChallengeMaxAttempts, http.StatusTooManyRequests, KindAttemptsExhausted},
		{"unknown token", domain.ErrTokenNotFound, http.StatusNotFound, KindNotFound},
		{"revoked token", domain.ErrTokenRevoked, http.StatusNotFound, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			challengeSvc := mocks.NewMockChallengeService()
			if tt.serviceError != nil {
				challengeSvc.VerifyFunc = func(ctx context.Context, token, fp, code string) (*domain.AccessToken, error) {
					return nil, tt.serviceError
				}
			} else {
				challengeSvc.VerifyFunc = func(ctx context.Context, token, fp, code string) (*domain.AccessToken, error) {
					return &domain.AccessToken{
						Token:             token,
						BoundFingerprints: []string{"fp_original", fp},
					}, nil
				}
			}
			router := setupAccessRouter(mocks.NewMockAccessService(), challengeSvc)

			w := performJSON(t, router, http.MethodPost, "/access/verify-device", gin.H{
				"access_token": "act_known",
				"fingerprint":  "fp_new",
				"code":         "123456",
			})

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedKind != "" {
				errBody := decodeBody(t, w)["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedKind, errBody["kind"])
			} else {
				data := decodeBody(t, w)["data"].(map[string]interface{})
				assert.Equal(t, "granted", data["decision"])
				assert.Equal(t, float64(2), data["bound_fingerprints"])
			}
		})
	}
}

func TestAccessHandlers_Redeem(t *testing.T) {
	t.Run("granted returns locator", func(t *testing.T) {
		accessSvc := mocks.NewMockAccessService()
		accessSvc.RedeemFunc = func(ctx context.Context, token, fingerprint string) (string, error) {
			return "https://cdn.example/clips/1.mp4?sig=abc", nil
		}
		router := setupAccessRouter(accessSvc, mocks.NewMockChallengeService())

		w := performJSON(t, router, http.MethodPost, "/access", gin.H{
			"access_token": "act_known",
			"fingerprint":  "fp_bound",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "https://cdn.example/clips/1.mp4?sig=abc", data["location"])
	})

	t.Run("unverified device", func(t *testing.T) {
		accessSvc := mocks.NewMockAccessService()
		accessSvc.RedeemFunc = func(ctx context.Context, token, fingerprint string) (string, error) {
			return "", domain.ErrDeviceNotVerified
		}
		router := setupAccessRouter(accessSvc, mocks.NewMockChallengeService())

		w := performJSON(t, router, http.MethodPost, "/access", gin.H{
			"access_token": "act_known",
			"fingerprint":  "fp_other",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		errBody := decodeBody(t, w)["error"].(map[string]interface{})
		assert.Equal(t, KindDeviceNotVerified, errBody["kind"])
	})

	t.Run("unknown token", func(t *testing.T) {
		accessSvc := mocks.NewMockAccessService()
		accessSvc.RedeemFunc = func(ctx context.Context, token, fingerprint string) (string, error) {
			return "", domain.ErrTokenNotFound
		}
		router := setupAccessRouter(accessSvc, mocks.NewMockChallengeService())

		w := performJSON(t, router, http.MethodPost, "/access", gin.H{
			"access_token": "act_bogus",
			"fingerprint":  "fp_bound",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
