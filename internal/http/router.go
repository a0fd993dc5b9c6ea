package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/internal/http/handlers"
	"github.com/you/paywallsvc/internal/http/middleware"
)

func BuildRouter(
	sh *handlers.SessionHandlers,
	ch *handlers.ContentHandlers,
	ph *handlers.PurchaseHandlers,
	ah *handlers.AccessHandlers,
	wh *handlers.WebhookHandlers,
	oh *handlers.OpsHandlers,
	jwtmw *middleware.AuthMW,
	cb middleware.CasbinMiddleware,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	r.POST("/session", sh.CreateOrRefresh)
	r.GET("/content/:id", ch.Get)

	r.POST("/purchase", ph.Create)
	r.POST("/purchase/confirm", ph.Confirm)
	r.GET("/purchase/:id", ph.Get)

	access := r.Group("/access")
	access.POST("", ah.Redeem)
	access.POST("/check-eligibility", ah.CheckEligibility)
	access.POST("/request-device-verification", ah.RequestDeviceVerification)
	access.POST("/verify-device", ah.VerifyDevice)

	r.POST("/webhooks/payment", wh.Payment)

	ops := r.Group("/ops").Use(jwtmw.WithJWT(), cb.Enforce())
	ops.POST("/purchases/:id/refund", oh.Refund)
	ops.POST("/tokens/revoke", oh.RevokeToken)

	return r
}
