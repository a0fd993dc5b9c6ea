package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/paywallsvc/internal/config"
	httpx "github.com/you/paywallsvc/internal/http"
	"github.com/you/paywallsvc/internal/http/handlers"
	"github.com/you/paywallsvc/internal/http/middleware"
)

func Run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(cfg)
	if err != nil {
		return err
	}

	sessionH := handlers.NewSessionHandlers(container.SessionSvc, container.FingerprintSvc)
	contentH := handlers.NewContentHandlers(container.ContentRepo)
	purchaseH := handlers.NewPurchaseHandlers(container.PurchaseSvc, container.TokenRepo)
	accessH := handlers.NewAccessHandlers(container.AccessSvc, container.ChallengeSvc, container.FingerprintSvc)
	webhookH := handlers.NewWebhookHandlers(container.PurchaseSvc, container.Gateway)
	opsH := handlers.NewOpsHandlers(container.PurchaseSvc, container.AccessSvc)

	jwtMW := middleware.NewAuthMW(container.OpsTokenSvc)
	casbinMW := middleware.NewCasbinMW(container.Casbin.E)

	r := httpx.BuildRouter(sessionH, contentH, purchaseH, accessH, webhookH, opsH, jwtMW, casbinMW)

	policies, _ := container.Casbin.E.GetPolicy()
	if len(policies) == 0 {
		container.Casbin.E.AddPolicy("role_operator", "/ops/*", "(GET|POST)")
		_ = container.Casbin.E.SavePolicy()
		log.Println("casbin: seeded default policies")
	}

	// Reconciliation pass: PENDING purchases the gateway never answered
	// for are failed instead of lingering forever.
	go func() {
		ticker := time.NewTicker(cfg.PurchaseSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			swept, err := container.PurchaseSvc.SweepStalePending(ctx, cfg.PurchasePendingTimeout)
			cancel()
			if err != nil {
				log.Printf("sweep: %v", err)
				continue
			}
			if swept > 0 {
				log.Printf("sweep: failed %d stale pending purchases", swept)
			}
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}
