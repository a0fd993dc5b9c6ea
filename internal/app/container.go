package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/paywallsvc/domain"
	"github.com/you/paywallsvc/internal/config"
	"github.com/you/paywallsvc/internal/infrastructure/auth"
	"github.com/you/paywallsvc/internal/infrastructure/contentdelivery"
	"github.com/you/paywallsvc/internal/infrastructure/database"
	"github.com/you/paywallsvc/internal/infrastructure/gateway"
	"github.com/you/paywallsvc/internal/infrastructure/notifications"
	"github.com/you/paywallsvc/internal/infrastructure/repositories"
	"github.com/you/paywallsvc/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService

	// Repositories
	SessionRepo  domain.SessionRepository
	PurchaseRepo domain.PurchaseRepository
	TokenRepo    domain.AccessTokenRepository
	ContentRepo  domain.ContentRepository

	// Collaborator clients
	Gateway         domain.PaymentGateway
	NotificationSvc domain.NotificationService
	Locator         domain.ContentLocator

	// Services
	FingerprintSvc domain.FingerprintService
	OpsTokenSvc    domain.OpsTokenService
	SessionSvc     domain.SessionService
	PurchaseSvc    domain.PurchaseService
	AccessSvc      domain.AccessService
	ChallengeSvc   domain.ChallengeService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{Config: cfg}

	if err := container.initDatabase(); err != nil {
		return nil, err
	}
	if err := container.initRedis(); err != nil {
		return nil, err
	}

	container.initRepositories()

	if err := container.initServices(); err != nil {
		return nil, err
	}

	return container, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	cas, err := auth.NewCasbinService(db, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}

	c.DB = db
	c.Casbin = cas
	return nil
}

func (c *Container) initRedis() error {
	rdb := database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err := rdb.Ping(context.Background()); err != nil {
		return err
	}
	c.RedisClient = rdb.Client
	return nil
}

func (c *Container) initRepositories() {
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, c.Config.SessionTTL)
	c.PurchaseRepo = repositories.NewPurchaseRepository(c.DB)
	c.TokenRepo = repositories.NewAccessTokenRepository(c.DB)
	c.ContentRepo = repositories.NewContentRepository(c.DB)
}

func (c *Container) initServices() error {
	c.FingerprintSvc = auth.NewFingerprintService()
	c.OpsTokenSvc = auth.NewJWTService(c.Config.OpsJWTSecret, c.Config.OpsJWTIssuer, c.Config.OpsJWTTTL)
	c.NotificationSvc = notifications.NewTwilioService(c.Config.TwilioSID, c.Config.TwilioToken, c.Config.TwilioFrom)
	c.Gateway = gateway.NewCheckoutClient(c.Config.GatewayBaseURL, c.Config.GatewayAPIKey, c.Config.GatewayWebhookSecret)

	locator, err := contentdelivery.NewS3Locator(context.Background(), c.Config.S3Bucket, c.Config.S3Region, c.Config.LocatorTTL)
	if err != nil {
		return err
	}
	c.Locator = locator

	c.SessionSvc = services.NewSessionService(c.SessionRepo, c.FingerprintSvc)
	c.AccessSvc = services.NewAccessService(c.TokenRepo, c.PurchaseRepo, c.SessionRepo, c.ContentRepo, c.Locator)
	c.PurchaseSvc = services.NewPurchaseService(c.PurchaseRepo, c.SessionRepo, c.ContentRepo, c.AccessSvc, c.Gateway, c.NotificationSvc)

	challengeConfig := services.ChallengeConfig{
		CodeLength:   c.Config.ChallengeCodeLength,
		TTL:          c.Config.ChallengeTTL,
		MaxAttempts:  c.Config.ChallengeMaxAttempts,
		ResendWindow: c.Config.ChallengeResendWindow,
	}
	c.ChallengeSvc = services.NewChallengeService(c.TokenRepo, c.PurchaseRepo, auth.NewCodeHasher(), c.NotificationSvc, c.RedisClient, challengeConfig)

	return nil
}
