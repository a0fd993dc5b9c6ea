package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	TTL string `yaml:"ttl"`
}

type ChallengeConfig struct {
	TTL          string `yaml:"ttl"`
	CodeLength   int    `yaml:"code_length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	ResendWindow string `yaml:"resend_window"`
}

type PurchaseConfig struct {
	PendingTimeout string `yaml:"pending_timeout"`
	SweepInterval  string `yaml:"sweep_interval"`
}

type GatewayConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type OpsJWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type ContentConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	LocatorTTL string `yaml:"locator_ttl"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	Challenge ChallengeConfig `yaml:"challenge"`
	Purchase  PurchaseConfig  `yaml:"purchase"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	OpsJWT    OpsJWTConfig    `yaml:"ops_jwt"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Content   ContentConfig   `yaml:"content"`
	Casbin    CasbinConfig    `yaml:"casbin"`
}

type Config struct {
	Port                   string
	GinMode                string
	DSN                    string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	SessionTTL             time.Duration
	ChallengeTTL           time.Duration
	ChallengeCodeLength    int
	ChallengeMaxAttempts   int
	ChallengeResendWindow  time.Duration
	PurchasePendingTimeout time.Duration
	PurchaseSweepInterval  time.Duration
	GatewayBaseURL         string
	GatewayAPIKey          string
	GatewayWebhookSecret   string
	OpsJWTSecret           string
	OpsJWTIssuer           string
	OpsJWTTTL              time.Duration
	TwilioSID              string
	TwilioToken            string
	TwilioFrom             string
	S3Bucket               string
	S3Region               string
	LocatorTTL             time.Duration
	CasbinModelPath        string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() (*Config, error) {
	configFile, err := loadConfigFile(env("CONFIG_PATH", "config/config.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	sessionTTL, err := time.ParseDuration(configFile.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session TTL: %w", err)
	}

	challengeTTL, err := time.ParseDuration(configFile.Challenge.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge TTL: %w", err)
	}

	resendWindow, err := time.ParseDuration(configFile.Challenge.ResendWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge resend window: %w", err)
	}

	pendingTimeout, err := time.ParseDuration(configFile.Purchase.PendingTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase pending timeout: %w", err)
	}

	sweepInterval, err := time.ParseDuration(configFile.Purchase.SweepInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase sweep interval: %w", err)
	}

	opsTTL, err := time.ParseDuration(configFile.OpsJWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid ops JWT TTL: %w", err)
	}

	locatorTTL, err := time.ParseDuration(configFile.Content.LocatorTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid content locator TTL: %w", err)
	}

	return &Config{
		Port:                   fmt.Sprintf("%d", configFile.App.Port),
		GinMode:                configFile.App.GinMode,
		DSN:                    env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:              env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:          env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:                configFile.Redis.DB,
		SessionTTL:             sessionTTL,
		ChallengeTTL:           challengeTTL,
		ChallengeCodeLength:    configFile.Challenge.CodeLength,
		ChallengeMaxAttempts:   configFile.Challenge.MaxAttempts,
		ChallengeResendWindow:  resendWindow,
		PurchasePendingTimeout: pendingTimeout,
		PurchaseSweepInterval:  sweepInterval,
		GatewayBaseURL:         env("GATEWAY_BASE_URL", configFile.Gateway.BaseURL),
		GatewayAPIKey:          env("GATEWAY_API_KEY", configFile.Gateway.APIKey),
		GatewayWebhookSecret:   env("GATEWAY_WEBHOOK_SECRET", configFile.Gateway.WebhookSecret),
		OpsJWTSecret:           env("OPS_JWT_SECRET", configFile.OpsJWT.Secret),
		OpsJWTIssuer:           configFile.OpsJWT.Issuer,
		OpsJWTTTL:              opsTTL,
		TwilioSID:              env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:            env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:             configFile.Twilio.FromNumber,
		S3Bucket:               env("CONTENT_S3_BUCKET", configFile.Content.S3Bucket),
		S3Region:               env("CONTENT_S3_REGION", configFile.Content.S3Region),
		LocatorTTL:             locatorTTL,
		CasbinModelPath:        configFile.Casbin.ModelPath,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
