package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port string }
type DBCfg struct{ DSN string }
type RedisCfg struct {
	Addr      string
	ReplayTTL time.Duration
}

// GatewayCfg holds the processor credentials. The webhook secret keys the
// inbound HMAC; the API key authenticates outbound calls.
type GatewayCfg struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	Slug          string
	Timeout       time.Duration
}

// MessagesCfg carries the note texts persisted on terminal transitions.
type MessagesCfg struct {
	PaymentSuccessText string
	PaymentFailText    string
	AwaitingText       string // fmt template, receives the acquiring URL
}

type SecurityCfg struct {
	ServiceToken string // guards the checkout API
	AdminToken   string // guards replay/admin APIs
}

type ExpiryCfg struct {
	PendingTTL time.Duration
	SweepEvery time.Duration
}

type Cfg struct {
	App      AppCfg
	DB       DBCfg
	Redis    RedisCfg
	Gateway  GatewayCfg
	Messages MessagesCfg
	Sec      SecurityCfg
	Expiry   ExpiryCfg
}

func Load() Cfg {
	// Load .env into the process env if present.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("GATEWAY_BASE_URL", "https://api.whitepay.com")
	viper.SetDefault("GATEWAY_TIMEOUT", "90s")
	viper.SetDefault("WEBHOOK_REPLAY_TTL", "24h")
	viper.SetDefault("PENDING_TTL", "30m")
	viper.SetDefault("EXPIRY_SWEEP_EVERY", "1m")
	viper.SetDefault("PAYMENT_SUCCESS_TEXT", "Hey, your order is paid! Thank you!")
	viper.SetDefault("PAYMENT_FAIL_TEXT", "The link was expired. Payment failed. You can try another payment method or contact us.")
	viper.SetDefault("PAYMENT_AWAITING_TEXT", "Please use this link to pay for your order: %s . The link is valid for 30 minutes.")

	cfg := Cfg{
		App: AppCfg{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetString("APP_PORT"),
		},
		DB: DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{
			Addr:      viper.GetString("REDIS_ADDR"),
			ReplayTTL: viper.GetDuration("WEBHOOK_REPLAY_TTL"),
		},
		Gateway: GatewayCfg{
			BaseURL:       strings.TrimRight(viper.GetString("GATEWAY_BASE_URL"), "/"),
			APIKey:        strings.TrimSpace(viper.GetString("GATEWAY_API_KEY")),
			WebhookSecret: strings.TrimSpace(viper.GetString("WEBHOOK_SECRET")),
			Slug:          strings.TrimSpace(viper.GetString("GATEWAY_SLUG")),
			Timeout:       viper.GetDuration("GATEWAY_TIMEOUT"),
		},
		Messages: MessagesCfg{
			PaymentSuccessText: viper.GetString("PAYMENT_SUCCESS_TEXT"),
			PaymentFailText:    viper.GetString("PAYMENT_FAIL_TEXT"),
			AwaitingText:       viper.GetString("PAYMENT_AWAITING_TEXT"),
		},
		Sec: SecurityCfg{
			ServiceToken: strings.TrimSpace(viper.GetString("SERVICE_TOKEN")),
			AdminToken:   strings.TrimSpace(viper.GetString("ADMIN_TOKEN")),
		},
		Expiry: ExpiryCfg{
			PendingTTL: viper.GetDuration("PENDING_TTL"),
			SweepEvery: viper.GetDuration("EXPIRY_SWEEP_EVERY"),
		},
	}

	// Fail fast on required settings.
	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}
	if cfg.Gateway.APIKey == "" {
		log.Fatal().Msg("GATEWAY_API_KEY is required")
	}
	if cfg.Gateway.WebhookSecret == "" {
		log.Fatal().Msg("WEBHOOK_SECRET is required")
	}
	if cfg.Gateway.Slug == "" {
		log.Fatal().Msg("GATEWAY_SLUG is required")
	}
	if cfg.Sec.ServiceToken == "" {
		log.Fatal().Msg("SERVICE_TOKEN is required")
	}

	return cfg
}
