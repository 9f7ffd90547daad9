package config

import (
	"fmt"
	"os"
)

// Config holds every setting the application reads from the environment.
// It is built once in main and passed down explicitly; no package below
// cmd/api reads os.Getenv directly.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Payments PaymentsConfig
}

type AppConfig struct {
	Port string
	Env  string // development | production
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
}

type JWTConfig struct {
	Secret string
}

// PaymentsConfig carries per-provider credentials. Each gateway adapter
// receives only its own block at construction time.
type PaymentsConfig struct {
	Stripe       StripeConfig
	PayPal       PayPalConfig
	BankTransfer BankTransferConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Mode          string // sandbox | live
}

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	Mode         string // sandbox | live
}

type BankTransferConfig struct {
	WebhookSecret string
}

// Load reads the environment into a Config. Call godotenv.Load first.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Port: getenv("APP_PORT", "8080"),
			Env:  getenv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Payments: PaymentsConfig{
			Stripe: StripeConfig{
				SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
				WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
				Mode:          getenv("STRIPE_MODE", "sandbox"),
			},
			PayPal: PayPalConfig{
				ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
				ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
				WebhookID:    os.Getenv("PAYPAL_WEBHOOK_ID"),
				Mode:         getenv("PAYPAL_MODE", "sandbox"),
			},
			BankTransfer: BankTransferConfig{
				WebhookSecret: os.Getenv("BANK_TRANSFER_WEBHOOK_SECRET"),
			},
		},
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
