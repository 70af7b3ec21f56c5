package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper). Marketplace
// percentages and the exchange rate are fixed at deploy time.
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	RedisURL    string

	PinataAPIKey     string
	PinataSecretKey  string
	PinataGatewayURL string

	AptosNodeURL string

	TicketsCSVPath string

	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string

	SettlementTimeout time.Duration

	MaxMarkupPct   decimal.Decimal
	RoyaltyPct     decimal.Decimal
	PlatformFeePct decimal.Decimal
	InrToAptRate   decimal.Decimal
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "3003"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	timeoutSecs := viper.GetInt("SETTLEMENT_TIMEOUT_SECONDS")
	if timeoutSecs <= 0 {
		timeoutSecs = 60
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		PinataAPIKey:        viper.GetString("PINATA_API_KEY"),
		PinataSecretKey:     viper.GetString("PINATA_SECRET_API_KEY"),
		PinataGatewayURL:    stringOr(viper.GetString("PINATA_GATEWAY_URL"), "https://gateway.pinata.cloud"),
		AptosNodeURL:        stringOr(viper.GetString("APTOS_NODE_URL"), "https://fullnode.devnet.aptoslabs.com"),
		TicketsCSVPath:      stringOr(viper.GetString("TICKETS_CSV_PATH"), "data/tickets.csv"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SettlementTimeout:   time.Duration(timeoutSecs) * time.Second,
		MaxMarkupPct:        decimalOr(viper.GetString("MAX_MARKUP_PERCENTAGE"), "30"),
		RoyaltyPct:          decimalOr(viper.GetString("ROYALTY_PERCENTAGE"), "10"),
		PlatformFeePct:      decimalOr(viper.GetString("PLATFORM_FEE_PERCENTAGE"), "2.5"),
		InrToAptRate:        decimalOr(viper.GetString("INR_TO_APT_RATE"), "0.00001"),
	}, nil
}

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func decimalOr(s, fallback string) decimal.Decimal {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return d
	}
	return decimal.RequireFromString(fallback)
}
