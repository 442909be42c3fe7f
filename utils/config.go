package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	Port            string
	LogLevel        string
	RequestTimeout  time.Duration
	MongoURI        string
	MongoDatabase   string
	MongoTxn        bool
	JWTSecret       string
	JWTTTL          time.Duration
	Pricing         PricingConfig
	PostmarkToken   string
	EmailSender     string
	RabbitMQURL     string
	RabbitMQQueue   string
	ChannelPoolSize int
}

// PricingConfig parameterises shipping and tax.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricing is the observed storefront policy: free shipping above
// 500, otherwise a flat 50, and 10% tax.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		FreeShippingThreshold: decimal.NewFromInt(500),
		ShippingFee:           decimal.NewFromInt(50),
		TaxRate:               decimal.RequireFromString("0.10"),
	}
}

// LoadConfig loads .env (if present) and then reads the environment.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	defaults := DefaultPricing()
	threshold, err := getEnvAsDecimal("FREE_SHIPPING_THRESHOLD", defaults.FreeShippingThreshold)
	if err != nil {
		return nil, err
	}
	fee, err := getEnvAsDecimal("SHIPPING_FEE", defaults.ShippingFee)
	if err != nil {
		return nil, err
	}
	rate, err := getEnvAsDecimal("TAX_RATE", defaults.TaxRate)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           getEnv("PORT", "8000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		MongoURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGODB_DATABASE", "grocery"),
		MongoTxn:       getEnvAsBool("MONGODB_TRANSACTIONS", true),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         getEnvAsDuration("JWT_TTL", 24*time.Hour),
		Pricing: PricingConfig{
			FreeShippingThreshold: threshold,
			ShippingFee:           fee,
			TaxRate:               rate,
		},
		PostmarkToken:   os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:     os.Getenv("EMAIL_SENDER"),
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		RabbitMQQueue:   getEnv("RABBITMQ_QUEUE", "order_events"),
		ChannelPoolSize: getEnvAsInt("CHANNEL_POOL_SIZE", 5),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &ConfigError{Key: key, Err: err}
	}
	return d, nil
}

// ConfigError reports an unparsable environment value.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string { return "invalid " + e.Key + ": " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }
