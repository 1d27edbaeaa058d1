package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv    string
	Port      string
	DBHost    string
	DBPort    string
	DBUser    string
	DBPassword string
	DBName    string
	DBSSLMode string
	JWTSecret string
	JWTExpiry string

	// Shop settings. Defaults mirror the Austrian shop: AT-prefixed order
	// numbers starting at 1001, EUR prices, free shipping from 100 EUR.
	OrderPrefix           string
	OrderSequenceFloor    int
	MaxCartQuantity       int
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	DefaultVATCountry     string
	Currency              string

	StripeSecretKey     string
	StripeWebhookSecret string
}

var AppConfig *Config

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	AppConfig = &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		Port:       getEnv("APP_PORT", getEnv("PORT", "8080")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "bike_shop"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		JWTExpiry:  getEnv("JWT_EXPIRY", "24h"),

		OrderPrefix:           getEnv("ORDER_PREFIX", "AT"),
		OrderSequenceFloor:    getEnvInt("ORDER_SEQ_FLOOR", 1001),
		MaxCartQuantity:       getEnvInt("MAX_CART_QTY", 100),
		FreeShippingThreshold: getEnvDecimal("FREE_SHIPPING_THRESHOLD", "100"),
		FlatShippingFee:       getEnvDecimal("FLAT_SHIPPING_FEE", "9.99"),
		DefaultVATCountry:     getEnv("DEFAULT_VAT_COUNTRY", "AT"),
		Currency:              getEnv("CURRENCY", "EUR"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
	}

	log.Println("Configuration loaded successfully")
	log.Printf("Environment: %s", AppConfig.AppEnv)
	log.Printf("Server will run on port: %s", AppConfig.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultValue)
}
