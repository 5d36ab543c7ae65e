package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`

	// Database.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Auth.
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	TokenTTLHours int    `mapstructure:"TOKEN_TTL_HOURS"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// File storage.
	StorageBackend        string `mapstructure:"STORAGE_BACKEND"`
	CloudinaryCloudName   string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey      string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret   string `mapstructure:"CLOUDINARY_API_SECRET"`
	GCSBucket             string `mapstructure:"GCS_BUCKET"`
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`

	// Firebase Cloud Messaging.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Stripe.
	StripeSecretKey         string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecretTest string `mapstructure:"STRIPE_WEBHOOK_SECRET_TEST"`
	StripeWebhookSecretLive string `mapstructure:"STRIPE_WEBHOOK_SECRET_LIVE"`
	CheckoutSuccessURL      string `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL       string `mapstructure:"CHECKOUT_CANCEL_URL"`

	// Pricing.
	PricePerPageCents int64  `mapstructure:"PRICE_PER_PAGE_CENTS"`
	Currency          string `mapstructure:"CURRENCY"`

	// Affiliates.
	AffiliateCommissionRate string `mapstructure:"AFFILIATE_COMMISSION_RATE"`
	AffiliateMinWithdrawal  string `mapstructure:"AFFILIATE_MIN_WITHDRAWAL"`

	// Cleanup jobs.
	DraftRetentionDays        int    `mapstructure:"DRAFT_RETENTION_DAYS"`
	NotificationRetentionDays int    `mapstructure:"NOTIFICATION_RETENTION_DAYS"`
	CleanupCron               string `mapstructure:"CLEANUP_CRON"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "tradocs")
	viper.SetDefault("TOKEN_TTL_HOURS", 72)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("STORAGE_BACKEND", "cloudinary")
	viper.SetDefault("PRICE_PER_PAGE_CENTS", 2500)
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("AFFILIATE_COMMISSION_RATE", "0.10")
	viper.SetDefault("AFFILIATE_MIN_WITHDRAWAL", "20.00")
	viper.SetDefault("DRAFT_RETENTION_DAYS", 30)
	viper.SetDefault("NOTIFICATION_RETENTION_DAYS", 90)
	viper.SetDefault("CLEANUP_CRON", "0 3 * * *")
	viper.SetDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/payment/success?session_id={CHECKOUT_SESSION_ID}")
	viper.SetDefault("CHECKOUT_CANCEL_URL", "http://localhost:3000/payment/cancelled")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(AppConfig.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
