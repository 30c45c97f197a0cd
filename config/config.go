package config

import (
	"os"
	"strconv"

	"worksflow/logger"
)

// Config carries every tunable the service reads from the environment. It is
// built once in cmd/api and injected; nothing else touches os.Getenv.
type Config struct {
	Port        string
	DatabaseURL string
	LogMode     string

	// WebhookSecret is the shared token the job system sends in X-Webhook-Secret.
	// Empty disables signature verification.
	WebhookSecret string

	// APIJWTSecret guards the manual agreement API when set. Empty leaves the
	// API open (local/dev).
	APIJWTSecret string

	// ThresholdCents is the minimum job total (inc GST, in cents) that triggers
	// automatic agreement creation. AGREEMENT_THRESHOLD is read in major units.
	ThresholdCents int64

	// JobSystemBaseURL / JobSystemAPIKey configure the enrichment collaborator client.
	JobSystemBaseURL string
	JobSystemAPIKey  string
}

func Load(log *logger.Logger) Config {
	thresholdMajor := GetEnvAsInt("AGREEMENT_THRESHOLD", 20000, log)

	return Config{
		Port:             GetEnv("PORT", "8080", log),
		DatabaseURL:      GetEnv("DATABASE_URL", "", log),
		LogMode:          GetEnv("LOG_MODE", "development", log),
		WebhookSecret:    GetEnv("WEBHOOK_SECRET", "", log),
		APIJWTSecret:     GetEnv("API_JWT_SECRET", "", log),
		ThresholdCents:   int64(thresholdMajor) * 100,
		JobSystemBaseURL: GetEnv("JOB_SYSTEM_BASE_URL", "", log),
		JobSystemAPIKey:  GetEnv("JOB_SYSTEM_API_KEY", "", log),
	}
}

func GetEnv(key, fallback string, log *logger.Logger) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if log != nil {
		log.Debug("env var unset, using fallback", "key", key)
	}
	return fallback
}

func GetEnvAsInt(key string, fallback int, log *logger.Logger) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Warn("env var is not an integer, using fallback", "key", key, "value", raw)
		}
		return fallback
	}
	return value
}
