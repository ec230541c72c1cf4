package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	UpstreamBaseURL string
	UpstreamAPIKey  string
	UpstreamTimeout time.Duration
	DetectTimeout   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PollInterval time.Duration
	PollLifetime time.Duration
	ThumbnailTTL time.Duration

	ListingCacheTTL time.Duration
	ClipsCacheTTL   time.Duration

	ThumbnailBackend     string
	DriveCredentialsFile string
	DriveTokenFile       string
	DriveFolderName      string

	SweepInterval time.Duration

	EnablePollResume        bool
	EnableRetentionSweep    bool
	EnableGalleryProjection bool
}

func Load() (Config, error) {
	// .env is a development convenience; production injects env directly.
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "clipperstudio"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		UpstreamBaseURL: os.Getenv("UPSTREAM_BASE_URL"),
		UpstreamAPIKey:  os.Getenv("UPSTREAM_API_KEY"),
		UpstreamTimeout: envDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		DetectTimeout:   envDuration("DETECT_TIMEOUT", 10*time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		PollInterval: envDuration("POLL_INTERVAL", 5*time.Second),
		PollLifetime: envDuration("POLL_LIFETIME", 60*time.Minute),
		ThumbnailTTL: envDuration("THUMBNAIL_TTL", 5*time.Minute),

		ListingCacheTTL: envDuration("LISTING_CACHE_TTL", 30*time.Second),
		ClipsCacheTTL:   envDuration("CLIPS_CACHE_TTL", 5*time.Minute),

		ThumbnailBackend:     strings.TrimSpace(strings.ToLower(os.Getenv("THUMBNAIL_BACKEND"))),
		DriveCredentialsFile: os.Getenv("DRIVE_CREDENTIALS_FILE"),
		DriveTokenFile:       os.Getenv("DRIVE_TOKEN_FILE"),
		DriveFolderName:      os.Getenv("DRIVE_FOLDER_NAME"),

		SweepInterval: envDuration("SWEEP_INTERVAL", 10*time.Minute),

		EnablePollResume:        envBool("ENABLE_POLL_RESUME", true),
		EnableRetentionSweep:    envBool("ENABLE_RETENTION_SWEEP", true),
		EnableGalleryProjection: envBool("ENABLE_GALLERY_PROJECTION", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
