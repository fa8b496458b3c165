package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration values.
type Config struct {
	Port        string
	DatabaseURL string
	WebDir      string
	CORSOrigins []string
	Log         LogConfig
	Gemini      GeminiConfig
	Images      ImageConfig
	Media       MediaConfig
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string
	Format string
}

// GeminiConfig describes the chat model connection.
type GeminiConfig struct {
	APIKey             string
	Model              string
	ServiceAccountFile string
	Timeout            time.Duration
}

// ImageConfig lists the image provider credentials in priority order.
type ImageConfig struct {
	TogetherAPIKey   string
	ReplicateToken   string
	GeminiEnabled    bool
	GeminiImageModel string
}

// MediaConfig describes S3/media related configuration.
type MediaConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicURL       string
	KeyPrefix       string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
	LocalDir        string
}

// FromEnv loads configuration from environment variables and applies defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		WebDir:      strings.TrimSpace(os.Getenv("WEB_DIR")),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "*")),
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
		Gemini: GeminiConfig{
			APIKey:             strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
			Model:              getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			ServiceAccountFile: strings.TrimSpace(os.Getenv("GEMINI_SERVICE_ACCOUNT_FILE")),
			Timeout:            time.Duration(getenvInt("GEMINI_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Images: ImageConfig{
			TogetherAPIKey:   strings.TrimSpace(os.Getenv("TOGETHER_API_KEY")),
			ReplicateToken:   strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN")),
			GeminiEnabled:    getenvBool("GEMINI_IMAGE_ENABLED", false),
			GeminiImageModel: getenv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		},
		Media: MediaConfig{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          os.Getenv("S3_REGION"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			PublicURL:       os.Getenv("S3_PUBLIC_URL"),
			KeyPrefix:       strings.Trim(os.Getenv("S3_KEY_PREFIX"), "/"),
			ForcePathStyle:  getenvBool("S3_FORCE_PATH_STYLE", false),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			LocalDir:        strings.TrimSpace(os.Getenv("MEDIA_LOCAL_DIR")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that have no usable fallback. Provider
// credentials are optional here; their absence is reported per request.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("APP_PORT cannot be empty")
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be > 0")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// S3Enabled reports whether generated images should be pushed to a bucket.
func (m MediaConfig) S3Enabled() bool {
	return m.Bucket != "" && m.Region != ""
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}

	return fallback
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getenvInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
