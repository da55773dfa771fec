package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when the selected provider has no API key.
var ErrMissingAPIKey = errors.New("model provider api key must be provided")

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName   string
	AppEnv    string
	AppPort   string
	AccessLog bool

	BodyLimitMB   int
	MaxImages     int
	MaxImageMB    int
	Concurrency   int
	FetchTimeout  time.Duration
	IncludeRaw    bool
	ShutdownGrace time.Duration

	AIProvider     string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	GeminiModel    string
	MaxTokens      int
	Temperature    float32
	RequestTimeout time.Duration

	RedisURL     string
	RedisChannel string
	NATSURL      string
	NATSSubject  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MaxImageBytes converts the per-image limit to bytes.
func (c Config) MaxImageBytes() int64 {
	return int64(c.MaxImageMB) << 20
}

// BodyLimitBytes converts the request body limit to bytes.
func (c Config) BodyLimitBytes() int {
	return c.BodyLimitMB << 20
}

// Load reads configuration from an optional .env file, an optional secrets
// file and environment variables prefixed with APPRAISER.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("APPRAISER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unprefixed names are accepted for the keys every provider SDK documents.
	_ = v.BindEnv("openai_api_key", "APPRAISER_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini_api_key", "APPRAISER_GEMINI_API_KEY", "GEMINI_API_KEY")

	v.SetDefault("app.name", "Antique Appraiser")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.access_log", false)
	v.SetDefault("secrets_file", "secrets.toml")
	v.SetDefault("upload.body_limit_mb", 60)
	v.SetDefault("upload.max_image_mb", 10)
	v.SetDefault("ai.max_images", 6)
	v.SetDefault("ai.concurrency", 4)
	v.SetDefault("ai.include_raw", false)
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("shutdown.grace", "10s")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("openai_model", "o3")
	v.SetDefault("gemini_model", "gemini-1.5-pro")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.temperature", 0)
	v.SetDefault("ai.request_timeout", "5m")
	v.SetDefault("redis.channel", "appraisals")
	v.SetDefault("nats.subject", "appraisals.completed")

	secrets, err := loadSecrets(v.GetString("secrets_file"))
	if err != nil {
		return Config{}, err
	}

	fetchTimeout, err := parseDuration(v, "fetch.timeout")
	if err != nil {
		return Config{}, err
	}
	shutdownGrace, err := parseDuration(v, "shutdown.grace")
	if err != nil {
		return Config{}, err
	}
	requestTimeout, err := parseDuration(v, "ai.request_timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		AccessLog:      v.GetBool("app.access_log"),
		BodyLimitMB:    v.GetInt("upload.body_limit_mb"),
		MaxImages:      v.GetInt("ai.max_images"),
		MaxImageMB:     v.GetInt("upload.max_image_mb"),
		Concurrency:    v.GetInt("ai.concurrency"),
		FetchTimeout:   fetchTimeout,
		IncludeRaw:     v.GetBool("ai.include_raw"),
		ShutdownGrace:  shutdownGrace,
		AIProvider:     strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		OpenAIAPIKey:   firstNonEmpty(secrets.GetString("openai_api_key"), v.GetString("openai_api_key")),
		OpenAIModel:    v.GetString("openai_model"),
		OpenAIBaseURL:  v.GetString("openai_base_url"),
		GeminiAPIKey:   firstNonEmpty(secrets.GetString("gemini_api_key"), v.GetString("gemini_api_key")),
		GeminiModel:    v.GetString("gemini_model"),
		MaxTokens:      v.GetInt("ai.max_tokens"),
		Temperature:    float32(v.GetFloat64("ai.temperature")),
		RequestTimeout: requestTimeout,
		RedisURL:       v.GetString("redis.url"),
		RedisChannel:   v.GetString("redis.channel"),
		NATSURL:        v.GetString("nats.url"),
		NATSSubject:    v.GetString("nats.subject"),
	}

	switch cfg.AIProvider {
	case "", "openai", "gpt":
		cfg.AIProvider = "openai"
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("%w: set OPENAI_API_KEY or openai_api_key in %s", ErrMissingAPIKey, v.GetString("secrets_file"))
		}
	case "gemini", "google":
		cfg.AIProvider = "gemini"
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("%w: set GEMINI_API_KEY or gemini_api_key in %s", ErrMissingAPIKey, v.GetString("secrets_file"))
		}
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 6
	}
	if cfg.MaxImageMB <= 0 {
		cfg.MaxImageMB = 10
	}
	if cfg.BodyLimitMB <= 0 {
		cfg.BodyLimitMB = 60
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	return cfg, nil
}

// loadSecrets reads the optional TOML secrets file. A missing file yields an
// empty store.
func loadSecrets(path string) (*viper.Viper, error) {
	secrets := viper.New()
	if strings.TrimSpace(path) == "" {
		return secrets, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return secrets, nil
	}

	secrets.SetConfigFile(path)
	secrets.SetConfigType("toml")
	if err := secrets.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read secrets file %s: %w", path, err)
	}
	return secrets, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
