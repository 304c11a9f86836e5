package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "STUDIO"

type HTTPConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
}

type AuthConfig struct {
	JWTSecret string
}

type GenAIConfig struct {
	APIKey       string
	ImageModel   string
	VideoModel   string
	VideoTimeout time.Duration
}

type QueueConfig struct {
	Stream   string
	Group    string
	Consumer string
}

type JobsConfig struct {
	StaleGeneration time.Duration
}

type SentryConfig struct {
	DSN string
}

// Config is the API server configuration.
type Config struct {
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Supabase    SupabaseConfig
	Auth        AuthConfig
	GenAI       GenAIConfig
	Queue       QueueConfig
	Jobs        JobsConfig
	Sentry      SentryConfig
}

type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type PollConfig struct {
	InitialChecks []time.Duration
	Interval      time.Duration
	RetryDelay    time.Duration
	MaxRetries    int
	MaxDuration   time.Duration
}

// ClientConfig drives the studio CLI.
type ClientConfig struct {
	Environment string
	API         APIConfig
	Poll        PollConfig
}

func Load() (*Config, error) {
	v := newViper()
	setServerDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := unmarshal(v, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Supabase.URL == "" {
		return errors.New("supabase.url is required")
	}
	if c.Supabase.Key == "" {
		return errors.New("supabase.key is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtsecret is required")
	}
	if c.GenAI.APIKey == "" {
		return errors.New("genai.apikey is required")
	}
	return nil
}

func LoadClient() (*ClientConfig, error) {
	v := newViper()
	setClientDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := unmarshal(v, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *ClientConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.baseurl is required")
	}
	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be positive")
	}
	if c.Poll.MaxRetries < 0 {
		return errors.New("poll.maxretries must not be negative")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("load config file: %w", err)
		}
	}
	return nil
}

func unmarshal(v *viper.Viper, out any) error {
	if err := v.Unmarshal(out, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.port", "8080")

	v.SetDefault("database.url", "")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.key", "")
	v.SetDefault("supabase.bucket", "generations")

	v.SetDefault("auth.jwtsecret", "")

	v.SetDefault("genai.apikey", "")
	v.SetDefault("genai.imagemodel", "gemini-2.5-flash-image")
	v.SetDefault("genai.videomodel", "veo-3.0-fast-generate-001")
	v.SetDefault("genai.videotimeout", "5m")

	v.SetDefault("queue.stream", "projects:generate")
	v.SetDefault("queue.group", "generators")
	v.SetDefault("queue.consumer", "")

	v.SetDefault("jobs.stalegeneration", "15m")

	v.SetDefault("sentry.dsn", "")
}

func setClientDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.baseurl", "http://localhost:8080")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("poll.initialchecks", []string{"2s", "5s", "8s"})
	v.SetDefault("poll.interval", "5s")
	v.SetDefault("poll.retrydelay", "1s")
	v.SetDefault("poll.maxretries", 3)
	v.SetDefault("poll.maxduration", "10m")
}
