package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
)

// Environment names. Release forbids the localhost fallback: a misconfigured
// production build must fail loudly instead of pointing at a dev machine.
const (
	EnvDevelop = "develop"
	EnvTrial   = "trial"
	EnvRelease = "release"
)

// devFallbackBaseURL is the default API origin outside release builds.
const devFallbackBaseURL = "http://127.0.0.1:8000"

// storageKeyBaseURL lets operators override the API origin through local
// storage, used to switch environments without a rebuild.
const storageKeyBaseURL = "apiBaseUrl"

type Config struct {
	APIBaseURL     string        `env:"API_BASE_URL"`
	Env            string        `env:"ENV,            default=develop" validate:"oneof=develop trial release"`
	LogLevel       string        `env:"LOG_LEVEL,      default=info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=15s"`
	StatePath      string        `env:"STATE_PATH,     default=.clientstate.json"`

	Devstub DevstubConfig
}

// DevstubConfig configures the contract fixture server.
type DevstubConfig struct {
	Addr      string `env:"DEVSTUB_ADDR,       default=:8000"`
	JWTSecret string `env:"DEVSTUB_JWT_SECRET, default=devstub-secret"`
	RedisAddr string `env:"DEVSTUB_REDIS_ADDR"`
	RedisDB   int    `env:"DEVSTUB_REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig and
// validates it.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// ResolveBaseURL picks the API origin: a local-storage override wins, then
// the configured value, then a development fallback. In release builds there
// is no fallback and a missing origin is a configuration error.
func (c *Config) ResolveBaseURL(kv ports.KV) (string, error) {
	if kv != nil {
		if v, ok := kv.Get(storageKeyBaseURL); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSuffix(strings.TrimSpace(v), "/"), nil
		}
	}
	if v := strings.TrimSpace(c.APIBaseURL); v != "" {
		return strings.TrimSuffix(v, "/"), nil
	}
	if c.Env == EnvRelease {
		return "", domain.ErrNotConfigured
	}
	return devFallbackBaseURL, nil
}
