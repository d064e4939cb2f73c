// Package config loads the server settings.
//
// Values are layered, later ones winning:
//  1. defaults
//  2. the YAML file named by the --config flag or WOWCHECK_CONFIG
//  3. WOWCHECK_* environment variables, after .env is read
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "WOWCHECK_"

type Config struct {
	Addr string `koanf:"addr"`

	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	APIEndpoint  string `koanf:"api_endpoint"`
	TokenURL     string `koanf:"token_url"`

	// lookups running at the same time
	Workers int `koanf:"workers"`

	CacheDir   string        `koanf:"cache_dir"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
	CacheSweep time.Duration `koanf:"cache_sweep"`

	StaticDir string `koanf:"static_dir"`

	// optional season table replacing the embedded one
	PresetFile string `koanf:"preset_file"`

	SentryDSN       string `koanf:"sentry_dsn"`
	RecaptchaSecret string `koanf:"recaptcha_secret"`

	// "", "auto" or a proxy url
	Proxy string `koanf:"proxy"`
}

func New() *Config {
	return &Config{
		Addr:        "127.0.0.1:5555",
		APIEndpoint: "https://www.warcraftlogs.com/api/v2/client",
		TokenURL:    "https://www.warcraftlogs.com/oauth/token",
		Workers:     2,
		CacheDir:    "./_cache",
		CacheTTL:    6 * time.Hour,
		CacheSweep:  time.Hour,
		StaticDir:   "./frontend/public",
	}
}

// Load reads the configuration. path overrides WOWCHECK_CONFIG when not
// empty.
func Load(path string) (*Config, error) {
	// missing .env is fine
	_ = godotenv.Load(".env")

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "config file")
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := New()
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr must not be empty")
	case c.APIEndpoint == "":
		return errors.New("api_endpoint must not be empty")
	case c.TokenURL == "":
		return errors.New("token_url must not be empty")
	case c.Workers < 1:
		return errors.New("workers must be positive")
	case c.CacheTTL < 0:
		return errors.New("cache_ttl must not be negative")
	}
	return nil
}

// HasCredentials reports whether the api client can authenticate.
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
