// Package config loads fundwl settings from defaults, an optional YAML file,
// a .env file and FUNDWL_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/komsit37/fundwl/pkg/fw/logging"
)

// Config is the full runtime configuration.
type Config struct {
	Cache   Cache          `mapstructure:"cache"`
	Store   Store          `mapstructure:"store"`
	HTTP    HTTP           `mapstructure:"http"`
	JSONP   JSONP          `mapstructure:"jsonp"`
	Refresh Refresh        `mapstructure:"refresh"`
	Indices Indices        `mapstructure:"indices"`
	Types   Types          `mapstructure:"types"`
	Log     logging.Config `mapstructure:"log"`
}

type Cache struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Backend  string        `mapstructure:"backend"` // memory or redis
	RedisURL string        `mapstructure:"redis_url"`
}

type Store struct {
	Driver string `mapstructure:"driver"` // sqlite, mysql, postgres or memory
	DSN    string `mapstructure:"dsn"`
}

type HTTP struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	UserAgent string        `mapstructure:"user_agent"`
}

type JSONP struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type Refresh struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

type Indices struct {
	Delay time.Duration `mapstructure:"delay"`
	Codes []string      `mapstructure:"codes"`
}

type Types struct {
	Delay time.Duration `mapstructure:"delay"`
}

// RefreshIntervals are the auto refresh periods offered to the user.
var RefreshIntervals = []time.Duration{30 * time.Second, time.Minute, 5 * time.Minute}

// DefaultIndexCodes is the marquee shown by the indices command.
var DefaultIndexCodes = []string{"sh000001", "sz399001", "sz399006", "sh000300", "hkHSI", "hkHSCEI", "usIXIC", "usDJI"}

const envPrefix = "FUNDWL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "fundwl.db")
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.retries", 2)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("jsonp.timeout", 8*time.Second)
	v.SetDefault("refresh.interval", 30*time.Second)
	v.SetDefault("refresh.concurrency", 8)
	v.SetDefault("indices.delay", 100*time.Millisecond)
	v.SetDefault("indices.codes", DefaultIndexCodes)
	v.SetDefault("types.delay", 600*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// Load reads configuration. file may be empty, in which case fundwl.yaml is
// looked up in the working directory and $HOME/.config/fundwl; a missing
// default file is not an error.
func Load(file string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("fundwl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/fundwl")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Refresh.Interval = NormalizeInterval(cfg.Refresh.Interval)
	if cfg.Refresh.Concurrency <= 0 {
		cfg.Refresh.Concurrency = 1
	}
	return cfg, nil
}

// NormalizeInterval snaps d to one of RefreshIntervals, defaulting to 30s.
func NormalizeInterval(d time.Duration) time.Duration {
	for _, ok := range RefreshIntervals {
		if d == ok {
			return d
		}
	}
	return RefreshIntervals[0]
}
