package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	ServerPort  string
	StoreDriver string

	DBURL      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	RedisURL           string
	LeaderboardTTL     time.Duration
	LogLevel           string
	ReplayWindow       time.Duration
	ProofTimeout       time.Duration
	TwitterOEmbedURL   string
	GistHosts          []string
	MaxRequestBodySize int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "11311")
	v.SetDefault("store_driver", StorePostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "kred_user")
	v.SetDefault("db_password", "kred_pass")
	v.SetDefault("db_name", "agentkred")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("redis_url", "")
	v.SetDefault("leaderboard_cache_ttl", "5s")
	v.SetDefault("log_level", "info")
	v.SetDefault("replay_window", "60s")
	v.SetDefault("proof_timeout", "5s")
	v.SetDefault("twitter_oembed_url", "https://publish.twitter.com/oembed")
	v.SetDefault("gist_hosts", "")
	v.SetDefault("max_request_body_size", 1<<20)
}

// Load reads config.yaml from . or ./config when present; environment
// variables (SERVER_PORT, DB_HOST, ...) take precedence over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	var err error
	cfg := &Config{
		ServerPort:         v.GetString("server_port"),
		StoreDriver:        strings.ToLower(v.GetString("store_driver")),
		DBURL:              v.GetString("database_url"),
		DBHost:             v.GetString("db_host"),
		DBPort:             v.GetString("db_port"),
		DBUser:             v.GetString("db_user"),
		DBPassword:         v.GetString("db_password"),
		DBName:             v.GetString("db_name"),
		DBMaxConns:         v.GetInt32("db_max_conns"),
		RedisURL:           v.GetString("redis_url"),
		LogLevel:           v.GetString("log_level"),
		TwitterOEmbedURL:   v.GetString("twitter_oembed_url"),
		GistHosts:          splitList(v.GetString("gist_hosts")),
		MaxRequestBodySize: v.GetInt64("max_request_body_size"),
	}

	if cfg.StoreDriver != StoreMemory && cfg.StoreDriver != StorePostgres {
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if cfg.ReplayWindow, err = seconds(v, "replay_window"); err != nil {
		return nil, err
	}
	if cfg.ProofTimeout, err = seconds(v, "proof_timeout"); err != nil {
		return nil, err
	}
	if cfg.LeaderboardTTL, err = seconds(v, "leaderboard_cache_ttl"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seconds reads a duration key. Bare integers are seconds, anything else
// must parse as a Go duration of at least one second.
func seconds(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("%s must be at least 1s, got %q", key, raw)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("%s must be at least 1s, got %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// DatabaseURL prefers DATABASE_URL and otherwise assembles one from the DB_* parts.
func (c *Config) DatabaseURL() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
