package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_school/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GO_SCHOOL"

// Supported backend drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the fully resolved application configuration.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Cache   CacheConfig
	Data    DataConfig
	Upload  UploadConfig
	Misc    MiscConfig
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
	StaticDir          string // built frontend; empty or missing serves the API only
	AdminToken         string // bearer token for write endpoints; empty closes them
}

// BackendConfig selects and addresses the relational backend holding the collections.
type BackendConfig struct {
	Driver       string
	Name         string // sqlite file path or postgres database name
	Host         string
	Port         int
	User         string
	Password     string
	AutoMigrate  bool
	StrictDelete bool // deleting an unknown id reports not found instead of success
}

type CacheConfig struct {
	Duration        time.Duration
	RefreshInterval time.Duration // 0 disables background warming
	RetryAttempts   int
	RetryBackoff    time.Duration
}

type DataConfig struct {
	SchoolInfoPath string
}

type UploadConfig struct {
	Endpoint string
	APIKey   string
	MaxWidth int
	MaxBytes int64
	Timeout  time.Duration
}

type MiscConfig struct {
	LogLevel string
	GinMode  string
}

// LoadConfig reads .env, config.yaml (if any) and GO_SCHOOL_* environment variables.
// The school info file is created with a placeholder document when missing.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot read .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getEnvOrDefault(envPrefix+"_CONFIG_PATH", "./config"))
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
	}

	port, err := getEnvOrViperPort(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
			StaticDir:          v.GetString("server.static_dir"),
			AdminToken:         v.GetString("server.admin_token"),
		},
		Backend: BackendConfig{
			Driver:       strings.ToLower(v.GetString("backend.driver")),
			Name:         v.GetString("backend.name"),
			Host:         v.GetString("backend.host"),
			Port:         v.GetInt("backend.port"),
			User:         v.GetString("backend.user"),
			Password:     v.GetString("backend.password"),
			AutoMigrate:  v.GetBool("backend.auto_migrate"),
			StrictDelete: v.GetBool("backend.strict_delete"),
		},
		Cache: CacheConfig{
			Duration:        v.GetDuration("cache.duration"),
			RefreshInterval: v.GetDuration("cache.refresh_interval"),
			RetryAttempts:   v.GetInt("cache.retry_attempts"),
			RetryBackoff:    v.GetDuration("cache.retry_backoff"),
		},
		Data: DataConfig{
			SchoolInfoPath: v.GetString("data.school_info_path"),
		},
		Upload: UploadConfig{
			Endpoint: v.GetString("upload.endpoint"),
			APIKey:   v.GetString("upload.api_key"),
			MaxWidth: v.GetInt("upload.max_width"),
			MaxBytes: v.GetInt64("upload.max_bytes"),
			Timeout:  v.GetDuration("upload.timeout"),
		},
		Misc: MiscConfig{
			LogLevel: v.GetString("misc.log_level"),
			GinMode:  v.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := ensureSchoolInfoFile(cfg.Data.SchoolInfoPath); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 5*time.Second)
	v.SetDefault("server.cors_allowed_origins", "*")
	v.SetDefault("server.static_dir", "./web")
	v.SetDefault("server.admin_token", "")

	v.SetDefault("backend.driver", DriverSQLite)
	v.SetDefault("backend.name", "./config/data/school.db")
	v.SetDefault("backend.host", "localhost")
	v.SetDefault("backend.port", 5432)
	v.SetDefault("backend.user", "")
	v.SetDefault("backend.password", "")
	v.SetDefault("backend.auto_migrate", true)
	v.SetDefault("backend.strict_delete", false)

	v.SetDefault("cache.duration", 60*time.Second)
	v.SetDefault("cache.refresh_interval", time.Duration(0))
	v.SetDefault("cache.retry_attempts", 1)
	v.SetDefault("cache.retry_backoff", 200*time.Millisecond)

	v.SetDefault("data.school_info_path", "./config/data/school.json")

	v.SetDefault("upload.endpoint", "https://api.imgbb.com/1/upload")
	v.SetDefault("upload.api_key", "")
	v.SetDefault("upload.max_width", 1600)
	v.SetDefault("upload.max_bytes", int64(10<<20))
	v.SetDefault("upload.timeout", 30*time.Second)

	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.gin_mode", "release")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 || c.Server.ShutDownTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}

	switch c.Backend.Driver {
	case DriverSQLite:
		if c.Backend.Name == "" {
			return errors.New("backend name (sqlite path) is required")
		}
	case DriverPostgres:
		if c.Backend.Name == "" || c.Backend.Host == "" {
			return errors.New("backend name and host are required for postgres")
		}
		if c.Backend.Port <= 0 || c.Backend.Port > 65535 {
			return fmt.Errorf("invalid backend port: %d", c.Backend.Port)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown backend driver: %q (supported: %s, %s, %s)", c.Backend.Driver, DriverSQLite, DriverPostgres, DriverMemory)
	}

	if c.Cache.Duration <= 0 {
		return errors.New("cache duration must be positive")
	}
	if c.Cache.RefreshInterval < 0 {
		return errors.New("cache refresh interval cannot be negative")
	}
	if c.Cache.RetryAttempts < 1 {
		return errors.New("cache retry attempts must be at least 1")
	}
	if c.Cache.RetryBackoff < 0 {
		return errors.New("cache retry backoff cannot be negative")
	}

	if c.Data.SchoolInfoPath == "" {
		return errors.New("school info path is required")
	}

	if c.Upload.Endpoint == "" {
		return errors.New("upload endpoint is required")
	}
	if c.Upload.MaxWidth < 0 || c.Upload.MaxBytes <= 0 || c.Upload.Timeout <= 0 {
		return errors.New("upload limits must be positive")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvOrViperPort lets a bare env var (PORT on most PaaS) win over the viper key.
func getEnvOrViperPort(v *viper.Viper, envKey, viperKey string) (int, error) {
	if value := os.Getenv(envKey); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", envKey, err)
		}
		return port, nil
	}
	return v.GetInt(viperKey), nil
}

func ensureSchoolInfoFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat school info file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create school info dir: %w", err)
	}

	placeholder := map[string]any{
		"name":       "Colegio",
		"lastUpdate": time.Now().UnixMilli(),
	}
	payload, err := json.MarshalIndent(placeholder, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal school info placeholder: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("create school info file: %w", err)
	}
	logger.WithComponent("config").Infof("created school info file at %s", path)
	return nil
}
