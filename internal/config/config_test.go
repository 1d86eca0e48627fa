package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			IdleTimeout:        120 * time.Second,
			ShutDownTimeout:    5 * time.Second,
			RequestTimeout:     5 * time.Second,
			CORSAllowedOrigins: "*",
		},
		Backend: BackendConfig{
			Driver: DriverSQLite,
			Name:   "/tmp/school.db",
		},
		Cache: CacheConfig{
			Duration:      60 * time.Second,
			RetryAttempts: 1,
			RetryBackoff:  200 * time.Millisecond,
		},
		Data: DataConfig{
			SchoolInfoPath: "/tmp/school.json",
		},
		Upload: UploadConfig{
			Endpoint: "https://api.imgbb.com/1/upload",
			MaxWidth: 1600,
			MaxBytes: 10 << 20,
			Timeout:  30 * time.Second,
		},
		Misc: MiscConfig{
			LogLevel: "info",
			GinMode:  "release",
		},
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero port", 0},
		{"negative port", -1},
		{"too high port", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			if err := cfg.validate(); err == nil {
				t.Errorf("expected error for port %d", tt.port)
			}
		})
	}
}

func TestConfig_Validate_InvalidTimeouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"negative write timeout", func(c *Config) { c.Server.WriteTimeout = -time.Second }},
		{"zero idle timeout", func(c *Config) { c.Server.IdleTimeout = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutDownTimeout = 0 }},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfig_Validate_Backend(t *testing.T) {
	tests := []struct {
		name    string
		backend BackendConfig
		wantErr bool
	}{
		{"sqlite with path", BackendConfig{Driver: DriverSQLite, Name: "school.db"}, false},
		{"sqlite without path", BackendConfig{Driver: DriverSQLite}, true},
		{"postgres complete", BackendConfig{Driver: DriverPostgres, Name: "school", Host: "db", Port: 5432}, false},
		{"postgres without host", BackendConfig{Driver: DriverPostgres, Name: "school", Port: 5432}, true},
		{"postgres bad port", BackendConfig{Driver: DriverPostgres, Name: "school", Host: "db", Port: 70000}, true},
		{"memory", BackendConfig{Driver: DriverMemory}, false},
		{"unknown driver", BackendConfig{Driver: "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Backend = tt.backend
			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate_Cache(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero duration", func(c *Config) { c.Cache.Duration = 0 }},
		{"negative refresh interval", func(c *Config) { c.Cache.RefreshInterval = -time.Second }},
		{"zero retry attempts", func(c *Config) { c.Cache.RetryAttempts = 0 }},
		{"negative backoff", func(c *Config) { c.Cache.RetryBackoff = -time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfig_Validate_EmptySchoolInfoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.SchoolInfoPath = ""
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty school info path")
	}
}

func TestConfig_Validate_Upload(t *testing.T) {
	cfg := validConfig()
	cfg.Upload.Endpoint = ""
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty upload endpoint")
	}

	cfg = validConfig()
	cfg.Upload.MaxBytes = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected error for zero max bytes")
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "custom_value")

	if got := getEnvOrDefault("TEST_ENV_VAR", "default"); got != "custom_value" {
		t.Errorf("expected 'custom_value', got '%s'", got)
	}
	if got := getEnvOrDefault("TEST_ENV_VAR_MISSING", "default"); got != "default" {
		t.Errorf("expected 'default', got '%s'", got)
	}
}

func setupLoadEnv(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("GO_SCHOOL_CONFIG_PATH", tempDir)
	t.Setenv("GO_SCHOOL_DATA_SCHOOL_INFO_PATH", filepath.Join(tempDir, "data", "school.json"))
	t.Setenv("GO_SCHOOL_BACKEND_NAME", filepath.Join(tempDir, "data", "school.db"))
	return tempDir
}

func TestLoadConfig_WithValidDefaults(t *testing.T) {
	setupLoadEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Backend.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.Backend.Driver)
	}
	if cfg.Cache.Duration != 60*time.Second {
		t.Errorf("expected cache duration 60s, got %v", cfg.Cache.Duration)
	}
	if cfg.Cache.RetryAttempts != 1 {
		t.Errorf("expected 1 retry attempt, got %d", cfg.Cache.RetryAttempts)
	}
	if cfg.Upload.Endpoint != "https://api.imgbb.com/1/upload" {
		t.Errorf("unexpected upload endpoint %s", cfg.Upload.Endpoint)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setupLoadEnv(t)
	t.Setenv("GO_SCHOOL_CACHE_DURATION", "30s")
	t.Setenv("GO_SCHOOL_BACKEND_DRIVER", "MEMORY")
	t.Setenv("GO_SCHOOL_BACKEND_STRICT_DELETE", "true")
	t.Setenv("GO_SCHOOL_SERVER_ADMIN_TOKEN", "s3cret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got: %v", err)
	}

	if cfg.Cache.Duration != 30*time.Second {
		t.Errorf("expected cache duration 30s, got %v", cfg.Cache.Duration)
	}
	if cfg.Backend.Driver != DriverMemory {
		t.Errorf("expected memory driver, got %s", cfg.Backend.Driver)
	}
	if !cfg.Backend.StrictDelete {
		t.Error("expected strict delete to be enabled")
	}
	if cfg.Server.AdminToken != "s3cret" {
		t.Errorf("expected admin token from env, got %q", cfg.Server.AdminToken)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tempDir := setupLoadEnv(t)
	yaml := "cache:\n  duration: 2m\nserver:\n  cors_allowed_origins: http://school.local\n"
	if err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got: %v", err)
	}
	if cfg.Cache.Duration != 2*time.Minute {
		t.Errorf("expected cache duration 2m, got %v", cfg.Cache.Duration)
	}
	if cfg.Server.CORSAllowedOrigins != "http://school.local" {
		t.Errorf("unexpected CORS origins %q", cfg.Server.CORSAllowedOrigins)
	}
}

func TestLoadConfig_WithCustomPort(t *testing.T) {
	setupLoadEnv(t)
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
}

func TestLoadConfig_WithInvalidPort(t *testing.T) {
	setupLoadEnv(t)
	t.Setenv("PORT", "not_a_port")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid port, got nil")
	}
}

func TestLoadConfig_CreatesSchoolInfoFile(t *testing.T) {
	tempDir := setupLoadEnv(t)
	infoPath := filepath.Join(tempDir, "data", "school.json")

	if _, err := os.Stat(infoPath); !os.IsNotExist(err) {
		t.Fatal("expected school info file to not exist initially")
	}

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	content, err := os.ReadFile(infoPath)
	if err != nil {
		t.Fatalf("expected school info file to be created: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		t.Fatalf("placeholder is not valid JSON: %v", err)
	}
	if doc["name"] == "" || doc["name"] == nil {
		t.Error("expected placeholder to carry a school name")
	}
}

func TestLoadConfig_UsesExistingSchoolInfoFile(t *testing.T) {
	tempDir := setupLoadEnv(t)
	infoPath := filepath.Join(tempDir, "data", "school.json")
	if err := os.MkdirAll(filepath.Dir(infoPath), 0755); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	existing := `{"name":"San Martin"}`
	if err := os.WriteFile(infoPath, []byte(existing), 0644); err != nil {
		t.Fatalf("failed to write school info: %v", err)
	}

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	content, err := os.ReadFile(infoPath)
	if err != nil {
		t.Fatalf("failed to read school info: %v", err)
	}
	if string(content) != existing {
		t.Errorf("expected '%s', got '%s'", existing, string(content))
	}
}
