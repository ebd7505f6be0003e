package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv neutralizes overrides inherited from the test environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PLAYBOOK_CONFIG", "JWT_SECRET", "AWS_BUCKET", "AWS_DEFAULT_REGION", "AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY", "S3_ENDPOINT", "RAPID_API_KEY", "DATABASE_URL", "DATABASE_DRIVER",
		"LISTEN_ADDR", "LOG_LEVEL", "CORS_ORIGINS", "S3_USE_PATH_STYLE",
	} {
		t.Setenv(name, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Ingest.KeyPrefix != "test_videos" {
		t.Errorf("default key prefix = %q, want test_videos", cfg.Ingest.KeyPrefix)
	}
	if cfg.Ingest.UnmatchedURLPolicy != UnmatchedReject {
		t.Errorf("default unmatched policy = %q, want reject", cfg.Ingest.UnmatchedURLPolicy)
	}
	if cfg.Ingest.TagPolicy != TagsMerge {
		t.Errorf("default tag policy = %q, want merge", cfg.Ingest.TagPolicy)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("default driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("default token ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid unmatched policy", func(c *Config) { c.Ingest.UnmatchedURLPolicy = "guess" }, true},
		{"youtube fallback", func(c *Config) { c.Ingest.UnmatchedURLPolicy = "youtube" }, false},
		{"invalid tag policy", func(c *Config) { c.Ingest.TagPolicy = "random" }, true},
		{"caller tags", func(c *Config) { c.Ingest.TagPolicy = "caller" }, false},
		{"invalid driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"postgres driver", func(c *Config) { c.Database.Driver = "postgres" }, false},
		{"invalid log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"empty key prefix", func(c *Config) { c.Ingest.KeyPrefix = "" }, true},
		{"zero max bytes", func(c *Config) { c.Ingest.MaxBytes = 0 }, true},
		{"zero timeout", func(c *Config) { c.HTTP.FetchTimeout = 0 }, true},
		{"zero rate limit", func(c *Config) { c.Server.RateLimitRPS = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizesEnums(t *testing.T) {
	cfg := Default()
	cfg.Ingest.UnmatchedURLPolicy = "YouTube"
	cfg.Ingest.TagPolicy = " Caller"
	cfg.Database.Driver = "Postgres"
	cfg.Log.Level = "DEBUG"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Ingest.UnmatchedURLPolicy != UnmatchedYouTube {
		t.Errorf("unmatched policy = %q, want %q", cfg.Ingest.UnmatchedURLPolicy, UnmatchedYouTube)
	}
	if cfg.Ingest.TagPolicy != TagsCaller {
		t.Errorf("tag policy = %q, want %q", cfg.Ingest.TagPolicy, TagsCaller)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("driver = %q, want %q", cfg.Database.Driver, DriverPostgres)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestValidateStorage(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateStorage(); err == nil {
		t.Error("empty bucket should fail storage validation")
	}
	cfg.Storage.Bucket = "plays"
	if err := cfg.ValidateStorage(); err != nil {
		t.Errorf("ValidateStorage() error: %v", err)
	}
}

func TestLoadFromTOML(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "playbook")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `
[server]
listen_addr = ":9000"
cors_origins = ["https://plays.example.com"]

[storage]
bucket = "plays"
region = "eu-west-1"

[ingest]
key_prefix = "clips"
timeout = "90s"
unmatched_url_policy = "youtube"
tag_policy = "caption"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q, want :9000", cfg.Server.ListenAddr)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://plays.example.com" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Storage.Bucket != "plays" || cfg.Storage.Region != "eu-west-1" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Ingest.KeyPrefix != "clips" {
		t.Errorf("key prefix = %q, want clips", cfg.Ingest.KeyPrefix)
	}
	if cfg.Ingest.Timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", cfg.Ingest.Timeout)
	}
	if cfg.Ingest.UnmatchedURLPolicy != UnmatchedYouTube {
		t.Errorf("unmatched policy = %q, want youtube", cfg.Ingest.UnmatchedURLPolicy)
	}
	if cfg.HTTP.FetchTimeout != 30*time.Second {
		t.Errorf("unset fetch timeout should keep default, got %v", cfg.HTTP.FetchTimeout)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAYBOOK_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AWS_BUCKET", "env-bucket")
	t.Setenv("AWS_DEFAULT_REGION", "ap-south-1")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RAPID_API_KEY", "rapid")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("S3_USE_PATH_STYLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Bucket != "env-bucket" {
		t.Errorf("bucket = %q, want env-bucket", cfg.Storage.Bucket)
	}
	if cfg.Storage.Region != "ap-south-1" {
		t.Errorf("region = %q, want ap-south-1", cfg.Storage.Region)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret not applied")
	}
	if cfg.Extract.RapidAPIKey != "rapid" {
		t.Errorf("rapidapi key not applied")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if !cfg.Storage.UsePathStyle {
		t.Error("use_path_style should be true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Ingest.KeyPrefix != "test_videos" {
		t.Errorf("missing file should return defaults, got key prefix = %q", cfg.Ingest.KeyPrefix)
	}
}

func TestUploadsDir(t *testing.T) {
	cfg := Default()
	cfg.Server.UploadsDir = "/tmp/test-uploads"

	dir, err := cfg.UploadsDir()
	if err != nil {
		t.Fatalf("UploadsDir() error: %v", err)
	}
	if dir != "/tmp/test-uploads" {
		t.Errorf("got %q, want /tmp/test-uploads", dir)
	}
}
