// Package config handles TOML-based configuration loading and validation.
// Values are layered: defaults < config file < environment < CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Unmatched URL policies.
const (
	UnmatchedReject  = "reject"
	UnmatchedYouTube = "youtube"
)

// Tag policies.
const (
	TagsCaller  = "caller"
	TagsCaption = "caption"
	TagsMerge   = "merge"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Ingest   IngestConfig   `toml:"ingest"`
	Extract  ExtractConfig  `toml:"extract"`
	HTTP     HTTPConfig     `toml:"http"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	ListenAddr     string   `toml:"listen_addr"`
	CORSOrigins    []string `toml:"cors_origins"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
	UploadsDir     string   `toml:"uploads_dir"`
}

type AuthConfig struct {
	JWTSecret  string        `toml:"jwt_secret"`
	TokenTTL   time.Duration `toml:"token_ttl"`
	BcryptCost int           `toml:"bcrypt_cost"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// StorageConfig describes the S3-compatible bucket ingested media lands in.
// PublicHost overrides the host used for public object URLs; it defaults to
// the regional AWS endpoint.
type StorageConfig struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	PublicHost      string `toml:"public_host"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

type IngestConfig struct {
	KeyPrefix          string        `toml:"key_prefix"`
	StagingDir         string        `toml:"staging_dir"`
	MaxBytes           int64         `toml:"max_bytes"`
	Timeout            time.Duration `toml:"timeout"`
	UnmatchedURLPolicy string        `toml:"unmatched_url_policy"`
	TagPolicy          string        `toml:"tag_policy"`
}

type ExtractConfig struct {
	RapidAPIKey  string `toml:"rapidapi_key"`
	RapidAPIHost string `toml:"rapidapi_host"`
	XAPIBase     string `toml:"x_api_base"`
}

type HTTPConfig struct {
	FetchTimeout    time.Duration `toml:"fetch_timeout"`
	DownloadTimeout time.Duration `toml:"download_timeout"`
	UserAgent       string        `toml:"user_agent"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     ":3000",
			CORSOrigins:    []string{"http://localhost:8080"},
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			UploadsDir:     "uploads",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "playbook.db",
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Ingest: IngestConfig{
			KeyPrefix:          "test_videos",
			MaxBytes:           500 * 1024 * 1024,
			Timeout:            5 * time.Minute,
			UnmatchedURLPolicy: UnmatchedReject,
			TagPolicy:          TagsMerge,
		},
		Extract: ExtractConfig{
			RapidAPIHost: "ytstream-download-youtube-videos.p.rapidapi.com",
			XAPIBase:     "https://api.vxtwitter.com",
		},
		HTTP: HTTPConfig{
			FetchTimeout:    30 * time.Second,
			DownloadTimeout: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "playbook"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "playbook"), nil
}

// ConfigPath returns the path to the config file. PLAYBOOK_CONFIG wins
// over the XDG location.
func ConfigPath() (string, error) {
	if p := os.Getenv("PLAYBOOK_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, merges it with defaults and applies
// environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays the deployment's environment variables.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"JWT_SECRET":            &c.Auth.JWTSecret,
		"AWS_BUCKET":            &c.Storage.Bucket,
		"AWS_DEFAULT_REGION":    &c.Storage.Region,
		"AWS_ACCESS_KEY_ID":     &c.Storage.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": &c.Storage.SecretAccessKey,
		"S3_ENDPOINT":           &c.Storage.Endpoint,
		"RAPID_API_KEY":         &c.Extract.RapidAPIKey,
		"DATABASE_URL":          &c.Database.DSN,
		"DATABASE_DRIVER":       &c.Database.Driver,
		"LISTEN_ADDR":           &c.Server.ListenAddr,
		"LOG_LEVEL":             &c.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("S3_USE_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("S3_USE_PATH_STYLE: %w", err)
		}
		c.Storage.UsePathStyle = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalize lower-cases enum values so the spelling that validates is the
// one the rest of the program compares against.
func (c *Config) normalize() {
	c.Ingest.UnmatchedURLPolicy = strings.ToLower(strings.TrimSpace(c.Ingest.UnmatchedURLPolicy))
	c.Ingest.TagPolicy = strings.ToLower(strings.TrimSpace(c.Ingest.TagPolicy))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Validate normalizes enum values and checks config values are within
// acceptable bounds.
func (c *Config) Validate() error {
	c.normalize()

	switch c.Ingest.UnmatchedURLPolicy {
	case UnmatchedReject, UnmatchedYouTube:
	default:
		return fmt.Errorf("unsupported unmatched_url_policy %q (valid: reject, youtube)", c.Ingest.UnmatchedURLPolicy)
	}

	switch c.Ingest.TagPolicy {
	case TagsCaller, TagsCaption, TagsMerge:
	default:
		return fmt.Errorf("unsupported tag_policy %q (valid: caller, caption, merge)", c.Ingest.TagPolicy)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q (valid: sqlite, postgres)", c.Database.Driver)
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("unsupported log level %q", c.Log.Level)
	}

	if c.Ingest.KeyPrefix == "" {
		return fmt.Errorf("ingest key_prefix cannot be empty")
	}
	if c.Ingest.MaxBytes <= 0 {
		return fmt.Errorf("ingest max_bytes must be positive")
	}
	if c.Ingest.Timeout <= 0 || c.HTTP.FetchTimeout <= 0 || c.HTTP.DownloadTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token_ttl must be positive")
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}

// ValidateStorage checks the settings needed to upload to the bucket.
// Commands that never touch object storage skip it.
func (c *Config) ValidateStorage() error {
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket cannot be empty (set AWS_BUCKET)")
	}
	if c.Storage.Region == "" {
		return fmt.Errorf("storage region cannot be empty (set AWS_DEFAULT_REGION)")
	}
	return nil
}

// ValidateAuth checks the settings needed to issue tokens.
func (c *Config) ValidateAuth() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt_secret cannot be empty (set JWT_SECRET)")
	}
	return nil
}

// StagingDir returns the directory staged downloads are written under.
func (c *Config) StagingDir() string {
	if c.Ingest.StagingDir != "" {
		return expandHome(c.Ingest.StagingDir)
	}
	return os.TempDir()
}

// UploadsDir returns the absolute directory direct uploads are written to.
func (c *Config) UploadsDir() (string, error) {
	return filepath.Abs(expandHome(c.Server.UploadsDir))
}

func expandHome(dir string) string {
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[2:])
		}
	}
	return dir
}
