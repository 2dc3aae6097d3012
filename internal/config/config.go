// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of cards per section page when PAGE_SIZE
// is unset.
const DefaultPageSize = 12

// DefaultHomePageSize is the number of cards per page of the all-categories
// list when HOME_PAGE_SIZE is unset.
const DefaultHomePageSize = 20

// ImageHostAccount is one unsigned-upload account on the image host: the
// cloud name that appears in upload URLs and the preset that authorizes it.
type ImageHostAccount struct {
	CloudName    string
	UploadPreset string
}

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host    string
	Port    string
	Env     string // "development", "production", "testing"
	SiteURL string // public base URL, used for sitemap links

	// List pages; 0 disables pagination.
	PageSize     int // category sections
	HomePageSize int // all categories

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache + session store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage, used when no image host account is set.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Third-party image host accounts (CLOUDINARY_CLOUD_NAMES and
	// CLOUDINARY_UPLOAD_PRESETS, comma-separated, paired by position).
	ImageHostAccounts []ImageHostAccount
	ImageHostBaseURL  string

	// NATS server for item change events; empty disables publishing.
	NATSURL string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or if a value cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Host:    envOrDefault("APP_HOST", "0.0.0.0"),
		Port:    envOrDefault("APP_PORT", "8080"),
		Env:     envOrDefault("APP_ENV", "development"),
		SiteURL: strings.TrimRight(envOrDefault("SITE_URL", "https://kasetinfo.netlify.app"), "/"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "kasetinfo"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "kasetinfo"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "kasetinfo-images"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		ImageHostBaseURL: envOrDefault("CLOUDINARY_BASE_URL", "https://api.cloudinary.com/v1_1"),

		NATSURL: os.Getenv("NATS_URL"),
	}

	var err error
	if cfg.PageSize, err = pageSize("PAGE_SIZE", DefaultPageSize); err != nil {
		return nil, err
	}
	if cfg.HomePageSize, err = pageSize("HOME_PAGE_SIZE", DefaultHomePageSize); err != nil {
		return nil, err
	}

	accounts, err := parseAccounts(os.Getenv("CLOUDINARY_CLOUD_NAMES"), os.Getenv("CLOUDINARY_UPLOAD_PRESETS"))
	if err != nil {
		return nil, err
	}
	cfg.ImageHostAccounts = accounts

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// parseAccounts pairs comma-separated cloud names with upload presets by
// position. Lists of different lengths are rejected rather than paired
// partially, since a preset only authorizes uploads to its own cloud.
func parseAccounts(names, presets string) ([]ImageHostAccount, error) {
	nameList := splitList(names)
	presetList := splitList(presets)
	if len(nameList) != len(presetList) {
		return nil, fmt.Errorf(
			"CLOUDINARY_CLOUD_NAMES has %d entries but CLOUDINARY_UPLOAD_PRESETS has %d",
			len(nameList), len(presetList),
		)
	}

	accounts := make([]ImageHostAccount, 0, len(nameList))
	for i := range nameList {
		accounts = append(accounts, ImageHostAccount{CloudName: nameList[i], UploadPreset: presetList[i]})
	}
	return accounts, nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HasS3 reports whether object storage credentials are configured.
func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// pageSize reads a non-negative page size from key.
func pageSize(key string, fallback int) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(fallback)))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, os.Getenv(key))
	}
	return n, nil
}
