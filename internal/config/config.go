package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kerimovok/go-pkg-utils/config"
	"gopkg.in/yaml.v3"
)

// StorageSettings holds local storage layout settings
type StorageSettings struct {
	Root            string `yaml:"root"`
	Backend         string `yaml:"backend"`
	FilePermissions uint32 `yaml:"file_permissions"`
	DirPermissions  uint32 `yaml:"dir_permissions"`
}

// ThumbnailSettings holds video thumbnail generation settings
type ThumbnailSettings struct {
	Dir            string `yaml:"dir"`
	FfmpegPath     string `yaml:"ffmpeg_path"`
	SeekSeconds    int    `yaml:"seek_seconds"`
	Width          int    `yaml:"width"`
	Quality        int    `yaml:"quality"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the hard wall-clock limit for a single extraction.
func (t ThumbnailSettings) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// CleanupSettings holds the periodic purge/reconcile sweep settings
type CleanupSettings struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
	RetentionHours  int  `yaml:"retention_hours"`
	BatchSize       int  `yaml:"batch_size"`
}

// Interval returns the sweep period.
func (c CleanupSettings) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Retention returns how long soft-deleted files are kept before purge.
func (c CleanupSettings) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// QuotaSettings holds instance-wide storage defaults (human-readable size
// strings, parsed and pushed into the settings row at startup)
type QuotaSettings struct {
	DefaultQuota string `yaml:"default_quota"`
	MaxFileSize  string `yaml:"max_file_size"`
}

// FilesConfig holds the complete file engine configuration
type FilesConfig struct {
	Storage    StorageSettings   `yaml:"storage"`
	Thumbnails ThumbnailSettings `yaml:"thumbnails"`
	Cleanup    CleanupSettings   `yaml:"cleanup"`
	Quota      QuotaSettings     `yaml:"quota"`
}

// MainConfig holds the root configuration
type MainConfig struct {
	Files FilesConfig `yaml:"files"`
}

var (
	Config MainConfig
)

// LoadConfig loads the configuration from config/storage.yaml
func LoadConfig() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if config.GetEnv("GO_ENV") != "production" {
			log.Println("Warning: Failed to load .env file")
		}
	}

	data, err := os.ReadFile("config/storage.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg.Files)
	Config = cfg

	log.Println("File engine configuration loaded from config/storage.yaml")
	return nil
}

func applyDefaults(c *FilesConfig) {
	if c.Storage.Root == "" {
		c.Storage.Root = "./data/files"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.FilePermissions == 0 {
		c.Storage.FilePermissions = 0o644
	}
	if c.Storage.DirPermissions == 0 {
		c.Storage.DirPermissions = 0o755
	}
	if c.Thumbnails.Dir == "" {
		c.Thumbnails.Dir = "thumbnails"
	}
	if c.Thumbnails.FfmpegPath == "" {
		c.Thumbnails.FfmpegPath = "ffmpeg"
	}
	if c.Thumbnails.SeekSeconds == 0 {
		c.Thumbnails.SeekSeconds = 1
	}
	if c.Thumbnails.Width == 0 {
		c.Thumbnails.Width = 480
	}
	if c.Thumbnails.Quality == 0 {
		c.Thumbnails.Quality = 5
	}
	if c.Thumbnails.TimeoutSeconds == 0 {
		c.Thumbnails.TimeoutSeconds = 30
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 60
	}
	if c.Cleanup.RetentionHours == 0 {
		c.Cleanup.RetentionHours = 24
	}
	if c.Cleanup.BatchSize == 0 {
		c.Cleanup.BatchSize = 200
	}
}

// GetConfig returns the current configuration
func GetConfig() MainConfig {
	return Config
}
