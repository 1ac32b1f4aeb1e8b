// Package config loads bridge configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Load    LoadConfig    `yaml:"load"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig names the warehouse destinations and the watched bucket.
type LoadConfig struct {
	ProjectID     string `yaml:"project_id"`
	Dataset       string `yaml:"dataset"`
	TableAll      string `yaml:"table_all"`
	TableRequired string `yaml:"table_required"`
	Bucket        string `yaml:"bucket"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend"` // "gcs" | "local"
	LocalDir string `yaml:"local_dir"`
}

type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns the baseline configuration. Destination names follow the
// warehouse dataset this bridge was built for.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Load: LoadConfig{
			Dataset:       "bq_load_avro",
			TableAll:      "avro_all",
			TableRequired: "avro_non_optional",
		},
		Storage: StorageConfig{Backend: "gcs"},
		Logging: LoggingConfig{Format: "json", Level: "info"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Load.Bucket == "" {
		return Config{}, fmt.Errorf("bucket name is required (load.bucket / BUCKET_NAME)")
	}

	return cfg, nil
}

// MustLoad loads configuration or exits.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	return cfg
}

func applyEnv(cfg *Config) {
	setenv(&cfg.Server.Addr, "LISTEN_ADDR")
	setenv(&cfg.Load.ProjectID, "PROJECT_ID")
	setenv(&cfg.Load.Dataset, "DATASET_NAME")
	setenv(&cfg.Load.TableAll, "TABLE_ALL")
	setenv(&cfg.Load.TableRequired, "TABLE_REQUIRED")
	setenv(&cfg.Load.Bucket, "BUCKET_NAME")
	setenv(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setenv(&cfg.Storage.LocalDir, "LOCAL_DIR")
	setenv(&cfg.Logging.Format, "LOG_FORMAT")
	setenv(&cfg.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
