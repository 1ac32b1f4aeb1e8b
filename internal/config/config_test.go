package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BUCKET_NAME", "landing")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Load.Dataset != "bq_load_avro" {
		t.Errorf("dataset = %s", cfg.Load.Dataset)
	}
	if cfg.Load.TableAll != "avro_all" || cfg.Load.TableRequired != "avro_non_optional" {
		t.Errorf("tables = %s/%s", cfg.Load.TableAll, cfg.Load.TableRequired)
	}
	if cfg.Load.Bucket != "landing" {
		t.Errorf("bucket = %s", cfg.Load.Bucket)
	}
	if cfg.Storage.Backend != "gcs" {
		t.Errorf("backend = %s", cfg.Storage.Backend)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should default to enabled")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
load:
  project_id: my-project
  dataset: custom_ds
  bucket: landing
storage:
  backend: local
  local_dir: /tmp/objects
logging:
  level: debug
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Load.ProjectID != "my-project" || cfg.Load.Dataset != "custom_ds" {
		t.Errorf("load = %+v", cfg.Load)
	}
	// Keys the file omits keep their defaults.
	if cfg.Load.TableAll != "avro_all" {
		t.Errorf("table_all = %s", cfg.Load.TableAll)
	}
	if cfg.Storage.Backend != "local" || cfg.Storage.LocalDir != "/tmp/objects" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s", cfg.Logging.Level)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
load:
  dataset: from_file
  bucket: file-bucket
`)

	t.Setenv("DATASET_NAME", "from_env")
	t.Setenv("BUCKET_NAME", "env-bucket")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Load.Dataset != "from_env" {
		t.Errorf("dataset = %s, env must win over file", cfg.Load.Dataset)
	}
	if cfg.Load.Bucket != "env-bucket" {
		t.Errorf("bucket = %s", cfg.Load.Bucket)
	}
	if cfg.Metrics.Enabled {
		t.Error("METRICS_ENABLED=false should disable metrics")
	}
}

func TestLoadMissingBucket(t *testing.T) {
	t.Setenv("BUCKET_NAME", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when no bucket is configured")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadBadFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}

	path := writeConfig(t, "{not yaml")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
