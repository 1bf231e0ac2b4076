package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/chocoflow/types"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `source_type: normal
source_locator: https://feed.example.com/api/v2
cache_location: /var/cache/chocoflow
install_arguments: /quiet
package_parameters: /NoDesktopShortcut

credentials:
  user: svc-installer
  password: ${INSTALL_PASSWORD}

features:
  exit_on_reboot_detected: true
  regular_output: true

event_bus:
  type: webhook
  url: https://hooks.example.com/chocoflow
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3

package_info:
  backend: s3
  bucket: chocoflow-package-info
  prefix: prod
  region: us-east-1
`
	t.Setenv("INSTALL_PASSWORD", "hunter2")

	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "source_type", cfg.SourceType, "normal")
	assertEqual(t, "source_locator", cfg.SourceLocator, "https://feed.example.com/api/v2")
	assertEqual(t, "cache_location", cfg.CacheLocation, "/var/cache/chocoflow")
	assertEqual(t, "install_arguments", cfg.InstallArguments, "/quiet")
	assertEqual(t, "package_parameters", cfg.PackageParameters, "/NoDesktopShortcut")

	assertEqual(t, "credentials.user", cfg.Credentials.User, "svc-installer")
	assertEqual(t, "credentials.password", cfg.Credentials.Password, "hunter2")

	if !cfg.Features["exit_on_reboot_detected"] {
		t.Error("expected features.exit_on_reboot_detected=true")
	}

	assertEqual(t, "event_bus.type", cfg.EventBus.Type, "webhook")
	assertEqual(t, "event_bus.url", cfg.EventBus.URL, "https://hooks.example.com/chocoflow")
	if cfg.EventBus.Timeout.Duration != 10*time.Second {
		t.Errorf("expected event_bus.timeout=10s, got %v", cfg.EventBus.Timeout.Duration)
	}
	if cfg.EventBus.Retries == nil || *cfg.EventBus.Retries != 3 {
		t.Errorf("expected event_bus.retries=3")
	}
	if cfg.EventBus.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("expected Authorization header")
	}

	assertEqual(t, "package_info.backend", cfg.PackageInfo.Backend, "s3")
	assertEqual(t, "package_info.bucket", cfg.PackageInfo.Bucket, "chocoflow-package-info")
	assertEqual(t, "package_info.region", cfg.PackageInfo.Region, "us-east-1")
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SourceType != "" {
		t.Errorf("expected empty source_type, got %q", cfg.SourceType)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/chocoflow.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SOURCE_LOCATOR", "https://expanded.example.com")

	yaml := `source_locator: ${TEST_SOURCE_LOCATOR}`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "source_locator", cfg.SourceLocator, "https://expanded.example.com")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `source_type: normal
bogus_key: should_fail
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `package_info:
  backend: file
  path: ./data
  unknown_field: bad
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	path := writeTemp(t, "event_bus:\n  timeout: 30s\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EventBus.Timeout.Duration != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.EventBus.Timeout.Duration)
	}
}

func TestApplyDefaults_FillsZeroValueFieldsOnly(t *testing.T) {
	fileDefaults := &Config{
		SourceType:    "normal",
		CacheLocation: "/var/cache/chocoflow",
		Features: map[string]bool{
			"exit_on_reboot_detected": true,
		},
	}

	cmd := &types.Configuration{
		SourceType: "internal", // CLI already set this; must not be overwritten
	}

	fileDefaults.ApplyDefaults(cmd)

	if cmd.SourceType != "internal" {
		t.Errorf("expected CLI-set source_type to win, got %q", cmd.SourceType)
	}
	if cmd.CacheLocation != "/var/cache/chocoflow" {
		t.Errorf("expected cache_location default to apply, got %q", cmd.CacheLocation)
	}
	if !cmd.Features.ExitOnRebootDetected {
		t.Error("expected exit_on_reboot_detected feature to apply")
	}
}

func TestApplyDefaults_NilConfigIsNoop(t *testing.T) {
	var fileDefaults *Config
	cmd := &types.Configuration{SourceType: "normal"}
	fileDefaults.ApplyDefaults(cmd)
	if cmd.SourceType != "normal" {
		t.Error("expected nil Config.ApplyDefaults to be a no-op")
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "chocoflow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
