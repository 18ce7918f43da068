package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "CONFIG_FILE", "STORAGE_TYPE", "STORAGE_PATH", "SECRET_KEY", "ACCESS_TOKEN_EXPIRE_MINUTES",
		"AWS_REGION", "LLM_MODEL", "SUMMARY_MAX_CHARS", "SUMMARY_MODE", "NATS_URL", "MAX_UPLOAD_BYTES")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorageType != "local" || cfg.StoragePath != "uploads" {
		t.Fatalf("unexpected storage defaults %q %q", cfg.StorageType, cfg.StoragePath)
	}
	if cfg.SecretKey != "dev-secret-key" || cfg.AccessTokenExpireMinutes != 60 {
		t.Fatalf("unexpected auth defaults %q %d", cfg.SecretKey, cfg.AccessTokenExpireMinutes)
	}
	if cfg.AWSRegion != "us-east-1" || cfg.LLMModel != "gpt-3.5-turbo" || cfg.SummaryMaxChars != 3000 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("expected 20 MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.QueueEnabled() {
		t.Fatalf("queue must be disabled without NATS_URL")
	}
}

func TestLoadRequiresBucketForS3(t *testing.T) {
	clearEnv(t, "CONFIG_FILE", "S3_BUCKET_NAME")
	t.Setenv("STORAGE_TYPE", "S3")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without bucket")
	}

	t.Setenv("S3_BUCKET_NAME", "docs")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorageType != "s3" || cfg.S3BucketName != "docs" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsUnknownStorageType(t *testing.T) {
	clearEnv(t, "CONFIG_FILE")
	t.Setenv("STORAGE_TYPE", "gcs")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown storage type")
	}
}

func TestYAMLOverlayFillsUnsetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "STORAGE_PATH: /srv/files\nsummary_lines: 5\nCORS_ALLOWED_ORIGINS:\n  - https://a.example\n  - https://b.example\nLLM_MODEL: from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	clearEnv(t, "STORAGE_PATH", "SUMMARY_LINES", "CORS_ALLOWED_ORIGINS", "STORAGE_TYPE", "SUMMARY_MODE")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MODEL", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoragePath != "/srv/files" || cfg.SummaryLines != 5 {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LLMModel != "from-env" {
		t.Fatalf("environment must win over overlay, got %q", cfg.LLMModel)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DOCS_TEST_FROM_FILE=file\nDOCS_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("DOCS_TEST_PRESET", "env")
	t.Setenv("DOCS_TEST_FROM_FILE", "")
	os.Unsetenv("DOCS_TEST_FROM_FILE")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if os.Getenv("DOCS_TEST_FROM_FILE") != "file" || os.Getenv("DOCS_TEST_PRESET") != "env" {
		t.Fatalf("unexpected env: from_file=%q preset=%q", os.Getenv("DOCS_TEST_FROM_FILE"), os.Getenv("DOCS_TEST_PRESET"))
	}
}
