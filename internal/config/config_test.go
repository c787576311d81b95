package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Addr() != ":8080" {
		t.Errorf("unexpected addr: %s", cfg.Server.Addr())
	}
	if cfg.Backend.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected backend base url: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("unexpected backend timeout: %s", cfg.Backend.Timeout)
	}
	if cfg.Backend.TTSSpeaker != "7" {
		t.Errorf("unexpected tts speaker: %s", cfg.Backend.TTSSpeaker)
	}
	if cfg.Backend.PageSize != 8 {
		t.Errorf("unexpected page size: %d", cfg.Backend.PageSize)
	}
	if cfg.Site.DefaultLang != "ko" {
		t.Errorf("unexpected default lang: %s", cfg.Site.DefaultLang)
	}
	if cfg.Server.Production() {
		t.Errorf("expected local environment by default")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"NIHONGO_WEB_PORT":             "9090",
		"NIHONGO_WEB_BACKEND_BASE_URL": "https://api.example.com/",
		"NIHONGO_WEB_BACKEND_TIMEOUT":  "3s",
		"NIHONGO_WEB_TTS_SPEAKER":      "2",
		"NIHONGO_WEB_LIST_PAGE_SIZE":   "12",
		"NIHONGO_WEB_DEV":              "true",
		"NIHONGO_WEB_DEFAULT_LANG":     "EN",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected port override, got %s", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("unexpected timeout: %s", cfg.Backend.Timeout)
	}
	if cfg.Backend.TTSSpeaker != "2" || cfg.Backend.PageSize != 12 {
		t.Errorf("unexpected backend config: %+v", cfg.Backend)
	}
	if !cfg.Server.Dev {
		t.Errorf("expected dev mode")
	}
	if cfg.Site.DefaultLang != "en" {
		t.Errorf("expected lower-cased lang, got %s", cfg.Site.DefaultLang)
	}
}

func TestLoadFallsBackToPlatformPort(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{"PORT": "7070"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Port)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nexport NIHONGO_WEB_TTS_SPEAKER=\"3\"\nNIHONGO_WEB_LIST_PAGE_SIZE=5\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(envPath),
		WithEnvMap(map[string]string{"NIHONGO_WEB_LIST_PAGE_SIZE": "20"}),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.TTSSpeaker != "3" {
		t.Errorf("expected .env value, got %s", cfg.Backend.TTSSpeaker)
	}
	if cfg.Backend.PageSize != 20 {
		t.Errorf("expected explicit map to win over .env, got %d", cfg.Backend.PageSize)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"NIHONGO_WEB_BACKEND_BASE_URL": "not a url",
		"NIHONGO_WEB_LIST_PAGE_SIZE":   "0",
		"NIHONGO_WEB_ENV":              "prod",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := map[string]bool{"Backend.BaseURL": false, "Backend.PageSize": false, "Session.SigningKey": false}
	for _, f := range vErr.Fields() {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("expected %s in validation fields %v", f, vErr.Fields())
		}
	}
}
