package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.DBPath != DefaultDBPath || cfg.Addr != DefaultAddr || cfg.MediaDir != DefaultMediaDir {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.NATSURL != "" || cfg.CORSOrigins != nil {
		t.Errorf("expected optional settings to be empty: %+v", cfg)
	}
}

func TestParseEnvAndFlags(t *testing.T) {
	env := envMap(map[string]string{
		"LOSTFOUND_DB":           "env.db",
		"LOSTFOUND_ADDR":         ":9000",
		"LOSTFOUND_CORS_ORIGINS": "https://a.example, https://b.example,",
	})

	cfg, err := Parse([]string{"-a", ":7000", "-nats", "nats://localhost:4222"}, env, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.DBPath != "env.db" {
		t.Errorf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("expected flag to override env, got %q", cfg.Addr)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("unexpected nats url %q", cfg.NATSURL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("expected %v, got %v", want, cfg.CORSOrigins)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]string{"-h"}, envMap(nil), io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
	if _, err := Parse([]string{"extra"}, envMap(nil), io.Discard); err == nil {
		t.Error("expected error for positional argument")
	}
	if _, err := Parse([]string{"-bogus"}, envMap(nil), io.Discard); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LOSTFOUND_TEST_MEDIA=/srv/media\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOSTFOUND_TEST_MEDIA", "")
	os.Unsetenv("LOSTFOUND_TEST_MEDIA")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("LOSTFOUND_TEST_MEDIA"); got != "/srv/media" {
		t.Errorf("expected value from .env, got %q", got)
	}
}
