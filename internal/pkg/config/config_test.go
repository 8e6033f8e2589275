package config

import (
	"errors"
	"testing"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/infrastructure/storage"
)

func TestResolveBaseURL_StorageOverrideWins(t *testing.T) {
	kv := storage.NewMemory()
	_ = kv.Set("apiBaseUrl", "https://trial.example.com/ ")

	cfg := &Config{APIBaseURL: "https://api.example.com", Env: EnvDevelop}
	got, err := cfg.ResolveBaseURL(kv)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "https://trial.example.com" {
		t.Fatalf("override not applied: %q", got)
	}
}

func TestResolveBaseURL_TrailingSlashTrimmed(t *testing.T) {
	cfg := &Config{APIBaseURL: "https://api.example.com/", Env: EnvRelease}
	got, err := cfg.ResolveBaseURL(nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "https://api.example.com" {
		t.Fatalf("slash kept: %q", got)
	}
}

func TestResolveBaseURL_DevFallback(t *testing.T) {
	cfg := &Config{Env: EnvDevelop}
	got, err := cfg.ResolveBaseURL(storage.NewMemory())
	if err != nil || got == "" {
		t.Fatalf("develop must fall back to a local origin: %q %v", got, err)
	}
}

func TestResolveBaseURL_ReleaseRequiresExplicitOrigin(t *testing.T) {
	cfg := &Config{Env: EnvRelease}
	_, err := cfg.ResolveBaseURL(storage.NewMemory())
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("release without origin must be a configuration error, got %v", err)
	}
}
