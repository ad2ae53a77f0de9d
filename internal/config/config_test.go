package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Image.MaxLongSide != 1800 {
		t.Fatalf("expected max long side 1800, got %d", cfg.Image.MaxLongSide)
	}
	if cfg.Image.Quality != 0.85 {
		t.Fatalf("expected quality 0.85, got %v", cfg.Image.Quality)
	}
	if cfg.Wizard.MinDuration != 5*time.Second {
		t.Fatalf("expected 5s minimum duration, got %s", cfg.Wizard.MinDuration)
	}
	if cfg.Wizard.SwapDelay != 700*time.Millisecond {
		t.Fatalf("expected 700ms swap delay, got %s", cfg.Wizard.SwapDelay)
	}
	if cfg.Wizard.DotsInterval != 500*time.Millisecond {
		t.Fatalf("expected 500ms dots interval, got %s", cfg.Wizard.DotsInterval)
	}
	if cfg.Worker.Concurrency < 2 || cfg.Worker.MaxActiveJobs < 1 {
		t.Fatalf("expected derived worker defaults, got %+v", cfg.Worker)
	}
	if cfg.API.Addr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.API.Addr)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("IMAGE_MAX_LONG_SIDE", "1024")
	t.Setenv("WIZARD_MIN_DURATION", "2s")
	t.Setenv("UPLOAD_ENDPOINT", "https://example.test/upload")
	t.Setenv("MEMORYFLOW_API_ADDR", ":9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Image.MaxLongSide != 1024 {
		t.Fatalf("expected 1024, got %d", cfg.Image.MaxLongSide)
	}
	if cfg.Wizard.MinDuration != 2*time.Second {
		t.Fatalf("expected 2s, got %s", cfg.Wizard.MinDuration)
	}
	if cfg.Upload.Endpoint != "https://example.test/upload" {
		t.Fatalf("unexpected endpoint %s", cfg.Upload.Endpoint)
	}
	if cfg.API.Addr != ":9999" {
		t.Fatalf("expected :9999, got %s", cfg.API.Addr)
	}
}

func TestLoadRejectsBadQuality(t *testing.T) {
	t.Setenv("IMAGE_QUALITY", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for quality above 1")
	}
}
