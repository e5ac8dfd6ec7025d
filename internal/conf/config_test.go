package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetupConfigWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "config.toml")
	cfg, err := SetupConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Curation.BaseFrameRate != 30 {
		t.Fatalf("base frame rate = %v", cfg.Curation.BaseFrameRate)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("default config not written:", err)
	}

	again, err := SetupConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Curation.SessionIdleTimeout.Duration() != 2*time.Hour {
		t.Fatalf("idle timeout = %v", again.Curation.SessionIdleTimeout.Duration())
	}
}

func TestSetupConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[Server.HTTP]
Port = 8080

[Curation]
BaseFrameRate = 0
FrameLimit = 500
AnalysisAddr = "127.0.0.1:50052"
AnalysisTimeout = "90s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := SetupConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTP.Port != 8080 || cfg.Curation.FrameLimit != 500 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Curation.AnalysisTimeout.Duration() != 90*time.Second {
		t.Fatalf("timeout = %v", cfg.Curation.AnalysisTimeout.Duration())
	}
	// 非法值回落到默认
	if cfg.Curation.BaseFrameRate != 30 {
		t.Fatalf("base frame rate = %v", cfg.Curation.BaseFrameRate)
	}
	if cfg.Data.Database.Dsn != "configs/data.db" {
		t.Fatalf("dsn default lost: %q", cfg.Data.Database.Dsn)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	b, _ := d.MarshalText()
	if string(b) != "1m30s" {
		t.Fatalf("marshal = %s", b)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Fatal("expect parse error")
	}
}
