package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ListenAddr != ":8554" {
		t.Fatalf("listen addr = %s", cfg.ListenAddr)
	}
	if cfg.FrameRate != 60 {
		t.Fatalf("frame rate = %d, want 60", cfg.FrameRate)
	}
	if time.Duration(cfg.IdleTimeout) != 30*time.Second {
		t.Fatalf("idle timeout = %v", time.Duration(cfg.IdleTimeout))
	}
	if cfg.ReadBuffer != 64*1024 || cfg.WriteBuffer != 64*1024 {
		t.Fatalf("buffer sizes = %d/%d", cfg.ReadBuffer, cfg.WriteBuffer)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config has no media_file, expected validation error")
	}
}

func TestLoadFileAndValidate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")

	data := []byte(`{
		"listen_addr":":8554",
		"media_file":"/var/media/stream.h264",
		"frame_rate":60,
		"max_payload":1400,
		"rtp_port":55000,
		"rtcp_port":55001,
		"idle_timeout":"15s",
		"read_buffer":4096,
		"write_buffer":4096,
		"sdp":{"server_host":"127.0.0.1","control_port":8554,"stream_path":"live"}
	}`)
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
}

func TestValidateMissingMediaFile(t *testing.T) {
	cfg := Default()
	cfg.MediaFile = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateAggregatesMultipleErrors(t *testing.T) {
	cfg := Config{} // zero value: almost everything is invalid
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !containsAtLeast(err.Error(), 5) {
		t.Fatalf("expected multiple aggregated errors, got: %v", err)
	}
}

func TestValidateRTPRTCPPortsMustDiffer(t *testing.T) {
	cfg := Default()
	cfg.MediaFile = "/var/media/stream.h264"
	cfg.RTCPPort = cfg.RTPPort
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for identical rtp/rtcp ports")
	}
}

func TestValidateRateLimitRequiresPositiveFields(t *testing.T) {
	cfg := Default()
	cfg.MediaFile = "/var/media/stream.h264"
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSec = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero requests_per_sec")
	}
}

func containsAtLeast(s string, n int) bool {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
		}
	}
	return count >= n
}
