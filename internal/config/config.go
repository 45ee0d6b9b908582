package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// RateLimitConfig defines per-IP control-connection admission throttling.
type RateLimitConfig struct {
	Enabled        bool    `json:"enabled"`
	RequestsPerSec float64 `json:"requests_per_sec"`
	Burst          int     `json:"burst"`
}

// SessionLimitConfig bounds concurrent streaming sessions. The fixed media
// ports (55000/55001) are process-wide state, so MaxTotal defaults to 1; a
// re-deployment with per-session port allocation could raise it.
type SessionLimitConfig struct {
	MaxTotal int64 `json:"max_total_sessions"`
	MaxPerIP int64 `json:"max_per_ip"`
}

// SDPConfig carries the server-identity fields announced in the session
// description and the DESCRIBE reply's Content-Base header.
type SDPConfig struct {
	ServerHost  string `json:"server_host"`
	ControlPort int    `json:"control_port"`
	StreamPath  string `json:"stream_path"`
}

// Config defines rtspd's server settings.
type Config struct {
	ListenAddr   string             `json:"listen_addr"`
	HTTPAddr     string             `json:"http_addr"`
	MediaFile    string             `json:"media_file"`
	FrameRate    int                `json:"frame_rate"`
	MaxPayload   int                `json:"max_payload"`
	RTPPort      int                `json:"rtp_port"`
	RTCPPort     int                `json:"rtcp_port"`
	IdleTimeout  Duration           `json:"idle_timeout"`
	ReadBuffer   int                `json:"read_buffer"`
	WriteBuffer  int                `json:"write_buffer"`
	RateLimit    RateLimitConfig    `json:"rate_limit,omitempty"`
	SessionLimit SessionLimitConfig `json:"session_limit,omitempty"`
	SDP          SDPConfig          `json:"sdp,omitempty"`
}

// Default returns the settings that reproduce the original fixed single-file,
// single-session deployment.
func Default() Config {
	return Config{
		ListenAddr:  ":8554",
		HTTPAddr:    ":8080",
		MediaFile:   "",
		FrameRate:   60,
		MaxPayload:  1400,
		RTPPort:     55000,
		RTCPPort:    55001,
		IdleTimeout: Duration(30_000_000_000), // 30 seconds in nanoseconds
		ReadBuffer:  64 * 1024,
		WriteBuffer: 64 * 1024,
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerSec: 10,
			Burst:          20,
		},
		SessionLimit: SessionLimitConfig{
			MaxTotal: 1,
			MaxPerIP: 1,
		},
		SDP: SDPConfig{
			ServerHost:  "127.0.0.1",
			ControlPort: 8554,
			StreamPath:  "live",
		},
	}
}

// LoadFile reads and decodes a JSON configuration file. Fields absent from
// the file keep their zero value; callers typically start from Default() and
// unmarshal over it, or call Validate() to catch zero values that matter.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

const (
	MinBufferSize = 4 * 1024    // 4 KB
	MaxBufferSize = 1024 * 1024 // 1 MB

	MinPayload = 64   // smallest sane fragmentation budget
	MaxPayload = 8192  // jumbo-frame ceiling
)

// Validate checks every field independently and aggregates all violations
// via go-multierror, rather than stopping at the first.
func (c Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.ListenAddr) == "" {
		result = multierror.Append(result, fmt.Errorf("listen_addr is required"))
	}
	if strings.TrimSpace(c.MediaFile) == "" {
		result = multierror.Append(result, fmt.Errorf("media_file is required"))
	}
	if c.FrameRate <= 0 {
		result = multierror.Append(result, fmt.Errorf("frame_rate must be positive"))
	}
	if c.MaxPayload < MinPayload || c.MaxPayload > MaxPayload {
		result = multierror.Append(result, fmt.Errorf("max_payload must be between %d and %d bytes", MinPayload, MaxPayload))
	}
	if c.RTPPort <= 0 || c.RTPPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("rtp_port must be a valid port"))
	}
	if c.RTCPPort <= 0 || c.RTCPPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("rtcp_port must be a valid port"))
	}
	if c.RTPPort == c.RTCPPort {
		result = multierror.Append(result, fmt.Errorf("rtp_port and rtcp_port must differ"))
	}
	if c.ReadBuffer < MinBufferSize || c.ReadBuffer > MaxBufferSize {
		result = multierror.Append(result, fmt.Errorf("read_buffer must be between %d and %d bytes", MinBufferSize, MaxBufferSize))
	}
	if c.WriteBuffer < MinBufferSize || c.WriteBuffer > MaxBufferSize {
		result = multierror.Append(result, fmt.Errorf("write_buffer must be between %d and %d bytes", MinBufferSize, MaxBufferSize))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSec <= 0 {
			result = multierror.Append(result, fmt.Errorf("rate_limit.requests_per_sec must be positive when enabled"))
		}
		if c.RateLimit.Burst <= 0 {
			result = multierror.Append(result, fmt.Errorf("rate_limit.burst must be positive when enabled"))
		}
	}
	if c.SessionLimit.MaxTotal < 0 {
		result = multierror.Append(result, fmt.Errorf("session_limit.max_total_sessions must be >= 0"))
	}
	if c.SessionLimit.MaxPerIP < 0 {
		result = multierror.Append(result, fmt.Errorf("session_limit.max_per_ip must be >= 0"))
	}
	if strings.TrimSpace(c.SDP.ServerHost) == "" {
		result = multierror.Append(result, fmt.Errorf("sdp.server_host is required"))
	}
	if c.SDP.ControlPort <= 0 || c.SDP.ControlPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("sdp.control_port must be a valid port"))
	}

	return result.ErrorOrNil()
}
