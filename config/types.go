package config

import "time"

// Logging selects the log level and optional rotating log file.
type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// Auth configures HMAC signed bearer tokens. When disabled, callers identify
// themselves with the X-Caller header, which is only suitable for local use.
type Auth struct {
	Enabled    bool   `toml:"Enabled"`
	HMACSecret string `toml:"HMACSecret"`
	Issuer     string `toml:"Issuer"`
	Audience   string `toml:"Audience"`
	// ClockSkewSeconds tolerates small clock drift between issuer and server.
	ClockSkewSeconds int64 `toml:"ClockSkewSeconds"`
}

func (a Auth) ClockSkew() time.Duration {
	if a.ClockSkewSeconds <= 0 {
		return 0
	}
	return time.Duration(a.ClockSkewSeconds) * time.Second
}

// RateLimit throttles requests per client address. TrustProxyHeaders keys
// clients by X-Real-IP or X-Forwarded-For and is only safe behind a proxy
// that overwrites them.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
	TrustProxyHeaders bool    `toml:"TrustProxyHeaders"`
}

func (r *RateLimit) applyDefaults() {
	if r.RequestsPerSecond <= 0 {
		r.RequestsPerSecond = 20
	}
	if r.Burst <= 0 {
		r.Burst = 40
	}
}

// Telemetry configures OTLP export of traces and metrics.
type Telemetry struct {
	ServiceName string  `toml:"ServiceName"`
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	// SampleRatio keeps this fraction of root spans; 0 keeps all of them.
	SampleRatio float64 `toml:"SampleRatio"`
}
