package config

import "time"

// Config holds runtime settings for the upload client.
//
// Fields:
//   - ServerAddr: host:port of the ingest server.
//   - DialTimeout: how long to wait for the TCP connect.
//   - ResponseTimeout: how long to wait for the server's result frame.
//   - ProducerConcurrency: how many files upload in parallel.
//   - FingerprintAlgo: digest sent as an advisory hint with each upload.
type Config struct {
	ServerAddr          string
	DialTimeout         time.Duration
	ResponseTimeout     time.Duration
	ProducerConcurrency int
	FingerprintAlgo     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "localhost:8888"
	c.DialTimeout = 5 * time.Second
	c.ResponseTimeout = 2 * time.Minute
	c.ProducerConcurrency = 3
	c.FingerprintAlgo = "sha256"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
