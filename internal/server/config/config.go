// Package config handles configuration for the ingest server: compiled
// defaults, an optional JSON overlay, then command-line flags.
package config

import "time"

// Config holds runtime settings for the ingest server.
//
// Backend selection: an empty DatabaseDSN keeps the catalog in memory, an
// empty RedisAddr keeps the dedup index in memory, an empty NATSAddr logs
// persisted events instead of publishing them, and an empty MetricsAddr
// disables the metrics endpoint.
type Config struct {
	ListenAddr      string
	QueueCapacity   int
	WorkerCount     int
	MaxConns        int
	StorageBackend  string // "fs" or "s3"
	StorageDir      string
	FingerprintAlgo string
	MaxPayloadBytes uint32
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration

	MetricsAddr string
	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDedupTTL time.Duration

	NATSAddr          string
	NATSSubjectPrefix string

	S3Bucket       string
	S3Region       string
	S3RootUser     string
	S3RootPassword string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults. The queue/worker
// numbers match the original deployment profile (queue of 5, 2 workers).
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8888"
	c.QueueCapacity = 5
	c.WorkerCount = 2
	c.MaxConns = 64
	c.StorageBackend = "fs"
	c.StorageDir = "uploads"
	c.FingerprintAlgo = "sha256"
	c.MaxPayloadBytes = 1 << 30
	c.ReadTimeout = 2 * time.Minute
	c.WriteTimeout = 30 * time.Second
	c.RedisDedupTTL = 24 * time.Hour
	c.NATSSubjectPrefix = "mediaingest"
	c.S3Bucket = "media"
	c.S3Region = "us-east-1"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
