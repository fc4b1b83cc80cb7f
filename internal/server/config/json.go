package config

import (
	"encoding/json"
	"os"

	"github.com/isaiahsam/STDISCM-P3/internal/flagx"
	"github.com/isaiahsam/STDISCM-P3/internal/timex"
)

// JsonConfig is the DTO for reading JSON configuration files. Interval
// fields use timex.Duration so both "30s" strings and integer nanoseconds
// parse. Only fields present in the file override the running Config.
type JsonConfig struct {
	ListenAddr      *string         `json:"listen_addr"`
	QueueCapacity   *int            `json:"queue_capacity"`
	WorkerCount     *int            `json:"worker_count"`
	MaxConns        *int            `json:"max_conns"`
	StorageBackend  *string         `json:"storage_backend"`
	StorageDir      *string         `json:"storage_dir"`
	FingerprintAlgo *string         `json:"fingerprint_algo"`
	MaxPayloadBytes *uint32         `json:"max_payload_bytes"`
	ReadTimeout     *timex.Duration `json:"read_timeout"`
	WriteTimeout    *timex.Duration `json:"write_timeout"`

	MetricsAddr *string `json:"metrics_addr"`
	DatabaseDSN *string `json:"database_dsn"`

	RedisAddr     *string         `json:"redis_addr"`
	RedisPassword *string         `json:"redis_password"`
	RedisDedupTTL *timex.Duration `json:"redis_dedup_ttl"`

	NATSAddr          *string `json:"nats_addr"`
	NATSSubjectPrefix *string `json:"nats_subject_prefix"`

	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flags, when present. A missing flag loads nothing; an unreadable or
// invalid file panics, matching flag parsing behavior.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyJson(config, c)
}

func applyJson(config *Config, c *JsonConfig) {
	if c.ListenAddr != nil {
		config.ListenAddr = *c.ListenAddr
	}
	if c.QueueCapacity != nil {
		config.QueueCapacity = *c.QueueCapacity
	}
	if c.WorkerCount != nil {
		config.WorkerCount = *c.WorkerCount
	}
	if c.MaxConns != nil {
		config.MaxConns = *c.MaxConns
	}
	if c.StorageBackend != nil {
		config.StorageBackend = *c.StorageBackend
	}
	if c.StorageDir != nil {
		config.StorageDir = *c.StorageDir
	}
	if c.FingerprintAlgo != nil {
		config.FingerprintAlgo = *c.FingerprintAlgo
	}
	if c.MaxPayloadBytes != nil {
		config.MaxPayloadBytes = *c.MaxPayloadBytes
	}
	if c.ReadTimeout != nil {
		config.ReadTimeout = c.ReadTimeout.Duration
	}
	if c.WriteTimeout != nil {
		config.WriteTimeout = c.WriteTimeout.Duration
	}
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.RedisAddr != nil {
		config.RedisAddr = *c.RedisAddr
	}
	if c.RedisPassword != nil {
		config.RedisPassword = *c.RedisPassword
	}
	if c.RedisDedupTTL != nil {
		config.RedisDedupTTL = c.RedisDedupTTL.Duration
	}
	if c.NATSAddr != nil {
		config.NATSAddr = *c.NATSAddr
	}
	if c.NATSSubjectPrefix != nil {
		config.NATSSubjectPrefix = *c.NATSSubjectPrefix
	}
	if c.S3Bucket != nil {
		config.S3Bucket = *c.S3Bucket
	}
	if c.S3Region != nil {
		config.S3Region = *c.S3Region
	}
	if c.S3RootUser != nil {
		config.S3RootUser = *c.S3RootUser
	}
	if c.S3RootPassword != nil {
		config.S3RootPassword = *c.S3RootPassword
	}
	if c.S3BaseEndpoint != nil {
		config.S3BaseEndpoint = *c.S3BaseEndpoint
	}
}
