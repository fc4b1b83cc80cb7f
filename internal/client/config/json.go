package config

import (
	"encoding/json"
	"os"

	"github.com/isaiahsam/STDISCM-P3/internal/flagx"
	"github.com/isaiahsam/STDISCM-P3/internal/timex"
)

// JsonConfig is the DTO for reading JSON configuration files. Timeout fields
// use timex.Duration so both "5s" strings and integer nanoseconds parse. Only
// fields present in the file override the running Config.
type JsonConfig struct {
	ServerAddr          *string         `json:"server_addr"`
	DialTimeout         *timex.Duration `json:"dial_timeout"`
	ResponseTimeout     *timex.Duration `json:"response_timeout"`
	ProducerConcurrency *int            `json:"producer_concurrency"`
	FingerprintAlgo     *string         `json:"fingerprint_algo"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flags, when present. A missing flag loads nothing; an unreadable or
// invalid file panics, matching flag parsing behavior.
func parseJson(cfg *Config) {
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

	if c.ServerAddr != nil {
		cfg.ServerAddr = *c.ServerAddr
	}
	if c.DialTimeout != nil {
		cfg.DialTimeout = c.DialTimeout.Duration
	}
	if c.ResponseTimeout != nil {
		cfg.ResponseTimeout = c.ResponseTimeout.Duration
	}
	if c.ProducerConcurrency != nil {
		cfg.ProducerConcurrency = *c.ProducerConcurrency
	}
	if c.FingerprintAlgo != nil {
		cfg.FingerprintAlgo = *c.FingerprintAlgo
	}
}
