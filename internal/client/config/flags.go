package config

import (
	"flag"
	"os"
	"time"

	"github.com/isaiahsam/STDISCM-P3/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the ingest server
//	-t int      dial timeout in seconds
//	-s int      response timeout in seconds
//	-p int      number of concurrent producers
//	-f string   fingerprint algorithm ("sha256" or "blake2b-256")
//
// Args are filtered through flagx.FilterArgs first so flags owned by other
// components do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-s", "-p", "-f"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerAddr, "a", cfg.ServerAddr, "address and port of the ingest server")
	dialTimeout := fs.Int("t", int(cfg.DialTimeout.Seconds()), "dial timeout (in seconds)")
	responseTimeout := fs.Int("s", int(cfg.ResponseTimeout.Seconds()), "response timeout (in seconds)")
	fs.IntVar(&cfg.ProducerConcurrency, "p", cfg.ProducerConcurrency, "number of concurrent producers")
	fs.StringVar(&cfg.FingerprintAlgo, "f", cfg.FingerprintAlgo, "fingerprint algorithm")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DialTimeout = time.Duration(*dialTimeout) * time.Second
	cfg.ResponseTimeout = time.Duration(*responseTimeout) * time.Second
}
