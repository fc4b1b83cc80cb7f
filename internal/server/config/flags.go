package config

import (
	"flag"
	"os"

	"github.com/isaiahsam/STDISCM-P3/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   listen address (e.g., ":8888")
//	-q int      ingestion queue capacity
//	-w int      persistence worker count
//	-m int      max concurrent connection handlers
//	-k string   storage backend ("fs" or "s3")
//	-o string   storage directory (fs backend)
//	-f string   fingerprint algorithm ("sha256" or "blake2b-256")
//	-d string   PostgreSQL DSN for the upload catalog
//	-r string   Redis address for the shared dedup index
//	-n string   NATS address for persisted-event publishing
//	-x string   metrics listen address
//	-b string   S3 bucket
//	-g string   S3 region
//	-u string   S3 root user
//	-p string   S3 root password
//	-e string   S3 base endpoint
//
// Args are filtered through flagx.FilterArgs first so flags owned by other
// components do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-q", "-w", "-m", "-k", "-o", "-f", "-d", "-r", "-n", "-x",
		"-b", "-g", "-u", "-p", "-e",
	})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "listen address")
	fs.IntVar(&config.QueueCapacity, "q", config.QueueCapacity, "ingestion queue capacity")
	fs.IntVar(&config.WorkerCount, "w", config.WorkerCount, "persistence worker count")
	fs.IntVar(&config.MaxConns, "m", config.MaxConns, "max concurrent connection handlers")
	fs.StringVar(&config.StorageBackend, "k", config.StorageBackend, "storage backend (fs or s3)")
	fs.StringVar(&config.StorageDir, "o", config.StorageDir, "storage directory")
	fs.StringVar(&config.FingerprintAlgo, "f", config.FingerprintAlgo, "fingerprint algorithm")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.NATSAddr, "n", config.NATSAddr, "NATS address")
	fs.StringVar(&config.MetricsAddr, "x", config.MetricsAddr, "metrics listen address")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
