package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/isaiahsam/STDISCM-P3/internal/client"
	"github.com/isaiahsam/STDISCM-P3/internal/client/config"
	"github.com/isaiahsam/STDISCM-P3/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadConfig()
	logger := logging.NewDefault()

	paths := fileArgs()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: client [flags] file [file ...]")
		return 1
	}

	uploader, err := client.NewUploader(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	failed := false
	for _, res := range uploader.UploadConcurrent(context.Background(), paths) {
		if res.Err != nil {
			failed = true
			fmt.Printf("%s: error: %v\n", res.Path, res.Err)
			continue
		}
		fmt.Printf("%s: %s\n", res.Path, res.Outcome)
	}

	if failed {
		return 1
	}
	return 0
}

// fileArgs returns the non-flag command-line arguments, skipping the flags
// the config package owns together with their values, so
// "-a host:port clip.mp4" yields only the file.
func fileArgs() []string {
	known := map[string]bool{
		"-a": true, "-t": true, "-s": true, "-p": true, "-f": true,
		"-c": true, "-config": true,
	}

	var files []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			// "-a=value" carries its value inline
			if strings.Contains(arg, "=") {
				continue
			}
			if known[arg] && i+1 < len(args) {
				i++
			}
			continue
		}
		files = append(files, arg)
	}
	return files
}
