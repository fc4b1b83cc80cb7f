package main

import (
	"context"
	"log"

	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/server"
	"github.com/isaiahsam/STDISCM-P3/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewDefault()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
