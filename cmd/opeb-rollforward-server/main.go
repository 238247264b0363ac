package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/iwvelando/opeb-rollforward/internal/server"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.String("config", "", "path to server configuration file")
	address := flag.String("address", "", "listen address override (e.g., :8080)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration\", \"error\": \"%v\"}\n", err)
		return
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	handler := server.NewHandler(logger, cfg.UploadSizeBytes(), version)

	logger.Info("starting roll-forward API server",
		zap.String("op", "main"),
		zap.String("address", cfg.Address),
	)
	if err := http.ListenAndServe(cfg.Address, handler); err != nil {
		logger.Fatal("server exited",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
