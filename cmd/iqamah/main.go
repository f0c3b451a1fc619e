package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Nixie-Tech-LLC/iqamah/internal/app"
	"github.com/Nixie-Tech-LLC/iqamah/internal/cli"
	"github.com/Nixie-Tech-LLC/iqamah/internal/config"
	"github.com/Nixie-Tech-LLC/iqamah/internal/logger"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

func main() {
	root := cli.NewRootCmd(version, build)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func build(ctx context.Context) (*cli.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Keep the terminal quiet unless asked otherwise.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger.Setup(level, "text")

	a, err := app.Build(ctx, cfg, app.Options{SkipRedis: true})
	if err != nil {
		return nil, err
	}
	return &cli.Runtime{Service: a.Service, Writer: a.Store, Close: a.Close}, nil
}
