package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/datawhisper/datawhisper/internal/cli/datawhisper"
	"github.com/datawhisper/datawhisper/internal/config"
	"github.com/datawhisper/datawhisper/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv("datawhisper")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// The interactive view owns the terminal, so logs only go to a file.
	var logOutput io.Writer = io.Discard
	if cfg.Client.LogFile != "" {
		file, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			os.Exit(2)
		}
		defer func() { _ = file.Close() }()
		logOutput = file
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := datawhisper.Run(ctx, os.Args[1:], datawhisper.Options{
		BaseURL: cfg.Client.APIURL,
		APIKey:  cfg.Client.APIKey,
		Timeout: cfg.Client.Timeout,
		Logger:  observability.NewLogger(cfg, logOutput),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	stop()
	os.Exit(code)
}
