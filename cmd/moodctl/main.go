package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pscheid92/moodpulse/internal/platform/logging"
)

func main() {
	logging.InitLogger(envOr("LOG_LEVEL", "warn"), "text")

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
