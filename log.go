package main

import (
	"fmt"
	"log/slog"
	"os"
)

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

func initLogger() error {
	level, err := parseLevel(FlagVerbose)
	if err != nil {
		return err
	}
	if FlagDebug {
		level = slog.LevelDebug
	}
	// Explicitly use text handler
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level, // set log level
	}))
	slog.SetDefault(logger)
	return nil
}
