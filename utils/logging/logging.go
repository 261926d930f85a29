// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

// Package logging provides component-scoped structured loggers.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	envLogLevel  = "DATASPACE_LOG_LEVEL"
	envLogFormat = "DATASPACE_LOG_FORMAT"
)

var (
	baseOnce sync.Once
	base     *slog.Logger
)

// Logger returns a logger scoped to the given component name,
// e.g. logging.Logger("artifact/service").
func Logger(component string) *slog.Logger {
	baseOnce.Do(func() {
		base = newBase(os.Stderr)
	})

	return base.With("component", component)
}

func newBase(w *os.File) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv(envLogLevel)),
	}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv(envLogFormat), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
