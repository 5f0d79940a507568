package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/ngstatic/internal/console"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger     *slog.Logger
	console    *console.Console
	config     *Config
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Progress and warnings
// are printed to outW, structured logs are written to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		logger:  logger,
		console: console.New(outW, !cfg.NoColor),
		config:  cfg,
	}
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
