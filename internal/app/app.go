package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vk/weft/internal/analyzer"
	"github.com/vk/weft/internal/config"
	"github.com/vk/weft/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	model     *config.Model
	session   *analyzer.Analyzer
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and analysis
// session.
func New(outW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := resolveModel(ctx, appConfig)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration resolved.", "root", model.Root)

	return &App{
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		model:     model,
		session:   analyzer.New(model),
	}
}

// resolveModel picks the configuration source: an explicit -config path, a
// weft.hcl found in the project root, or convention defaults.
func resolveModel(ctx context.Context, appConfig *Config) (*config.Model, error) {
	if appConfig.ConfigPath != "" {
		return config.Load(ctx, appConfig.ConfigPath)
	}
	implicit := filepath.Join(appConfig.Root, "weft.hcl")
	if _, err := os.Stat(implicit); err == nil {
		return config.Load(ctx, implicit)
	}
	return config.Default(appConfig.Root), nil
}

// Session returns the application's analysis session. This is primarily for
// testing.
func (a *App) Session() *analyzer.Analyzer {
	return a.session
}
