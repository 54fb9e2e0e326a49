package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Root is the project directory to analyze.
	Root string
	// ConfigPath points at an explicit weft.hcl; empty means look for one in
	// Root and fall back to convention defaults.
	ConfigPath string
	// OutputPath is where the YAML report goes; empty means the process
	// output writer.
	OutputPath string

	// Watch keeps the process alive and re-analyzes on file changes.
	Watch bool
	// Listen is the live-report server address; empty disables it.
	Listen string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		return nil, errors.New("Root is a required configuration field and cannot be empty")
	}
	if cfg.Listen != "" && !cfg.Watch {
		return nil, errors.New("Listen requires watch mode")
	}
	return &cfg, nil
}
