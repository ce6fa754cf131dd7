package commands

import (
	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/config"
	"tableflip.dev/diary/pkg/logging"
)

// open loads the configuration and opens the diary it names.
func open() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level)
	if err != nil {
		return nil, err
	}
	return app.Open(cfg, log)
}
