package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.ProgressEvery <= 0 {
		return errors.New("organize.progress_every must be positive")
	}
	if c.Organize.Workers <= 0 {
		return errors.New("organize.workers must be positive")
	}
	if c.Organize.Workers > maxWorkers {
		return fmt.Errorf("organize.workers must be at most %d", maxWorkers)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.ProbeTimeoutSeconds <= 0 {
		return errors.New("media.probe_timeout_seconds must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
