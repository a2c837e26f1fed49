package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateResearch(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CardsDir) == "" {
		return errors.New("paths.cards_dir must be set")
	}
	if c.Paths.QuarantineDir == c.Paths.CardsDir {
		return errors.New("paths.quarantine_dir must differ from paths.cards_dir")
	}
	return nil
}

func (c *Config) validateResearch() error {
	if c.Research.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/liner/config.toml"
		}
		return fmt.Errorf("research.api_key is required. Set PERPLEXITY_API_KEY env var or edit %s (create with 'liner config init')", defaultPath)
	}
	if c.Research.Temperature < 0 || c.Research.Temperature > 2 {
		return errors.New("research.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if !c.Metadata.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Metadata.ClientID) == "" {
		return errors.New("metadata.client_id must be set when metadata.enabled is true")
	}
	if strings.TrimSpace(c.Metadata.ClientSecret) == "" {
		return errors.New("metadata.client_secret must be set when metadata.enabled is true")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if c.Classifier.SuspicionThreshold <= 0 || c.Classifier.SuspicionThreshold > 1 {
		return errors.New("classifier.suspicion_threshold must be in (0, 1]")
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
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
