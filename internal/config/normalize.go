package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeResearch()
	c.normalizeMetadata()
	c.normalizeEncyclopedia()
	c.normalizeClassifier()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.CardsDir, err = expandPath(c.Paths.CardsDir); err != nil {
		return fmt.Errorf("paths.cards_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		c.Paths.QuarantineDir = filepath.Join(c.Paths.CardsDir, defaultQuarantineBase)
	}
	if c.Paths.QuarantineDir, err = expandPath(c.Paths.QuarantineDir); err != nil {
		return fmt.Errorf("paths.quarantine_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		c.Paths.BackupDir = filepath.Join(c.Paths.CardsDir, defaultBackupBase)
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.GraphPath) == "" {
		c.Paths.GraphPath = filepath.Join(c.Paths.CardsDir, defaultGraphFile)
	}
	if c.Paths.GraphPath, err = expandPath(c.Paths.GraphPath); err != nil {
		return fmt.Errorf("paths.graph_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeResearch() {
	if c.Research.APIKey == "" {
		if value, ok := os.LookupEnv("PERPLEXITY_API_KEY"); ok {
			c.Research.APIKey = value
		}
	}
	c.Research.APIKey = strings.TrimSpace(c.Research.APIKey)
	c.Research.BaseURL = strings.TrimSpace(c.Research.BaseURL)
	if c.Research.BaseURL == "" {
		c.Research.BaseURL = defaultResearchBaseURL
	}
	c.Research.Model = strings.TrimSpace(c.Research.Model)
	if c.Research.Model == "" {
		c.Research.Model = defaultResearchModel
	}
	if c.Research.MaxTokens <= 0 {
		c.Research.MaxTokens = defaultResearchMaxTokens
	}
	if c.Research.TimeoutSeconds <= 0 {
		c.Research.TimeoutSeconds = defaultResearchTimeoutSeconds
	}
}

func (c *Config) normalizeMetadata() {
	if c.Metadata.ClientID == "" {
		if value, ok := os.LookupEnv("SPOTIFY_CLIENT_ID"); ok {
			c.Metadata.ClientID = value
		}
	}
	if c.Metadata.ClientSecret == "" {
		if value, ok := os.LookupEnv("SPOTIFY_CLIENT_SECRET"); ok {
			c.Metadata.ClientSecret = value
		}
	}
	c.Metadata.BaseURL = strings.TrimSpace(c.Metadata.BaseURL)
	if c.Metadata.BaseURL == "" {
		c.Metadata.BaseURL = defaultMetadataBaseURL
	}
	c.Metadata.TokenURL = strings.TrimSpace(c.Metadata.TokenURL)
	if c.Metadata.TokenURL == "" {
		c.Metadata.TokenURL = defaultMetadataTokenURL
	}
	if c.Metadata.TimeoutSeconds <= 0 {
		c.Metadata.TimeoutSeconds = defaultMetadataTimeoutSeconds
	}
}

func (c *Config) normalizeEncyclopedia() {
	c.Encyclopedia.BaseURL = strings.TrimSpace(c.Encyclopedia.BaseURL)
	if c.Encyclopedia.BaseURL == "" {
		c.Encyclopedia.BaseURL = defaultEncyclopediaBaseURL
	}
	c.Encyclopedia.UserAgent = strings.TrimSpace(c.Encyclopedia.UserAgent)
	if c.Encyclopedia.UserAgent == "" {
		c.Encyclopedia.UserAgent = defaultEncyclopediaUserAgent
	}
	if c.Encyclopedia.TimeoutSeconds <= 0 {
		c.Encyclopedia.TimeoutSeconds = defaultEncyclopediaTimeoutSeconds
	}
}

func (c *Config) normalizeClassifier() {
	if c.Classifier.URLPatternPoints <= 0 {
		c.Classifier.URLPatternPoints = defaultURLPatternPoints
	}
	if c.Classifier.FoodTermPoints <= 0 {
		c.Classifier.FoodTermPoints = defaultFoodTermPoints
	}
	if c.Classifier.FoodTermWithURLPoints <= 0 {
		c.Classifier.FoodTermWithURLPoints = defaultFoodTermWithURLPoints
	}
	if c.Classifier.GenrePhrasePoints <= 0 {
		c.Classifier.GenrePhrasePoints = defaultGenrePhrasePoints
	}
	if c.Classifier.GenericActsPoints <= 0 {
		c.Classifier.GenericActsPoints = defaultGenericActsPoints
	}
	if c.Classifier.MismatchPhrasePoints <= 0 {
		c.Classifier.MismatchPhrasePoints = defaultMismatchPhrasePoints
	}
	if c.Classifier.TitleDivergencePoints <= 0 {
		c.Classifier.TitleDivergencePoints = defaultTitleDivergencePoints
	}
	if c.Classifier.SuspicionThreshold <= 0 {
		c.Classifier.SuspicionThreshold = defaultSuspicionThreshold
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.RateLimitSeconds <= 0 {
		c.Workflow.RateLimitSeconds = defaultRateLimitSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
