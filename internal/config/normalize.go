package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeChunking()
	c.normalizeDelivery()
	c.normalizeLLM()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArtifactDir) == "" {
		c.Paths.ArtifactDir = defaultArtifactDir
	}
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	if c.Extraction.MinInlineChars <= 0 {
		c.Extraction.MinInlineChars = defaultMinInlineChars
	}
	if c.Extraction.MinWords <= 0 {
		c.Extraction.MinWords = defaultMinWords
	}
	if c.Extraction.FetchTimeout <= 0 {
		c.Extraction.FetchTimeout = defaultFetchTimeout
	}
}

func (c *Config) normalizeChunking() {
	if c.Chunking.TargetWords <= 0 {
		c.Chunking.TargetWords = defaultTargetWords
	}
	if c.Chunking.Tolerance <= 0 {
		c.Chunking.Tolerance = defaultTolerance
	}
	if c.Chunking.RecapWords <= 0 {
		c.Chunking.RecapWords = defaultRecapWords
	}
}

func (c *Config) normalizeDelivery() {
	c.Delivery.DeviceEmail = strings.TrimSpace(c.Delivery.DeviceEmail)
	c.Delivery.FromAddress = strings.TrimSpace(c.Delivery.FromAddress)
	c.Delivery.SMTPHost = strings.TrimSpace(c.Delivery.SMTPHost)
	c.Delivery.SMTPUser = strings.TrimSpace(c.Delivery.SMTPUser)
	if c.Delivery.SMTPPort <= 0 {
		c.Delivery.SMTPPort = defaultSMTPPort
	}
	if c.Delivery.FromAddress == "" {
		c.Delivery.FromAddress = c.Delivery.SMTPUser
	}
}

func (c *Config) normalizeLLM() {
	if key, ok := os.LookupEnv("STORYFEED_LLM_API_KEY"); ok && strings.TrimSpace(key) != "" {
		c.LLM.APIKey = strings.TrimSpace(key)
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if strings.TrimSpace(c.LLM.Title) == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.RetryInterval <= 0 {
		c.Workflow.RetryInterval = defaultRetryInterval
	}
	if c.Workflow.DeliveryInterval <= 0 {
		c.Workflow.DeliveryInterval = defaultDeliveryInterval
	}
	if c.Workflow.MaxRetries < 0 {
		c.Workflow.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
