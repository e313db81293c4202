package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if err := ensurePositiveMap(map[string]int{
		"extraction.min_inline_chars": c.Extraction.MinInlineChars,
		"extraction.min_words":        c.Extraction.MinWords,
		"extraction.fetch_timeout":    c.Extraction.FetchTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.TargetWords <= 0 {
		return errors.New("chunking.target_words must be positive")
	}
	if c.Chunking.Tolerance <= 0 || c.Chunking.Tolerance >= 1 {
		return errors.New("chunking.tolerance must be between 0 and 1 exclusive")
	}
	if c.Chunking.RecapWords <= 0 {
		return errors.New("chunking.recap_words must be positive")
	}
	if (c.Chunking.AgentEnabled || c.Chunking.LLMEnabled) && c.LLM.APIKey == "" {
		return errors.New("llm.api_key must be set when chunking.agent_enabled or chunking.llm_enabled is true")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if c.Delivery.TestMode {
		return nil
	}
	if c.Delivery.SMTPHost == "" {
		// Delivery is optional until SMTP is configured; the daemon runs the
		// processing pipeline and the scheduler reports configuration errors.
		return nil
	}
	if c.Delivery.DeviceEmail == "" {
		return errors.New("delivery.device_email must be set when delivery.smtp_host is configured")
	}
	if c.Delivery.FromAddress == "" {
		return errors.New("delivery.from_address or delivery.smtp_user must be set when delivery.smtp_host is configured")
	}
	if c.Delivery.SMTPPort <= 0 || c.Delivery.SMTPPort > 65535 {
		return errors.New("delivery.smtp_port must be a valid port")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !c.Extraction.AgentEnabled {
		return nil
	}
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/storyfeed/config.toml"
		}
		return fmt.Errorf("llm.api_key is required when extraction.agent_enabled is true. Set STORYFEED_LLM_API_KEY env var or edit %s (create with 'storyfeed config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.retry_interval":       c.Workflow.RetryInterval,
		"workflow.delivery_interval":    c.Workflow.DeliveryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.MaxRetries < 0 {
		return errors.New("workflow.max_retries must not be negative")
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

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
