package config

const (
	defaultDataDir                 = "~/.local/share/storyfeed"
	defaultLogDir                  = "~/.local/share/storyfeed/logs"
	defaultArtifactDir             = "~/.local/share/storyfeed/artifacts"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultMinInlineChars          = 500
	defaultMinWords                = 100
	defaultFetchTimeout            = 30
	defaultTargetWords             = 5000
	defaultTolerance               = 0.15
	defaultRecapWords              = 250
	defaultSMTPPort                = 587
	defaultNotifyRequestTimeout    = 10
	defaultQueuePollInterval       = 10
	defaultErrorRetryInterval      = 30
	defaultRetryInterval           = 6 * 60 * 60
	defaultDeliveryInterval        = 24 * 60 * 60
	defaultMaxRetries              = 3
	defaultLLMBaseURL              = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                = "anthropic/claude-sonnet-4"
	defaultLLMTitle                = "Storyfeed"
	defaultLLMTimeoutSeconds       = 120
	defaultExtractionAgentDisabled = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			ArtifactDir: defaultArtifactDir,
		},
		Extraction: Extraction{
			AgentEnabled:   defaultExtractionAgentDisabled,
			MinInlineChars: defaultMinInlineChars,
			MinWords:       defaultMinWords,
			FetchTimeout:   defaultFetchTimeout,
		},
		Chunking: Chunking{
			AgentEnabled: false,
			LLMEnabled:   false,
			TargetWords:  defaultTargetWords,
			Tolerance:    defaultTolerance,
			RecapWords:   defaultRecapWords,
		},
		Delivery: Delivery{
			SMTPPort: defaultSMTPPort,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Stories:        true,
			Delivery:       true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			RetryInterval:      defaultRetryInterval,
			DeliveryInterval:   defaultDeliveryInterval,
			MaxRetries:         defaultMaxRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
