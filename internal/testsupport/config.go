package testsupport

import (
	"path/filepath"
	"testing"

	"storyfeed/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ArtifactDir = filepath.Join(base, "artifacts")
	cfgVal.Delivery.TestMode = true
	cfgVal.Chunking.AgentEnabled = false
	cfgVal.Chunking.LLMEnabled = false
	cfgVal.Extraction.AgentEnabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMKey sets the LLM API key on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithTargetWords overrides the chunk sizing target on the test config.
func WithTargetWords(words int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Chunking.TargetWords = words
	}
}

// WithDeviceEmail configures a delivery target and disables test mode.
func WithDeviceEmail(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Delivery.DeviceEmail = addr
		b.cfg.Delivery.TestMode = false
	}
}
