package extraction

import (
	"log/slog"
	"time"

	"storyfeed/internal/config"
)

// NewChain assembles the standard extraction chain from configuration:
// agent (when enabled and a client is available), then inline, then url.
func NewChain(cfg *config.Config, client LLMCompleter, logger *slog.Logger) *Extractor {
	inline := NewInlineStrategy(cfg.Extraction.MinInlineChars, cfg.Extraction.MinWords)
	urls := NewURLStrategy(time.Duration(cfg.Extraction.FetchTimeout)*time.Second, cfg.Extraction.MinWords)

	var strategies []Strategy
	if cfg.Extraction.AgentEnabled && client != nil {
		strategies = append(strategies, NewAgentStrategy(client, inline, urls))
	}
	strategies = append(strategies, inline, urls)

	return NewExtractor(logger, strategies...)
}
