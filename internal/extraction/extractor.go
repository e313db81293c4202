package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storyfeed/internal/logging"
	"storyfeed/internal/services"
)

// Strategy is one way of locating story content in a submission. Strategies
// are tried in order; the first success wins.
type Strategy interface {
	Name() string
	CanHandle(in Input) bool
	Extract(ctx context.Context, in Input) (*Result, error)
}

// Extractor runs a fallback chain of strategies.
type Extractor struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewExtractor builds an extractor over the provided strategies in priority
// order.
func NewExtractor(logger *slog.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		strategies: strategies,
		logger:     logging.WithComponent(logger, "extraction"),
	}
}

// Extract walks the strategy chain. A strategy that declines or fails moves
// the chain forward; only when every strategy has been exhausted does the
// submission fail.
func (e *Extractor) Extract(ctx context.Context, in Input) (*Result, error) {
	if len(e.strategies) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "extraction", "chain", "no strategies configured", nil)
	}

	log := logging.WithContext(ctx, e.logger)
	var failures []error
	for _, strategy := range e.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strategy.CanHandle(in) {
			log.Debug("strategy declined", logging.String(logging.FieldStrategy, strategy.Name()))
			continue
		}

		result, err := strategy.Extract(ctx, in)
		if err != nil {
			log.Warn("strategy failed, trying next",
				logging.String(logging.FieldStrategy, strategy.Name()),
				logging.Error(err))
			failures = append(failures, fmt.Errorf("%s: %w", strategy.Name(), err))
			continue
		}
		if result == nil || strings.TrimSpace(result.Text) == "" {
			failures = append(failures, fmt.Errorf("%s: empty result", strategy.Name()))
			continue
		}

		result.Strategy = strategy.Name()
		if result.Title == "" {
			result.Title = titleFor(in)
		}
		if result.Author == "" {
			result.Author = AuthorFromAddress(in.From)
		}
		log.Info("story extracted",
			logging.String(logging.FieldStrategy, strategy.Name()),
			logging.Int("text_chars", len(result.Text)))
		return result, nil
	}

	if len(failures) == 0 {
		return nil, services.Wrap(services.ErrValidation, "extraction", "chain", "no strategy could handle the submission", nil)
	}
	return nil, services.Wrap(services.ErrTransient, "extraction", "chain", "all strategies exhausted", errors.Join(failures...))
}
