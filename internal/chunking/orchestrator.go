package chunking

import (
	"context"
	"log/slog"
	"strings"

	"storyfeed/internal/config"
	"storyfeed/internal/logging"
	"storyfeed/internal/queue"
	"storyfeed/internal/services"
	"storyfeed/internal/textutil"
)

// Orchestrator runs the strategy chain and turns the winning strategy's
// pieces into a stored chunk batch: scene markers enforced as boundaries,
// recaps prepended to every chunk after the first, numbers assigned 1..N.
type Orchestrator struct {
	strategies []Strategy
	recapWords int
	logger     *slog.Logger
}

// NewOrchestrator assembles the standard chain from configuration: agent
// (when enabled and a client is available), then llm (same), then simple.
func NewOrchestrator(cfg *config.Config, client Completer, logger *slog.Logger) *Orchestrator {
	target := cfg.Chunking.TargetWords
	tolerance := cfg.Chunking.Tolerance

	var strategies []Strategy
	if cfg.Chunking.AgentEnabled && client != nil {
		strategies = append(strategies, NewAgentStrategy(client, target, tolerance))
	}
	if cfg.Chunking.LLMEnabled && client != nil {
		strategies = append(strategies, NewLLMStrategy(client, target, tolerance))
	}
	strategies = append(strategies, NewSimpleStrategy(target, tolerance))

	return NewOrchestratorWith(cfg.Chunking.RecapWords, logger, strategies...)
}

// NewOrchestratorWith builds an orchestrator over an explicit strategy list.
func NewOrchestratorWith(recapWords int, logger *slog.Logger, strategies ...Strategy) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		strategies: strategies,
		recapWords: recapWords,
		logger:     logging.WithComponent(logger, "chunking"),
	}
}

// ChunkStory splits the story text and returns the chunk batch ready for
// queue storage plus the name of the strategy that produced it.
func (o *Orchestrator) ChunkStory(ctx context.Context, text string) ([]queue.Chunk, string, error) {
	if len(o.strategies) == 0 {
		return nil, "", services.Wrap(services.ErrConfiguration, "chunking", "chain", "no strategies configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", services.Wrap(services.ErrValidation, "chunking", "chain", "empty story text", nil)
	}

	log := logging.WithContext(ctx, o.logger)
	var lastErr error
	for _, strategy := range o.strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		pieces, err := strategy.Chunk(ctx, text)
		if err != nil {
			log.Warn("strategy failed, trying next",
				logging.String(logging.FieldStrategy, strategy.Name()),
				logging.Error(err))
			lastErr = err
			continue
		}
		pieces = enforceSceneBreaks(pieces)
		if len(pieces) == 0 {
			lastErr = services.Wrap(services.ErrValidation, "chunking", strategy.Name(), "no narrative content", nil)
			continue
		}

		chunks := o.assemble(pieces)
		log.Info("story chunked",
			logging.String(logging.FieldStrategy, strategy.Name()),
			logging.Int(logging.FieldChunkCount, len(chunks)))
		return chunks, strategy.Name(), nil
	}

	return nil, "", services.Wrap(services.ErrTransient, "chunking", "chain", "all strategies exhausted", lastErr)
}

// assemble numbers the pieces and prepends recaps to every chunk after the
// first. Word counts stay narrative-only; recap text is presentation.
func (o *Orchestrator) assemble(pieces []Piece) []queue.Chunk {
	chunks := make([]queue.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		content := piece.Text
		if i > 0 {
			if recap := BuildRecap(pieces[i-1].Text, o.recapWords); recap != "" {
				content = recap + "\n\n" + content
			}
		}
		chunks = append(chunks, queue.Chunk{
			ChunkNumber: i + 1,
			TotalChunks: len(pieces),
			Content:     content,
			WordCount:   piece.WordCount,
		})
	}
	return chunks
}

// enforceSceneBreaks re-splits any piece that carries a scene marker strictly
// inside it, so markers only ever sit at chunk edges. The simple strategy
// produces conforming pieces already; this catches smarter strategies whose
// breaks ignored a marker. Pieces without narrative words are dropped.
func enforceSceneBreaks(pieces []Piece) []Piece {
	var out []Piece
	for _, piece := range pieces {
		for _, part := range splitAtSceneBreaks(piece.Text) {
			words := textutil.CountWords(part)
			if words == 0 {
				continue
			}
			out = append(out, Piece{Text: part, WordCount: words})
		}
	}
	return out
}

func splitAtSceneBreaks(text string) []string {
	paragraphs := textutil.SplitParagraphs(text)

	var parts []string
	var current []string
	sawWords := false
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, strings.Join(current, "\n\n"))
			current = nil
			sawWords = false
		}
	}

	for _, paragraph := range paragraphs {
		if textutil.IsSceneBreak(paragraph) {
			current = append(current, paragraph)
			if sawWords {
				flush()
			}
			continue
		}
		current = append(current, paragraph)
		if textutil.CountWords(paragraph) > 0 {
			sawWords = true
		}
	}
	flush()
	return parts
}
