package chunking

import "context"

// Piece is one narrative segment produced by a chunking strategy. Text is
// story prose only; recaps are added later by the orchestrator and never
// count toward WordCount.
type Piece struct {
	Text      string
	WordCount int
}

// Strategy is one way of splitting story text into pieces. Strategies are
// tried in order; a strategy that errors hands the text to the next one.
type Strategy interface {
	Name() string
	Chunk(ctx context.Context, text string) ([]Piece, error)
}

// Completer is the slice of the LLM client the smarter strategies need.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type bounds struct {
	target int
	min    int
	max    int
}

func newBounds(target int, tolerance float64) bounds {
	if target <= 0 {
		target = 5000
	}
	if tolerance <= 0 || tolerance >= 1 {
		tolerance = 0.15
	}
	return bounds{
		target: target,
		min:    int(float64(target) * (1 - tolerance)),
		max:    int(float64(target) * (1 + tolerance)),
	}
}
