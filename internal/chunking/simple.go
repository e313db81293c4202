package chunking

import (
	"context"
	"errors"
	"strings"

	"storyfeed/internal/textutil"
)

// SimpleStrategy splits on paragraph boundaries by greedy word-count
// accumulation. Scene-break markers always end the chunk they close, and a
// paragraph larger than the upper bound is split into sentences. It is
// deterministic and succeeds on any non-empty text, which makes it the
// terminal strategy of the chain.
type SimpleStrategy struct {
	bounds bounds
}

// NewSimpleStrategy builds the greedy chunker for the given target size and
// tolerance.
func NewSimpleStrategy(target int, tolerance float64) *SimpleStrategy {
	return &SimpleStrategy{bounds: newBounds(target, tolerance)}
}

func (s *SimpleStrategy) Name() string { return "simple" }

func (s *SimpleStrategy) Chunk(_ context.Context, text string) ([]Piece, error) {
	paragraphs := textutil.SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil, errors.New("no paragraphs in text")
	}

	var pieces []Piece
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		pieces = append(pieces, Piece{
			Text:      strings.Join(current, "\n\n"),
			WordCount: currentWords,
		})
		current = nil
		currentWords = 0
	}

	for _, paragraph := range paragraphs {
		if textutil.IsSceneBreak(paragraph) {
			// A marker closes the running chunk. One with no narrative
			// before it just opens the next chunk.
			current = append(current, paragraph)
			if currentWords > 0 {
				flush()
			}
			continue
		}

		words := textutil.CountWords(paragraph)
		if words > s.bounds.max {
			if currentWords > 0 {
				flush()
			}
			for _, sentence := range textutil.SplitSentences(paragraph) {
				sentenceWords := textutil.CountWords(sentence)
				if currentWords+sentenceWords > s.bounds.max && currentWords > 0 {
					flush()
				}
				current = append(current, sentence)
				currentWords += sentenceWords
			}
			continue
		}

		if currentWords+words > s.bounds.max && currentWords > 0 {
			flush()
		}
		current = append(current, paragraph)
		currentWords += words
		if currentWords >= s.bounds.min {
			flush()
		}
	}
	if currentWords > 0 {
		flush()
	}

	if len(pieces) == 0 {
		return nil, errors.New("no narrative content in text")
	}
	return pieces, nil
}
