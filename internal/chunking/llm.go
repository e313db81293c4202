package chunking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"storyfeed/internal/services/llm"
	"storyfeed/internal/textutil"
)

// minTailWords rejects a break that would leave a trailing chunk too small to
// stand on its own.
const minTailWords = 500

// agentPreviewLimit bounds the numbered text the whole-story analysis sends.
const agentPreviewLimit = 100000

const breakSystemPrompt = `You split long stories into reading chunks at natural narrative boundaries.

Look for break points in this priority order:
1. Explicit scene breaks: paragraphs containing only "---", "* * *", or a similar separator line. These are mandatory breaks, use them even when far from the target size.
2. Scene transitions: the character moves to a completely different location or significant time passes.
3. Resolution of conflicts: after an action sequence ends and before the next begins.
4. Perspective shifts: the point of view changes to a different character.
5. Completed emotional arcs: after a character finishes an internal transformation, never during it.

Never break mid-combat, mid-dialogue, mid-flashback, or during the peak of tension.

A break at a real scene boundary beats an even word split. When several candidates qualify, prefer the one closest to the target size.

Respond with JSON only:
{"breaks":[{"paragraph":<number of the paragraph that STARTS the next chunk>,"reason":"<one sentence>"}]}
Use an empty "breaks" array when the story should stay whole.`

type breakPlan struct {
	Breaks []struct {
		Paragraph int    `json:"paragraph"`
		Reason    string `json:"reason"`
	} `json:"breaks"`
}

// LLMStrategy asks the model for a break plan over numbered paragraphs and
// splits the text at the plan's paragraph boundaries. The agent variant sends
// the whole story and a suggested chunk count; the plain variant sends the
// numbered text as is.
type LLMStrategy struct {
	name       string
	client     Completer
	bounds     bounds
	previewCap int
	suggest    bool
}

// NewLLMStrategy builds the single-pass break-point strategy.
func NewLLMStrategy(client Completer, target int, tolerance float64) *LLMStrategy {
	return &LLMStrategy{
		name:   "llm",
		client: client,
		bounds: newBounds(target, tolerance),
	}
}

// NewAgentStrategy builds the whole-story analysis strategy. It differs from
// the plain LLM strategy in scope: the full numbered text (bounded) plus an
// estimated chunk count, so the model plans all breaks at once.
func NewAgentStrategy(client Completer, target int, tolerance float64) *LLMStrategy {
	return &LLMStrategy{
		name:       "agent",
		client:     client,
		bounds:     newBounds(target, tolerance),
		previewCap: agentPreviewLimit,
		suggest:    true,
	}
}

func (s *LLMStrategy) Name() string { return s.name }

func (s *LLMStrategy) Chunk(ctx context.Context, text string) ([]Piece, error) {
	paragraphs := textutil.SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%s: no paragraphs in text", s.name)
	}
	totalWords := textutil.CountWords(text)

	content, err := s.client.CompleteJSON(ctx, breakSystemPrompt, s.userPrompt(paragraphs, totalWords))
	if err != nil {
		return nil, fmt.Errorf("%s break analysis: %w", s.name, err)
	}

	var plan breakPlan
	if err := llm.DecodeLLMJSON(content, &plan); err != nil {
		return nil, fmt.Errorf("%s break analysis: parse plan: %w", s.name, err)
	}

	breaks := validBreaks(paragraphs, plan)
	if len(breaks) == 0 {
		if totalWords > s.bounds.max {
			return nil, fmt.Errorf("%s break analysis: no usable break points for %d words", s.name, totalWords)
		}
		return []Piece{{Text: strings.Join(paragraphs, "\n\n"), WordCount: totalWords}}, nil
	}

	return splitAtParagraphs(paragraphs, breaks), nil
}

func (s *LLMStrategy) userPrompt(paragraphs []string, totalWords int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target: ~%d words per chunk (flexible)\n", s.bounds.target)
	fmt.Fprintf(&b, "Total: ~%d words, %d paragraphs\n", totalWords, len(paragraphs))
	if s.suggest {
		estimated := (totalWords + s.bounds.target/2) / s.bounds.target
		if estimated < 1 {
			estimated = 1
		}
		fmt.Fprintf(&b, "Suggested chunks: ~%d\n", estimated)
	}
	b.WriteString("\nText with paragraph numbers:\n")

	for i, paragraph := range paragraphs {
		fmt.Fprintf(&b, "[Para %d]\n%s\n\n", i+1, paragraph)
		if s.previewCap > 0 && b.Len() > s.previewCap {
			b.WriteString("[text truncated for length]\n")
			break
		}
	}
	return b.String()
}

// validBreaks filters the plan down to in-range paragraph numbers whose tail
// is big enough, deduplicated and sorted. A break number is the 1-based
// paragraph that starts the next chunk.
func validBreaks(paragraphs []string, plan breakPlan) []int {
	seen := make(map[int]struct{})
	var breaks []int
	for _, b := range plan.Breaks {
		if b.Paragraph < 2 || b.Paragraph > len(paragraphs) {
			continue
		}
		if _, ok := seen[b.Paragraph]; ok {
			continue
		}
		tail := strings.Join(paragraphs[b.Paragraph-1:], "\n\n")
		if textutil.CountWords(tail) < minTailWords {
			continue
		}
		seen[b.Paragraph] = struct{}{}
		breaks = append(breaks, b.Paragraph)
	}
	sort.Ints(breaks)
	return breaks
}

// splitAtParagraphs cuts the paragraph list before each break number.
func splitAtParagraphs(paragraphs []string, breaks []int) []Piece {
	var pieces []Piece
	start := 0
	emit := func(end int) {
		if end <= start {
			return
		}
		text := strings.Join(paragraphs[start:end], "\n\n")
		pieces = append(pieces, Piece{Text: text, WordCount: textutil.CountWords(text)})
		start = end
	}
	for _, b := range breaks {
		emit(b - 1)
	}
	emit(len(paragraphs))
	return pieces
}

var _ Strategy = (*LLMStrategy)(nil)
var _ Strategy = (*SimpleStrategy)(nil)
