package extraction

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"storyfeed/internal/textutil"
)

// InlineStrategy pulls story text straight from the submission body. HTML is
// preferred over plain text because it preserves paragraph structure through
// the markdown conversion.
type InlineStrategy struct {
	minChars int
	minWords int
}

// NewInlineStrategy builds the inline strategy. minChars gates whether the
// body is worth attempting; minWords rejects extractions that are clearly not
// a story.
func NewInlineStrategy(minChars, minWords int) *InlineStrategy {
	if minChars <= 0 {
		minChars = 500
	}
	if minWords <= 0 {
		minWords = 100
	}
	return &InlineStrategy{minChars: minChars, minWords: minWords}
}

func (s *InlineStrategy) Name() string { return "inline" }

// CanHandle requires enough body content to plausibly contain a story.
func (s *InlineStrategy) CanHandle(in Input) bool {
	return len(in.HTML)+len(in.Text) > s.minChars
}

func (s *InlineStrategy) Extract(_ context.Context, in Input) (*Result, error) {
	var text string
	if strings.TrimSpace(in.HTML) != "" {
		converted, err := htmlToText(in.HTML)
		if err != nil {
			return nil, fmt.Errorf("convert html body: %w", err)
		}
		text = converted
	} else {
		text = in.Text
	}

	text = textutil.NormalizeText(strings.TrimSpace(text))
	if words := textutil.CountWords(text); words < s.minWords {
		return nil, fmt.Errorf("body too short: %d words, need %d", words, s.minWords)
	}

	return &Result{Text: text}, nil
}

// htmlToText renders HTML as markdown-flavoured plain text. Scene-break
// markers and paragraph boundaries survive the conversion, which is what the
// chunker depends on.
func htmlToText(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	return text, nil
}
