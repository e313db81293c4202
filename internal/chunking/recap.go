package chunking

import (
	"strings"

	"storyfeed/internal/textutil"
)

const recapRule = "───────────────────────────────────────"

// maxRecapSentences caps a recap regardless of how short its sentences are.
const maxRecapSentences = 10

// BuildRecap renders the tail of the previous chunk as a "*Previously:*"
// block: the last sentences, newest kept first, up to maxWords words.
func BuildRecap(previous string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 250
	}
	sentences := textutil.SplitSentences(previous)

	var recap []string
	words := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		sentenceWords := textutil.CountWords(sentences[i])
		if words+sentenceWords > maxWords && len(recap) > 0 {
			break
		}
		recap = append([]string{sentences[i]}, recap...)
		words += sentenceWords
		if len(recap) >= maxRecapSentences {
			break
		}
	}

	text := strings.TrimSpace(strings.Join(recap, " "))
	if text == "" {
		return ""
	}
	return recapRule + "\n*Previously:*\n> " + text + "\n" + recapRule
}
