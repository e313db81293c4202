package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var paragraphSplitPattern = regexp.MustCompile(`\n\s*\n`)

// NormalizeText applies NFC normalization and canonicalizes line endings so
// downstream word counts and paragraph splits behave the same regardless of
// source encoding quirks.
func NormalizeText(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

// CountWords counts word-character runs in the text. A word is a maximal run
// of letters, digits, or underscores.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if isWordRune(r) {
			if !inWord {
				count++
				inWord = true
			}
		} else {
			inWord = false
		}
	}
	return count
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// SplitParagraphs splits text on blank lines, trimming each paragraph and
// dropping empty results.
func SplitParagraphs(text string) []string {
	raw := paragraphSplitPattern.Split(text, -1)
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// SplitSentences splits prose into sentences. A sentence ends at a run of
// terminal punctuation (. ! ? or ellipsis) directly followed by whitespace.
// A terminator followed by a closing quote is not a boundary, which keeps
// dialogue attached to its attribution. Trailing text without a terminator
// is returned as a final sentence.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0
	i := 0
	for i < len(runes) {
		if isSentenceTerminator(runes[i]) {
			j := i + 1
			for j < len(runes) && isSentenceTerminator(runes[j]) {
				j++
			}
			if j >= len(runes) || unicode.IsSpace(runes[j]) {
				sentence := strings.TrimSpace(string(runes[start:j]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				for j < len(runes) && unicode.IsSpace(runes[j]) {
					j++
				}
				start = j
				i = j
				continue
			}
			i = j
			continue
		}
		i++
	}
	if start < len(runes) {
		trailing := strings.TrimSpace(string(runes[start:]))
		if trailing != "" {
			sentences = append(sentences, trailing)
		}
	}
	return sentences
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	default:
		return false
	}
}

// IsSceneBreak reports whether a paragraph is an explicit scene-break marker:
// a short line made up solely of separator characters such as "---", "* * *",
// or a run of box-drawing bars.
func IsSceneBreak(paragraph string) bool {
	trimmed := strings.TrimSpace(paragraph)
	if trimmed == "" || strings.ContainsRune(trimmed, '\n') {
		return false
	}
	markers := 0
	for _, r := range trimmed {
		switch r {
		case '-', '*', '=', '~', '#', '═', '—', '–', '·', '•':
			markers++
		case ' ', '\t':
		default:
			return false
		}
	}
	return markers >= 2
}
