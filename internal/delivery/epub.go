package delivery

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-epub"

	"storyfeed/internal/queue"
	"storyfeed/internal/textutil"
)

// htmlTagPattern is a heuristic for content that is already marked up.
var htmlTagPattern = regexp.MustCompile(`(?i)<(?:p|div|article|section|h[1-6]|br|span|em|strong|a)\b[^>]*>`)

// Generator renders a chunk as an EPUB artifact on disk.
type Generator struct {
	outputDir string
}

// NewGenerator builds a generator writing artifacts under dir.
func NewGenerator(dir string) *Generator {
	return &Generator{outputDir: dir}
}

// Generate writes the chunk's EPUB and returns the artifact path. The book
// title carries the part number so a reading device sorts the series
// naturally.
func (g *Generator) Generate(chunk *queue.DeliverableChunk) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	title := strings.TrimSpace(chunk.StoryTitle)
	if title == "" {
		title = "Unknown Title"
	}
	author := strings.TrimSpace(chunk.StoryAuthor)
	if author == "" {
		author = "Unknown Author"
	}
	fullTitle := title
	if chunk.TotalChunks > 1 {
		fullTitle = fmt.Sprintf("%s - Part %d/%d", title, chunk.ChunkNumber, chunk.TotalChunks)
	}

	book, err := epub.NewEpub(fullTitle)
	if err != nil {
		return "", fmt.Errorf("create epub: %w", err)
	}
	book.SetAuthor(author)
	book.SetLang("en")
	book.SetIdentifier(fmt.Sprintf("storyfeed-%d-%d-%d", chunk.StoryID, chunk.ChunkNumber, time.Now().Unix()))

	body := fmt.Sprintf("<h1>%s</h1>\n%s", html.EscapeString(fullTitle), prepareHTML(chunk.Content))
	if _, err := book.AddSection(body, fullTitle, "chapter.xhtml", ""); err != nil {
		return "", fmt.Errorf("add chapter: %w", err)
	}

	name := fmt.Sprintf("%s_part%d.epub", textutil.SanitizeFileName(title), chunk.ChunkNumber)
	path := filepath.Join(g.outputDir, name)
	if err := book.Write(path); err != nil {
		return "", fmt.Errorf("write epub: %w", err)
	}
	return path, nil
}

// prepareHTML passes marked-up content through and wraps plain text in
// paragraph tags, keeping single line breaks inside a paragraph.
func prepareHTML(content string) string {
	if htmlTagPattern.MatchString(content) {
		return content
	}

	var parts []string
	for _, paragraph := range strings.Split(content, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		paragraph = html.EscapeString(paragraph)
		paragraph = strings.ReplaceAll(paragraph, "\n", "<br/>")
		parts = append(parts, "<p>"+paragraph+"</p>")
	}
	return strings.Join(parts, "\n")
}
