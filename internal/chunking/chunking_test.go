package chunking_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"storyfeed/internal/chunking"
	"storyfeed/internal/services"
	"storyfeed/internal/testsupport"
	"storyfeed/internal/textutil"
)

func TestSimpleStrategyGreedyBounds(t *testing.T) {
	text := testsupport.StoryText(10000)
	s := chunking.NewSimpleStrategy(2000, 0.2)

	pieces, err := s.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(pieces) != 7 {
		t.Fatalf("expected 7 pieces, got %d", len(pieces))
	}
	for i, piece := range pieces[:len(pieces)-1] {
		if piece.WordCount < 1600 || piece.WordCount > 2400 {
			t.Fatalf("piece %d word count %d outside [1600, 2400]", i+1, piece.WordCount)
		}
	}

	total := 0
	for _, piece := range pieces {
		if got := textutil.CountWords(piece.Text); got != piece.WordCount {
			t.Fatalf("piece reports %d words, text has %d", piece.WordCount, got)
		}
		total += piece.WordCount
	}
	if want := textutil.CountWords(text); total != want {
		t.Fatalf("pieces hold %d words, input has %d", total, want)
	}
}

func TestSimpleStrategyBreaksAtSceneMarkers(t *testing.T) {
	text := testsupport.StoryText(300) + "\n---\n\n" + testsupport.StoryText(300)
	s := chunking.NewSimpleStrategy(5000, 0.15)

	pieces, err := s.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(pieces) != 2 {
		t.Fatalf("expected the marker to force 2 pieces, got %d", len(pieces))
	}
	if !strings.HasSuffix(pieces[0].Text, "---") {
		t.Fatalf("expected marker at the end of the first piece, got tail %q", pieces[0].Text[len(pieces[0].Text)-20:])
	}
	if strings.Contains(pieces[1].Text, "---") {
		t.Fatal("marker leaked into the second piece")
	}
}

func TestSimpleStrategySplitsOversizedParagraph(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "One two three four five six seven eight nine s%d. ", i)
	}
	s := chunking.NewSimpleStrategy(100, 0.1)

	pieces, err := s.Chunk(context.Background(), b.String())
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want := []int{110, 110, 80}
	if len(pieces) != len(want) {
		t.Fatalf("expected %d pieces, got %d", len(want), len(pieces))
	}
	for i, piece := range pieces {
		if piece.WordCount != want[i] {
			t.Fatalf("piece %d has %d words, want %d", i+1, piece.WordCount, want[i])
		}
	}
}

func TestSimpleStrategyRejectsEmptyText(t *testing.T) {
	s := chunking.NewSimpleStrategy(5000, 0.15)
	if _, err := s.Chunk(context.Background(), "  \n\n "); err == nil {
		t.Fatal("expected empty text to be rejected")
	}
}

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) CompleteJSON(context.Context, string, string) (string, error) {
	return f.response, f.err
}

func fourParagraphs(wordsEach int) string {
	parts := make([]string, 4)
	base := 0
	for i := range parts {
		var b strings.Builder
		for j := 0; j < wordsEach; j++ {
			fmt.Fprintf(&b, "token%d ", base+j)
		}
		parts[i] = strings.TrimSpace(b.String())
		base += wordsEach
	}
	return strings.Join(parts, "\n\n")
}

func TestLLMStrategySplitsAtPlannedBreak(t *testing.T) {
	text := fourParagraphs(300)
	s := chunking.NewLLMStrategy(&fakeCompleter{
		response: `{"breaks":[{"paragraph":3,"reason":"scene ends"}]}`,
	}, 600, 0.15)

	pieces, err := s.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	if pieces[0].WordCount != 600 || pieces[1].WordCount != 600 {
		t.Fatalf("unexpected word counts %d/%d", pieces[0].WordCount, pieces[1].WordCount)
	}
	if !strings.HasPrefix(pieces[1].Text, "token600 ") {
		t.Fatalf("second piece starts at %q", pieces[1].Text[:20])
	}
}

func TestLLMStrategyRejectsTinyTail(t *testing.T) {
	text := fourParagraphs(100)
	s := chunking.NewLLMStrategy(&fakeCompleter{
		response: `{"breaks":[{"paragraph":4,"reason":"late break"}]}`,
	}, 150, 0.1)

	// The only proposed break leaves a 100 word tail, below the floor, and
	// the story is too long to stand as a single chunk.
	if _, err := s.Chunk(context.Background(), text); err == nil {
		t.Fatal("expected unusable plan to fail")
	}
}

func TestLLMStrategyKeepsShortStoryWhole(t *testing.T) {
	text := fourParagraphs(100)
	s := chunking.NewLLMStrategy(&fakeCompleter{response: `{"breaks":[]}`}, 600, 0.15)

	pieces, err := s.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(pieces) != 1 || pieces[0].WordCount != 400 {
		t.Fatalf("expected one whole piece of 400 words, got %+v", pieces)
	}
}

func TestLLMStrategyRejectsMalformedPlan(t *testing.T) {
	s := chunking.NewLLMStrategy(&fakeCompleter{response: "not a plan"}, 600, 0.15)
	if _, err := s.Chunk(context.Background(), fourParagraphs(300)); err == nil {
		t.Fatal("expected malformed output to fail")
	}
}

func TestLLMStrategyPropagatesClientError(t *testing.T) {
	s := chunking.NewLLMStrategy(&fakeCompleter{err: errors.New("http 500")}, 600, 0.15)
	if _, err := s.Chunk(context.Background(), fourParagraphs(300)); err == nil {
		t.Fatal("expected client failure to surface")
	}
}

type stubStrategy struct {
	name   string
	pieces []chunking.Piece
	err    error
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) Chunk(context.Context, string) ([]chunking.Piece, error) {
	return s.pieces, s.err
}

func piece(words int) chunking.Piece {
	text := strings.TrimSpace(testsupport.StoryText(words))
	return chunking.Piece{Text: text, WordCount: textutil.CountWords(text)}
}

func TestOrchestratorNumbersAndRecaps(t *testing.T) {
	pieces := []chunking.Piece{piece(600), piece(600), piece(300)}
	o := chunking.NewOrchestratorWith(250, nil, &stubStrategy{name: "stub", pieces: pieces})

	chunks, strategy, err := o.ChunkStory(context.Background(), "body")
	if err != nil {
		t.Fatalf("ChunkStory: %v", err)
	}
	if strategy != "stub" {
		t.Fatalf("unexpected strategy %q", strategy)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkNumber != i+1 || chunk.TotalChunks != 3 {
			t.Fatalf("chunk %d has number %d/%d", i, chunk.ChunkNumber, chunk.TotalChunks)
		}
		if chunk.WordCount != pieces[i].WordCount {
			t.Fatalf("chunk %d word count %d, want narrative count %d", i+1, chunk.WordCount, pieces[i].WordCount)
		}
		hasRecap := strings.Contains(chunk.Content, "*Previously:*")
		if i == 0 && hasRecap {
			t.Fatal("first chunk must not carry a recap")
		}
		if i > 0 && !hasRecap {
			t.Fatalf("chunk %d is missing its recap", i+1)
		}
	}
}

func TestOrchestratorFallsBackToSimple(t *testing.T) {
	o := chunking.NewOrchestratorWith(250, nil,
		&stubStrategy{name: "agent", err: errors.New("model unavailable")},
		chunking.NewSimpleStrategy(2000, 0.2),
	)

	chunks, strategy, err := o.ChunkStory(context.Background(), testsupport.StoryText(5000))
	if err != nil {
		t.Fatalf("ChunkStory: %v", err)
	}
	if strategy != "simple" {
		t.Fatalf("expected fallback to simple, got %q", strategy)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
}

func TestOrchestratorEnforcesSceneBreaks(t *testing.T) {
	text := strings.TrimSpace(testsupport.StoryText(120)) + "\n\n* * *\n\n" + strings.TrimSpace(testsupport.StoryText(120))
	o := chunking.NewOrchestratorWith(250, nil, &stubStrategy{
		name:   "stub",
		pieces: []chunking.Piece{{Text: text, WordCount: textutil.CountWords(text)}},
	})

	chunks, _, err := o.ChunkStory(context.Background(), "body")
	if err != nil {
		t.Fatalf("ChunkStory: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected the interior marker to split the piece, got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, "* * *") {
		t.Fatal("expected marker at the end of the first chunk")
	}
}

func TestOrchestratorExhaustionIsRetryable(t *testing.T) {
	o := chunking.NewOrchestratorWith(250, nil, &stubStrategy{name: "stub", err: errors.New("boom")})

	_, _, err := o.ChunkStory(context.Background(), "body")
	if err == nil {
		t.Fatal("expected chain exhaustion to fail")
	}
	if !services.Retryable(err) {
		t.Fatalf("expected a retryable failure, got %v", err)
	}
}

func TestBuildRecapLimits(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "Sentence %d carries one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty one two three four five six seven. ", i)
	}
	recap := chunking.BuildRecap(b.String(), 250)

	if !strings.Contains(recap, "*Previously:*") || !strings.Contains(recap, "> ") {
		t.Fatalf("unexpected recap format: %q", recap)
	}
	body := recap[strings.Index(recap, "> ")+2:]
	body = body[:strings.Index(body, "\n")]
	if words := textutil.CountWords(body); words > 280 {
		t.Fatalf("recap too long: %d words", words)
	}
	if !strings.Contains(body, "Sentence 14") {
		t.Fatal("recap should keep the final sentences")
	}
	if strings.Contains(body, "Sentence 0 ") {
		t.Fatal("recap should drop the oldest sentences")
	}
}

func TestBuildRecapSentenceCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "Tiny s%d. ", i)
	}
	recap := chunking.BuildRecap(b.String(), 250)

	for i := 0; i < 15; i++ {
		if strings.Contains(recap, fmt.Sprintf("Tiny s%d.", i)) {
			t.Fatalf("recap kept sentence %d beyond the cap", i)
		}
	}
	if !strings.Contains(recap, "Tiny s24.") {
		t.Fatal("recap should keep the last sentence")
	}
}
