package testsupport

import (
	"context"
	"fmt"
	"testing"

	"storyfeed/internal/config"
	"storyfeed/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewStory inserts a pending story for tests using the provided store.
func NewStory(t testing.TB, store *queue.Store, sourceID, text string) *queue.Story {
	t.Helper()

	story, err := store.NewStory(context.Background(), queue.NewStoryParams{
		SourceID: sourceID,
		Subject:  "Test Story",
		FromAddr: "author@example.com",
		RawText:  text,
	})
	if err != nil {
		t.Fatalf("store.NewStory: %v", err)
	}
	return story
}

// ChunkedStory inserts a story, walks it to chunked, and stores the provided
// chunk texts in order.
func ChunkedStory(t testing.TB, store *queue.Store, sourceID string, chunkTexts ...string) *queue.Story {
	t.Helper()

	ctx := context.Background()
	story := NewStory(t, store, sourceID, "raw text")
	if _, err := store.Transition(ctx, story.ID, queue.StatusProcessing, ""); err != nil {
		t.Fatalf("transition to processing: %v", err)
	}

	chunks := make([]queue.Chunk, 0, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks = append(chunks, queue.Chunk{
			ChunkNumber: i + 1,
			Content:     text,
			WordCount:   len(text),
		})
	}
	if err := store.ReplaceChunks(ctx, story.ID, chunks); err != nil {
		t.Fatalf("replace chunks: %v", err)
	}

	story, err := store.Transition(ctx, story.ID, queue.StatusChunked, "")
	if err != nil {
		t.Fatalf("transition to chunked: %v", err)
	}
	return story
}

// StoryText builds deterministic filler prose with roughly the requested word
// count, organized into paragraphs.
func StoryText(words int) string {
	var out []byte
	count := 0
	for count < words {
		for i := 0; i < 60 && count < words; i++ {
			out = append(out, fmt.Sprintf("word%d ", count)...)
			count++
		}
		out = append(out, '\n', '\n')
	}
	return string(out)
}
