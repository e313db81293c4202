package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storyfeed/internal/notifications"
	"storyfeed/internal/queue"
)

// Submission is a manually submitted story, from the CLI or any other
// non-email entry point.
type Submission struct {
	SourceID        string
	Subject         string
	From            string
	Text            string
	HTML            string
	URL             string
	Password        string
	SendImmediately bool
}

// Submit enqueues a story as pending. A missing source ID gets a synthetic
// one so resubmitting the same URL twice still dedupes by content later.
// Resubmitting an existing source ID returns the stored story along with
// queue.ErrDuplicateStory.
func Submit(ctx context.Context, store *queue.Store, notifier notifications.Service, sub Submission) (*queue.Story, error) {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if strings.TrimSpace(sub.Text) == "" && strings.TrimSpace(sub.HTML) == "" && strings.TrimSpace(sub.URL) == "" {
		return nil, errors.New("submission has no text, html, or url")
	}

	sourceID := strings.TrimSpace(sub.SourceID)
	if sourceID == "" {
		if strings.TrimSpace(sub.URL) != "" {
			sourceID = "url-" + uuid.NewString()
		} else {
			sourceID = "text-" + uuid.NewString()
		}
	}

	story, err := store.NewStory(ctx, queue.NewStoryParams{
		SourceID:        sourceID,
		Subject:         sub.Subject,
		FromAddr:        sub.From,
		URL:             sub.URL,
		URLPassword:     sub.Password,
		RawText:         sub.Text,
		RawHTML:         sub.HTML,
		SendImmediately: sub.SendImmediately,
	})
	if err != nil {
		if errors.Is(err, queue.ErrDuplicateStory) {
			return story, err
		}
		return nil, fmt.Errorf("enqueue story: %w", err)
	}

	_ = notifier.Publish(ctx, notifications.EventStoryReceived, notifications.Payload{
		"title":  storyLabel(story),
		"author": story.FromAddr,
	})
	return story, nil
}
