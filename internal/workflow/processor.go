package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"storyfeed/internal/extraction"
	"storyfeed/internal/logging"
	"storyfeed/internal/notifications"
	"storyfeed/internal/queue"
	"storyfeed/internal/services"
	"storyfeed/internal/textutil"
)

// duplicateThreshold is the cosine similarity above which an incoming story
// counts as a resubmission of one already stored.
const duplicateThreshold = 0.95

// ProcessNext claims and processes the oldest pending story. It reports
// false when nothing is pending. The CLI uses it for one-shot processing;
// the poll loop calls it continuously.
func (m *Manager) ProcessNext(ctx context.Context) (bool, error) {
	story, err := m.store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		return false, fmt.Errorf("next pending story: %w", err)
	}
	if story == nil {
		return false, nil
	}
	return true, m.processStory(ctx, story)
}

// processStory runs one story through extraction and chunking. It accepts
// pending stories from the poller and failed stories from the retry sweep;
// both transition into processing first.
func (m *Manager) processStory(ctx context.Context, story *queue.Story) error {
	ctx = services.WithStoryID(ctx, story.ID)
	log := logging.WithContext(ctx, m.logger)

	story, err := m.store.Transition(ctx, story.ID, queue.StatusProcessing, "")
	if err != nil {
		return fmt.Errorf("claim story: %w", err)
	}
	log.Info("story processing started", logging.String("subject", story.Subject))

	result, err := m.extractor.Extract(services.WithStage(ctx, "extraction"), extraction.Input{
		Text:     story.RawText,
		HTML:     story.RawHTML,
		Subject:  story.Subject,
		From:     story.FromAddr,
		URL:      story.URL,
		Password: story.URLPassword,
	})
	if err != nil {
		return m.failStory(ctx, story, "extraction", err)
	}

	if dupID, similarity, derr := m.findDuplicate(ctx, story.ID, result.Text); derr != nil {
		log.Warn("duplicate check failed, continuing", logging.Error(derr))
	} else if dupID != 0 {
		err := services.Wrap(services.ErrValidation, "extraction", "duplicate check",
			fmt.Sprintf("near-duplicate of story %d (similarity %.2f)", dupID, similarity), nil)
		return m.failStory(ctx, story, "extraction", err)
	}

	story.Title = result.Title
	story.Author = result.Author
	story.ContentText = result.Text
	story.ExtractionStrategy = result.Strategy
	if err := m.store.Update(ctx, story); err != nil {
		return m.failStory(ctx, story, "extraction", err)
	}

	chunks, strategy, err := m.chunker.ChunkStory(services.WithStage(ctx, "chunking"), result.Text)
	if err != nil {
		return m.failStory(ctx, story, "chunking", err)
	}
	if err := m.store.ReplaceChunks(ctx, story.ID, chunks); err != nil {
		return m.failStory(ctx, story, "chunking", err)
	}
	story.ChunkingStrategy = strategy
	if err := m.store.Update(ctx, story); err != nil {
		return m.failStory(ctx, story, "chunking", err)
	}
	if _, err := m.store.Transition(ctx, story.ID, queue.StatusChunked, ""); err != nil {
		return m.failStory(ctx, story, "chunking", err)
	}

	log.Info("story chunked",
		logging.String("title", story.Title),
		logging.String(logging.FieldStrategy, strategy),
		logging.Int(logging.FieldChunkCount, len(chunks)))
	_ = m.notifier.Publish(ctx, notifications.EventStoryChunked, notifications.Payload{
		"title":      story.Title,
		"chunkCount": strconv.Itoa(len(chunks)),
	})

	if story.SendImmediately {
		m.requestDelivery()
	}
	return nil
}

// failStory records the failure and parks the story as failed. Retryable
// failures keep their retry budget for the sweep; permanent ones are capped
// out so the sweep skips them.
func (m *Manager) failStory(ctx context.Context, story *queue.Story, stage string, cause error) error {
	if errors.Is(cause, context.Canceled) {
		return cause
	}
	log := logging.WithContext(ctx, m.logger)
	log.Error("stage failed",
		logging.String(logging.FieldStage, stage),
		logging.String(logging.FieldAlert, "stage_failure"),
		logging.Error(cause))

	failed, err := m.store.Transition(ctx, story.ID, queue.StatusFailed, cause.Error())
	if err != nil {
		log.Error("could not record story failure", logging.Error(err))
		return cause
	}

	if !services.Retryable(cause) && failed.RetryCount < m.cfg.Workflow.MaxRetries {
		failed.RetryCount = m.cfg.Workflow.MaxRetries
		if err := m.store.Update(ctx, failed); err != nil {
			log.Error("could not cap retries for permanent failure", logging.Error(err))
		}
	}

	_ = m.notifier.Publish(ctx, notifications.EventStoryFailed, notifications.Payload{
		"title":  storyLabel(failed),
		"reason": cause.Error(),
	})
	return cause
}

func (m *Manager) notifyRetry(ctx context.Context, story *queue.Story) {
	logging.WithContext(services.WithStoryID(ctx, story.ID), m.logger).Info("retrying failed story",
		logging.Int("attempt", story.RetryCount+1),
		logging.Int("max_retries", m.cfg.Workflow.MaxRetries))
	_ = m.notifier.Publish(ctx, notifications.EventRetryScheduled, notifications.Payload{
		"title":      storyLabel(story),
		"attempt":    strconv.Itoa(story.RetryCount + 1),
		"maxRetries": strconv.Itoa(m.cfg.Workflow.MaxRetries),
	})
}

// findDuplicate compares extracted text against every stored story by term
// frequency cosine similarity. Returns the matching story ID, or zero.
func (m *Manager) findDuplicate(ctx context.Context, storyID int64, text string) (int64, float64, error) {
	stories, err := m.store.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	incoming := textutil.NewFingerprint(text)
	if incoming.TokenCount() == 0 {
		return 0, 0, nil
	}
	for _, other := range stories {
		if other.ID == storyID || other.ContentText == "" {
			continue
		}
		similarity := textutil.CosineSimilarity(incoming, textutil.NewFingerprint(other.ContentText))
		if similarity >= duplicateThreshold {
			return other.ID, similarity, nil
		}
	}
	return 0, 0, nil
}

func storyLabel(story *queue.Story) string {
	if story.Title != "" {
		return story.Title
	}
	if story.Subject != "" {
		return story.Subject
	}
	return fmt.Sprintf("story %d", story.ID)
}
