package delivery

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"storyfeed/internal/logging"
	"storyfeed/internal/notifications"
	"storyfeed/internal/queue"
	"storyfeed/internal/services"
)

// Outcome reports what a delivery pass did.
type Outcome struct {
	Sent       bool
	QueueEmpty bool
	Chunk      *queue.DeliverableChunk
}

// Scheduler sends the next due chunk: oldest story first, lowest part number
// first, one chunk per pass.
type Scheduler struct {
	store     *queue.Store
	generator *Generator
	sender    Sender
	notifier  notifications.Service
	logger    *slog.Logger
}

// NewScheduler wires the delivery pipeline.
func NewScheduler(store *queue.Store, generator *Generator, sender Sender, notifier notifications.Service, logger *slog.Logger) *Scheduler {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Scheduler{
		store:     store,
		generator: generator,
		sender:    sender,
		notifier:  notifier,
		logger:    logging.WithComponent(orNop(logger), "delivery"),
	}
}

// SendNext delivers the next unsent chunk. An empty queue is not an error.
// A chunk that lost the sent-at race is skipped without error; it was
// delivered by someone else.
func (s *Scheduler) SendNext(ctx context.Context) (Outcome, error) {
	chunk, err := s.store.NextUnsentChunk(ctx)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrTransient, "delivery", "next chunk", "queue lookup failed", err)
	}
	if chunk == nil {
		s.logger.Debug("queue empty, nothing to send")
		_ = s.notifier.Publish(ctx, notifications.EventQueueEmpty, nil)
		return Outcome{QueueEmpty: true}, nil
	}

	ctx = services.WithStoryID(ctx, chunk.StoryID)
	log := logging.WithContext(ctx, s.logger)

	artifact, err := s.generator.Generate(chunk)
	if err != nil {
		return Outcome{Chunk: chunk}, services.Wrap(services.ErrTransient, "delivery", "render", "epub generation failed", err)
	}
	if err := s.store.SetChunkArtifact(ctx, chunk.ID, artifact); err != nil {
		return Outcome{Chunk: chunk}, services.Wrap(services.ErrTransient, "delivery", "render", "record artifact", err)
	}

	if err := s.sender.Send(ctx, chunk, artifact); err != nil {
		_ = s.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
			"context": "delivery",
			"error":   err.Error(),
		})
		return Outcome{Chunk: chunk}, services.Wrap(services.ErrExternalService, "delivery", "send", "chunk email failed", err)
	}

	marked, err := s.store.MarkChunkSent(ctx, chunk.ID, time.Now().UTC())
	if err != nil {
		return Outcome{Chunk: chunk}, services.Wrap(services.ErrTransient, "delivery", "send", "mark chunk sent", err)
	}
	if !marked {
		log.Warn("chunk already marked sent, skipping",
			logging.Int(logging.FieldChunk, chunk.ChunkNumber))
		return Outcome{Chunk: chunk}, nil
	}

	log.Info("chunk delivered",
		logging.Int(logging.FieldChunk, chunk.ChunkNumber),
		logging.Int(logging.FieldChunkCount, chunk.TotalChunks),
		logging.String("title", chunk.StoryTitle))
	_ = s.notifier.Publish(ctx, notifications.EventChunkDelivered, notifications.Payload{
		"title":       chunk.StoryTitle,
		"chunkNumber": strconv.Itoa(chunk.ChunkNumber),
		"totalChunks": strconv.Itoa(chunk.TotalChunks),
	})

	remaining, err := s.store.UnsentChunkCount(ctx, chunk.StoryID)
	if err != nil {
		return Outcome{Sent: true, Chunk: chunk}, services.Wrap(services.ErrTransient, "delivery", "send", "count remaining chunks", err)
	}
	if remaining == 0 {
		log.Info("story fully delivered", logging.String("title", chunk.StoryTitle))
		_ = s.notifier.Publish(ctx, notifications.EventStoryCompleted, notifications.Payload{
			"title": chunk.StoryTitle,
		})
	}

	return Outcome{Sent: true, Chunk: chunk}, nil
}
