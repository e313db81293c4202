package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyfeed/internal/delivery"
	"storyfeed/internal/extraction"
	"storyfeed/internal/queue"
	"storyfeed/internal/testsupport"
)

type idleExtractor struct{}

func (idleExtractor) Extract(context.Context, extraction.Input) (*extraction.Result, error) {
	return nil, errors.New("not reachable with an empty queue")
}

type idleChunker struct{}

func (idleChunker) ChunkStory(context.Context, string) ([]queue.Chunk, string, error) {
	return nil, "", errors.New("not reachable with an empty queue")
}

type idleDeliverer struct{}

func (idleDeliverer) SendNext(context.Context) (delivery.Outcome, error) {
	return delivery.Outcome{QueueEmpty: true}, nil
}

func TestStartRunsLLMHealthProbe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	m := NewManagerWith(cfg, store, idleExtractor{}, idleChunker{}, idleDeliverer{}, nil, nil)
	probed := make(chan struct{})
	m.llmHealth = func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a bounded probe context")
		}
		close(probed)
		return errors.New("invalid api key")
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	select {
	case <-probed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected the health probe to run at startup")
	}
}

func TestStartSkipsLLMProbeWhenUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	m := NewManagerWith(cfg, store, idleExtractor{}, idleChunker{}, idleDeliverer{}, nil, nil)
	if m.llmHealth != nil {
		t.Fatal("expected no health probe without an llm client")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Stop()
}
