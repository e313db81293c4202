package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storyfeed/internal/delivery"
	"storyfeed/internal/extraction"
	"storyfeed/internal/notifications"
	"storyfeed/internal/queue"
	"storyfeed/internal/services"
	"storyfeed/internal/testsupport"
	"storyfeed/internal/textutil"
	"storyfeed/internal/workflow"
)

type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) Extract(_ context.Context, in extraction.Input) (*extraction.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &extraction.Result{
		Text:     in.Text,
		Title:    extraction.CleanSubject(in.Subject),
		Author:   extraction.AuthorFromAddress(in.From),
		Strategy: "inline",
	}, nil
}

type fakeChunker struct {
	err error
}

func (f *fakeChunker) ChunkStory(_ context.Context, text string) ([]queue.Chunk, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return []queue.Chunk{
		{ChunkNumber: 1, TotalChunks: 2, Content: text, WordCount: textutil.CountWords(text)},
		{ChunkNumber: 2, TotalChunks: 2, Content: "the rest", WordCount: 2},
	}, "simple", nil
}

type fakeDeliverer struct {
	calls chan struct{}
}

func (f *fakeDeliverer) SendNext(context.Context) (delivery.Outcome, error) {
	if f.calls != nil {
		select {
		case f.calls <- struct{}{}:
		default:
		}
	}
	return delivery.Outcome{QueueEmpty: true}, nil
}

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) saw(event notifications.Event) bool {
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestManager(t *testing.T, extractor workflow.Extractor, chunker workflow.Chunker, deliverer workflow.Deliverer, notifier notifications.Service) (*workflow.Manager, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWith(cfg, store, extractor, chunker, deliverer, notifier, nil)
	return mgr, store
}

func TestProcessNextChunksPendingStory(t *testing.T) {
	notifier := &recordingNotifier{}
	mgr, store := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, &fakeDeliverer{}, notifier)

	sub := workflow.Submission{
		SourceID: "msg-1",
		Subject:  "Re: The Long Road",
		From:     "Jane Writer <jane@example.com>",
		Text:     testsupport.StoryText(400),
	}
	story, err := workflow.Submit(context.Background(), store, notifier, sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	processed, err := mgr.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("ProcessNext: %v", err)
	}
	if !processed {
		t.Fatal("expected a story to be processed")
	}

	stored, err := store.GetByID(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusChunked {
		t.Fatalf("expected chunked status, got %s", stored.Status)
	}
	if stored.Title != "The Long Road" || stored.Author != "Jane Writer" {
		t.Fatalf("unexpected metadata %q by %q", stored.Title, stored.Author)
	}
	if stored.ExtractionStrategy != "inline" || stored.ChunkingStrategy != "simple" {
		t.Fatalf("unexpected strategies %q/%q", stored.ExtractionStrategy, stored.ChunkingStrategy)
	}

	chunks, err := store.ChunksByStory(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("ChunksByStory: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !notifier.saw(notifications.EventStoryReceived) || !notifier.saw(notifications.EventStoryChunked) {
		t.Fatalf("missing lifecycle events, saw %v", notifier.events)
	}
}

func TestProcessNextReportsEmptyQueue(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, &fakeDeliverer{}, nil)
	processed, err := mgr.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("ProcessNext: %v", err)
	}
	if processed {
		t.Fatal("expected nothing to process")
	}
}

func TestTransientFailureKeepsRetryBudget(t *testing.T) {
	notifier := &recordingNotifier{}
	cause := services.Wrap(services.ErrTransient, "extraction", "chain", "all strategies exhausted", nil)
	mgr, store := newTestManager(t, &fakeExtractor{err: cause}, &fakeChunker{}, &fakeDeliverer{}, notifier)

	story, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{
		SourceID: "msg-1",
		Text:     testsupport.StoryText(400),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := mgr.ProcessNext(context.Background()); err == nil {
		t.Fatal("expected the extraction failure to surface")
	}

	stored, err := store.GetByID(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", stored.Status)
	}
	if stored.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", stored.RetryCount)
	}
	if !strings.Contains(stored.ErrorMessage, "all strategies exhausted") {
		t.Fatalf("unexpected error message %q", stored.ErrorMessage)
	}
	if !notifier.saw(notifications.EventStoryFailed) {
		t.Fatal("expected a story failed event")
	}

	eligible, err := store.RetryEligible(context.Background(), 3)
	if err != nil {
		t.Fatalf("RetryEligible: %v", err)
	}
	if len(eligible) != 1 {
		t.Fatalf("expected the story to stay retry eligible, got %d", len(eligible))
	}
}

func TestValidationFailureIsTerminal(t *testing.T) {
	cause := services.Wrap(services.ErrValidation, "extraction", "chain", "no strategy could handle the submission", nil)
	mgr, store := newTestManager(t, &fakeExtractor{err: cause}, &fakeChunker{}, &fakeDeliverer{}, nil)

	if _, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{
		SourceID: "msg-1",
		Text:     "short",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := mgr.ProcessNext(context.Background()); err == nil {
		t.Fatal("expected the validation failure to surface")
	}

	eligible, err := store.RetryEligible(context.Background(), 3)
	if err != nil {
		t.Fatalf("RetryEligible: %v", err)
	}
	if len(eligible) != 0 {
		t.Fatalf("expected no retry-eligible stories, got %d", len(eligible))
	}
}

func TestNearDuplicateSubmissionFails(t *testing.T) {
	mgr, store := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, &fakeDeliverer{}, nil)
	text := testsupport.StoryText(500)

	if _, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{SourceID: "msg-1", Text: text}); err != nil {
		t.Fatalf("Submit first: %v", err)
	}
	if _, err := mgr.ProcessNext(context.Background()); err != nil {
		t.Fatalf("ProcessNext first: %v", err)
	}

	// Same prose under a fresh source id still gets caught by content
	// similarity.
	story2, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{SourceID: "msg-2", Text: text})
	if err != nil {
		t.Fatalf("Submit second: %v", err)
	}
	if _, err := mgr.ProcessNext(context.Background()); err == nil {
		t.Fatal("expected the near-duplicate to fail")
	}

	stored, err := store.GetByID(context.Background(), story2.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", stored.Status)
	}
	if !strings.Contains(stored.ErrorMessage, "near-duplicate") {
		t.Fatalf("unexpected error message %q", stored.ErrorMessage)
	}
}

func TestSubmitRejectsDuplicateSourceID(t *testing.T) {
	_, store := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, &fakeDeliverer{}, nil)

	first, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{SourceID: "msg-1", Text: "body text"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	again, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{SourceID: "msg-1", Text: "body text"})
	if !errors.Is(err, queue.ErrDuplicateStory) {
		t.Fatalf("expected ErrDuplicateStory, got %v", err)
	}
	if again == nil || again.ID != first.ID {
		t.Fatal("expected the existing story back")
	}
}

func TestSubmitRequiresContent(t *testing.T) {
	_, store := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, &fakeDeliverer{}, nil)
	if _, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{}); err == nil {
		t.Fatal("expected an empty submission to be rejected")
	}
}

func TestSubmitGeneratesSourceIDForURL(t *testing.T) {
	_, store := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, &fakeDeliverer{}, nil)
	story, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{URL: "https://example.com/post"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(story.SourceID, "url-") {
		t.Fatalf("expected a synthetic url source id, got %q", story.SourceID)
	}
}

func TestSendImmediatelyWakesDeliveryLoop(t *testing.T) {
	deliverer := &fakeDeliverer{calls: make(chan struct{}, 4)}
	mgr, store := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, deliverer, nil)

	if _, err := workflow.Submit(context.Background(), store, nil, workflow.Submission{
		SourceID:        "msg-1",
		Text:            testsupport.StoryText(400),
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	select {
	case <-deliverer.calls:
	case <-time.After(15 * time.Second):
		t.Fatal("delivery loop was not woken")
	}
}

func TestStartRejectsDoubleStart(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeExtractor{}, &fakeChunker{}, &fakeDeliverer{}, nil)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
}
