package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storyfeed/internal/chunking"
	"storyfeed/internal/config"
	"storyfeed/internal/delivery"
	"storyfeed/internal/extraction"
	"storyfeed/internal/logging"
	"storyfeed/internal/notifications"
	"storyfeed/internal/queue"
	"storyfeed/internal/services/llm"
)

// Extractor pulls story text out of a submission.
type Extractor interface {
	Extract(ctx context.Context, in extraction.Input) (*extraction.Result, error)
}

// Chunker splits story text into a stored chunk batch.
type Chunker interface {
	ChunkStory(ctx context.Context, text string) ([]queue.Chunk, string, error)
}

// Deliverer sends the next due chunk.
type Deliverer interface {
	SendNext(ctx context.Context) (delivery.Outcome, error)
}

// Manager drives the story lifecycle: it claims pending stories, runs the
// extraction and chunking stages, sweeps failed stories back in for retries,
// and ticks the delivery scheduler.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	extractor Extractor
	chunker   Chunker
	deliverer Deliverer
	notifier  notifications.Service
	logger    *slog.Logger

	pollInterval     time.Duration
	errorInterval    time.Duration
	retryInterval    time.Duration
	deliveryInterval time.Duration

	// kickDelivery wakes the delivery loop for send-immediately stories.
	kickDelivery chan struct{}

	// llmHealth, when set, is probed once at startup so a bad API key shows
	// up in the log before the first story needs the agent strategies.
	llmHealth func(context.Context) error

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager wires the full pipeline from configuration.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	var client *llm.Client
	llmCfg := cfg.GetLLM()
	if llmCfg.APIKey != "" {
		client = llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})
	}

	var extractorClient extraction.LLMCompleter
	var chunkerClient chunking.Completer
	if client != nil {
		extractorClient = client
		chunkerClient = client
	}

	notifier := notifications.NewService(cfg)
	generator := delivery.NewGenerator(cfg.Paths.ArtifactDir)
	sender := delivery.NewSender(cfg, logger)

	m := NewManagerWith(
		cfg,
		store,
		extraction.NewChain(cfg, extractorClient, logger),
		chunking.NewOrchestrator(cfg, chunkerClient, logger),
		delivery.NewScheduler(store, generator, sender, notifier, logger),
		notifier,
		logger,
	)
	if client != nil {
		m.llmHealth = client.HealthCheck
	}
	return m
}

// NewManagerWith wires a manager over explicit stage implementations. Tests
// use it to substitute fakes.
func NewManagerWith(cfg *config.Config, store *queue.Store, extractor Extractor, chunker Chunker, deliverer Deliverer, notifier notifications.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Manager{
		cfg:              cfg,
		store:            store,
		extractor:        extractor,
		chunker:          chunker,
		deliverer:        deliverer,
		notifier:         notifier,
		logger:           logging.WithComponent(logger, "workflow"),
		pollInterval:     secondsOrDefault(cfg.Workflow.QueuePollInterval, 10*time.Second),
		errorInterval:    secondsOrDefault(cfg.Workflow.ErrorRetryInterval, 30*time.Second),
		retryInterval:    secondsOrDefault(cfg.Workflow.RetryInterval, 6*time.Hour),
		deliveryInterval: secondsOrDefault(cfg.Workflow.DeliveryInterval, 24*time.Hour),
		kickDelivery:     make(chan struct{}, 1),
	}
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// LastError reports the most recent loop failure, for status surfaces.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Running reports whether the background loops are active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// SendNext asks the delivery scheduler to send the next due chunk now.
func (m *Manager) SendNext(ctx context.Context) (delivery.Outcome, error) {
	return m.deliverer.SendNext(ctx)
}

// StatusSummary captures workflow state for status surfaces.
type StatusSummary struct {
	Running    bool
	LastError  string
	QueueStats map[queue.Status]int
}

// Status reports loop state plus current queue counts.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	summary := StatusSummary{Running: m.Running()}
	if err := m.LastError(); err != nil {
		summary.LastError = err.Error()
	}
	if stats, err := m.store.Stats(ctx); err == nil {
		summary.QueueStats = stats
	}
	return summary
}
