package workflow

import (
	"context"
	"errors"
	"time"

	"storyfeed/internal/logging"
)

// Start begins background processing. Stories stranded in processing by a
// previous crash are reset to pending before the loops begin.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(3)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("could not reset stuck processing stories", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset stuck processing stories", logging.Int64("count", reset))
	}

	if m.llmHealth != nil {
		go m.probeLLM(runCtx)
	}

	go m.processLoop(runCtx)
	go m.retryLoop(runCtx)
	go m.deliveryLoop(runCtx)
	return nil
}

// probeLLM pings the LLM once at startup. Failures are logged, not fatal;
// the agent strategies fall back to their deterministic siblings anyway.
func (m *Manager) probeLLM(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := m.llmHealth(probeCtx); err != nil {
		m.logger.Warn("llm health check failed", logging.Error(err))
		return
	}
	m.logger.Info("llm health check passed")
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) processLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := m.ProcessNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("story processing failed", logging.Error(err))
			m.sleep(ctx, m.errorInterval)
			continue
		}
		if !processed {
			m.sleep(ctx, m.pollInterval)
		}
	}
}

// retryLoop periodically moves failed stories that still have retry budget
// back through the pipeline.
func (m *Manager) retryLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stories, err := m.store.RetryEligible(ctx, m.cfg.Workflow.MaxRetries)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("retry sweep failed", logging.Error(err))
			continue
		}
		for _, story := range stories {
			if ctx.Err() != nil {
				return
			}
			m.notifyRetry(ctx, story)
			if err := m.processStory(ctx, story); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				m.setLastError(err)
			}
		}
	}
}

func (m *Manager) deliveryLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.deliveryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.kickDelivery:
		}

		if _, err := m.deliverer.SendNext(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("delivery pass failed", logging.Error(err))
		}
	}
}

// requestDelivery wakes the delivery loop without waiting for the next tick.
func (m *Manager) requestDelivery() {
	select {
	case m.kickDelivery <- struct{}{}:
	default:
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
