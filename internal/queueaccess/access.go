// Package queueaccess gives the CLI one queue surface whether a daemon is
// running or not: operations go over IPC when the socket answers and fall
// back to direct store access otherwise.
package queueaccess

import (
	"context"
	"time"

	"storyfeed/internal/ipc"
	"storyfeed/internal/queue"
)

// Access provides queue operations regardless of IPC or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]ipc.StoryItem, error)
	Describe(ctx context.Context, id int64) (*ipc.QueueDescribeResponse, error)
	Clear(ctx context.Context, statuses []string) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Health(ctx context.Context) (ipc.QueueHealthResponse, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{store: store}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Stats(context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]ipc.StoryItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*ipc.QueueDescribeResponse, error) {
	return a.client.QueueDescribe(id)
}

func (a *ipcAccess) Clear(_ context.Context, statuses []string) (int64, error) {
	resp, err := a.client.QueueClear(statuses)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ResetStuck(context.Context) (int64, error) {
	resp, err := a.client.QueueReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRetry(ids)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Health(context.Context) (ipc.QueueHealthResponse, error) {
	resp, err := a.client.QueueHealth()
	if err != nil {
		return ipc.QueueHealthResponse{}, err
	}
	return *resp, nil
}

type storeAccess struct {
	store *queue.Store
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]ipc.StoryItem, error) {
	stories, err := a.store.List(ctx, parseStatuses(statuses)...)
	if err != nil {
		return nil, err
	}
	items := make([]ipc.StoryItem, 0, len(stories))
	for _, story := range stories {
		if story == nil {
			continue
		}
		items = append(items, ipc.FromStory(story))
	}
	return items, nil
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*ipc.QueueDescribeResponse, error) {
	story, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chunks, err := a.store.ChunksByStory(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &ipc.QueueDescribeResponse{Item: ipc.FromStory(story)}
	resp.Chunks = make([]ipc.ChunkItem, 0, len(chunks))
	for _, chunk := range chunks {
		item := ipc.ChunkItem{
			ID:           chunk.ID,
			ChunkNumber:  chunk.ChunkNumber,
			TotalChunks:  chunk.TotalChunks,
			WordCount:    chunk.WordCount,
			ArtifactPath: chunk.ArtifactPath,
		}
		if chunk.SentAt != nil {
			item.SentAt = chunk.SentAt.Format(time.RFC3339)
		}
		resp.Chunks = append(resp.Chunks, item)
	}
	return resp, nil
}

func (a *storeAccess) Clear(ctx context.Context, statuses []string) (int64, error) {
	return a.store.Clear(ctx, parseStatuses(statuses)...)
}

func (a *storeAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *storeAccess) Health(ctx context.Context) (ipc.QueueHealthResponse, error) {
	health, err := a.store.Health(ctx)
	if err != nil {
		return ipc.QueueHealthResponse{}, err
	}
	return ipc.QueueHealthResponse{
		Total:      health.Total,
		Pending:    health.Pending,
		Processing: health.Processing,
		Chunked:    health.Chunked,
		Failed:     health.Failed,
	}, nil
}

func parseStatuses(values []string) []queue.Status {
	var statuses []queue.Status
	for _, value := range values {
		if parsed, ok := queue.ParseStatus(value); ok {
			statuses = append(statuses, parsed)
		}
	}
	return statuses
}
