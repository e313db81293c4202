package ipc

import (
	"time"

	"storyfeed/internal/queue"
)

// StoryItem is the wire representation of a queued story.
type StoryItem struct {
	ID                 int64  `json:"id"`
	SourceID           string `json:"source_id"`
	Title              string `json:"title"`
	Author             string `json:"author"`
	Status             string `json:"status"`
	ExtractionStrategy string `json:"extraction_strategy"`
	ChunkingStrategy   string `json:"chunking_strategy"`
	RetryCount         int    `json:"retry_count"`
	ErrorMessage       string `json:"error_message"`
	ReceivedAt         string `json:"received_at"`
}

// FromStory converts a store row into its wire representation.
func FromStory(story *queue.Story) StoryItem {
	if story == nil {
		return StoryItem{}
	}
	return StoryItem{
		ID:                 story.ID,
		SourceID:           story.SourceID,
		Title:              story.Title,
		Author:             story.Author,
		Status:             string(story.Status),
		ExtractionStrategy: story.ExtractionStrategy,
		ChunkingStrategy:   story.ChunkingStrategy,
		RetryCount:         story.RetryCount,
		ErrorMessage:       story.ErrorMessage,
		ReceivedAt:         story.ReceivedAt.Format(time.RFC3339),
	}
}

// ChunkItem is the wire representation of a stored story chunk.
type ChunkItem struct {
	ID           int64  `json:"id"`
	ChunkNumber  int    `json:"chunk_number"`
	TotalChunks  int    `json:"total_chunks"`
	WordCount    int    `json:"word_count"`
	ArtifactPath string `json:"artifact_path"`
	SentAt       string `json:"sent_at"`
}

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
	PID         int            `json:"pid"`
}

// SubmitRequest enqueues a story from the CLI.
type SubmitRequest struct {
	SourceID        string `json:"source_id"`
	Subject         string `json:"subject"`
	From            string `json:"from"`
	Text            string `json:"text"`
	HTML            string `json:"html"`
	URL             string `json:"url"`
	Password        string `json:"password"`
	SendImmediately bool   `json:"send_immediately"`
}

// SubmitResponse reports the enqueued story.
type SubmitResponse struct {
	Item      StoryItem `json:"item"`
	Duplicate bool      `json:"duplicate"`
}

// SendNextRequest delivers the next due chunk immediately.
type SendNextRequest struct{}

// SendNextResponse reports the delivery outcome.
type SendNextResponse struct {
	Sent        bool   `json:"sent"`
	QueueEmpty  bool   `json:"queue_empty"`
	StoryTitle  string `json:"story_title"`
	ChunkNumber int    `json:"chunk_number"`
	TotalChunks int    `json:"total_chunks"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []StoryItem `json:"items"`
}

// QueueDescribeRequest fetches a single story with its chunks.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a story and its stored chunks.
type QueueDescribeResponse struct {
	Item   StoryItem   `json:"item"`
	Chunks []ChunkItem `json:"chunks"`
}

// QueueClearRequest removes stories, optionally restricted by status.
type QueueClearRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest resets in-flight stories.
type QueueResetRequest struct{}

// QueueResetResponse reports number of stories reset.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest retries failed stories. Empty list means all failed stories.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried stories.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Chunked    int `json:"chunked"`
	Failed     int `json:"failed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	TableExists      bool   `json:"table_exists"`
	TotalStories     int    `json:"total_stories"`
	Error            string `json:"error"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
