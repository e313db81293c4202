package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a story in the queue.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusChunked    Status = "chunked"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusChunked,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

type statusTransition struct {
	from Status
	to   Status
}

// allowedTransitions is the full lifecycle table. A failed story may re-enter
// processing for an automatic retry or return to pending when a retry is
// requested manually. Processing drops back to pending only when the daemon
// resets stories it abandoned mid-flight.
var allowedTransitions = []statusTransition{
	{from: StatusPending, to: StatusProcessing},
	{from: StatusProcessing, to: StatusChunked},
	{from: StatusProcessing, to: StatusFailed},
	{from: StatusProcessing, to: StatusPending},
	{from: StatusFailed, to: StatusProcessing},
	{from: StatusFailed, to: StatusPending},
}

var transitionSet = func() map[statusTransition]struct{} {
	set := make(map[statusTransition]struct{}, len(allowedTransitions))
	for _, t := range allowedTransitions {
		set[t] = struct{}{}
	}
	return set
}()

// CanTransition reports whether moving a story from one status to another is
// a legal lifecycle step.
func CanTransition(from, to Status) bool {
	_, ok := transitionSet[statusTransition{from: from, to: to}]
	return ok
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Story represents a submitted story persisted in SQLite. Raw inputs are kept
// so a failed story can be reprocessed from scratch on retry.
type Story struct {
	ID                 int64
	SourceID           string
	Subject            string
	FromAddr           string
	URL                string
	URLPassword        string
	RawText            string
	RawHTML            string
	Title              string
	Author             string
	ContentText        string
	ExtractionStrategy string
	ChunkingStrategy   string
	Status             Status
	ErrorMessage       string
	RetryCount         int
	SendImmediately    bool
	ReceivedAt         time.Time
	UpdatedAt          time.Time
}

// IsProcessing reports whether the story is mid-pipeline.
func (s Story) IsProcessing() bool {
	return s.Status == StatusProcessing
}

// IsTerminal reports whether the story has finished the preparation pipeline.
func (s Story) IsTerminal() bool {
	return s.Status == StatusChunked
}

// SetFailed marks the story as failed with the given error message.
func (s *Story) SetFailed(message string) {
	s.Status = StatusFailed
	s.ErrorMessage = message
}

// Chunk is one reading installment of a story. Content already includes the
// recap block for chunks after the first.
type Chunk struct {
	ID           int64
	StoryID      int64
	ChunkNumber  int
	TotalChunks  int
	Content      string
	WordCount    int
	ArtifactPath string
	CreatedAt    time.Time
	SentAt       *time.Time
}

// Sent reports whether the chunk has been delivered.
func (c Chunk) Sent() bool {
	return c.SentAt != nil
}

// DeliverableChunk pairs a chunk with the story fields delivery needs.
type DeliverableChunk struct {
	Chunk
	StoryTitle  string
	StoryAuthor string
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Chunked    int
	Failed     int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	TotalStories     int
	Error            string
}
