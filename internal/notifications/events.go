package notifications

import (
	"fmt"
	"strings"
)

// Event identifies a workflow milestone worth telling the user about.
type Event string

const (
	EventStoryReceived  Event = "story_received"
	EventStoryChunked   Event = "story_chunked"
	EventStoryFailed    Event = "story_failed"
	EventRetryScheduled Event = "retry_scheduled"
	EventChunkDelivered Event = "chunk_delivered"
	EventStoryCompleted Event = "story_completed"
	EventQueueEmpty     Event = "queue_empty"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries the event's display values, keyed by field name.
type Payload map[string]string

type category int

const (
	categoryAlways category = iota
	categoryStories
	categoryDelivery
	categoryErrors
)

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type renderer struct {
	category category
	render   func(p Payload) message
}

func (p Payload) get(key, fallback string) string {
	if v := strings.TrimSpace(p[key]); v != "" {
		return v
	}
	return fallback
}

var renderers = map[Event]renderer{
	EventStoryReceived: {categoryStories, func(p Payload) message {
		return message{
			title: "Storyfeed - Story Received",
			body:  fmt.Sprintf("📥 New story: %s by %s", p.get("title", "Unknown Title"), p.get("author", "Unknown Author")),
			tags:  []string{"storyfeed", "story", "received"},
		}
	}},
	EventStoryChunked: {categoryStories, func(p Payload) message {
		return message{
			title: "Storyfeed - Story Ready",
			body:  fmt.Sprintf("📖 Chunked: %s (%s parts)", p.get("title", "Unknown Title"), p.get("chunkCount", "?")),
			tags:  []string{"storyfeed", "story", "chunked"},
		}
	}},
	EventStoryFailed: {categoryErrors, func(p Payload) message {
		return message{
			title:    "Storyfeed - Story Failed",
			body:     fmt.Sprintf("❌ Failed: %s: %s", p.get("title", "Unknown Title"), p.get("reason", "unknown error")),
			tags:     []string{"storyfeed", "story", "failed"},
			priority: "high",
		}
	}},
	EventRetryScheduled: {categoryErrors, func(p Payload) message {
		return message{
			title: "Storyfeed - Retry Scheduled",
			body:  fmt.Sprintf("🔁 Retry %s/%s for: %s", p.get("attempt", "?"), p.get("maxRetries", "?"), p.get("title", "Unknown Title")),
			tags:  []string{"storyfeed", "story", "retry"},
		}
	}},
	EventChunkDelivered: {categoryDelivery, func(p Payload) message {
		return message{
			title: "Storyfeed - Chunk Sent",
			body:  fmt.Sprintf("📬 Sent part %s/%s: %s", p.get("chunkNumber", "?"), p.get("totalChunks", "?"), p.get("title", "Unknown Title")),
			tags:  []string{"storyfeed", "delivery", "sent"},
		}
	}},
	EventStoryCompleted: {categoryDelivery, func(p Payload) message {
		return message{
			title:    "Storyfeed - Story Complete",
			body:     fmt.Sprintf("✅ All parts delivered: %s", p.get("title", "Unknown Title")),
			tags:     []string{"storyfeed", "delivery", "completed"},
			priority: "high",
		}
	}},
	EventQueueEmpty: {categoryDelivery, func(p Payload) message {
		return message{
			title:    "Storyfeed - Queue Empty",
			body:     "Nothing left to send",
			tags:     []string{"storyfeed", "delivery", "empty"},
			priority: "low",
		}
	}},
	EventError: {categoryErrors, func(p Payload) message {
		return message{
			title:    "Storyfeed - Error",
			body:     fmt.Sprintf("❌ Error with %s: %s", p.get("context", "workflow"), p.get("error", "unknown")),
			tags:     []string{"storyfeed", "error", "alert"},
			priority: "high",
		}
	}},
	EventTest: {categoryAlways, func(Payload) message {
		return message{
			title:    "Storyfeed - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"storyfeed", "test"},
			priority: "low",
		}
	}},
}
