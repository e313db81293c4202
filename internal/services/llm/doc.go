// Package llm provides an OpenRouter chat client used by the agent strategies.
//
// This package is used by:
//   - Extraction stage: locate story content inside an email when the
//     deterministic strategies cannot
//   - Chunking stage: pick natural break points in a story
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
// When unconfigured, callers should fall back to the deterministic strategies.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output tolerating code fences and prose wrappers.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
//
// # Fallback
//
// If the LLM is unavailable or returns an error, callers advance to the next
// strategy in their chain rather than failing the story outright.
package llm
