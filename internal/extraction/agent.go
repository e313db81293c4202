package extraction

import (
	"context"
	"fmt"
	"strings"

	"storyfeed/internal/services/llm"
)

// agentSystemPrompt asks the model to classify the submission and surface the
// URL and password when a fetch is needed. The model never writes story text;
// it only routes to one of the deterministic strategies.
const agentSystemPrompt = `You analyze a story submission email and decide how to extract its story content.

Rules:
1. Do NOT generate story content. You only decide WHERE the story is.
2. Story content is narrative prose: dialogue, scenes, descriptions across multiple paragraphs.
3. Chapter numbers, dates, "View in app" links, Patreon links, and social buttons are not story content.
4. If the body has more than 1000 characters of narrative prose, choose "inline".
5. If the body has only a URL, a password, and brief text, choose "url".
6. When unsure, prefer "inline" if any substantial narrative is present.

Respond with JSON only:
{"strategy":"inline"|"url","url":"<exact url or empty>","password":"<exact password or empty>","confidence":"high"|"medium"|"low","reasoning":"<1-2 sentences>"}`

// previewLimit bounds how much of each body part is shown to the model.
const previewLimit = 4000

type agentDecision struct {
	Strategy   string `json:"strategy"`
	URL        string `json:"url"`
	Password   string `json:"password"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// LLMCompleter is the slice of the LLM client the agent needs.
type LLMCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AgentStrategy asks an LLM to route the submission, then delegates to the
// deterministic strategy the model chose.
type AgentStrategy struct {
	client LLMCompleter
	inline *InlineStrategy
	urls   *URLStrategy
}

// NewAgentStrategy wires the agent over the two deterministic strategies it
// can route to.
func NewAgentStrategy(client LLMCompleter, inline *InlineStrategy, urls *URLStrategy) *AgentStrategy {
	return &AgentStrategy{client: client, inline: inline, urls: urls}
}

func (s *AgentStrategy) Name() string { return "agent" }

// CanHandle requires a configured client and any body content to analyze.
func (s *AgentStrategy) CanHandle(in Input) bool {
	return s.client != nil && (strings.TrimSpace(in.Text) != "" || strings.TrimSpace(in.HTML) != "")
}

func (s *AgentStrategy) Extract(ctx context.Context, in Input) (*Result, error) {
	content, err := s.client.CompleteJSON(ctx, agentSystemPrompt, buildPreview(in))
	if err != nil {
		return nil, fmt.Errorf("agent analysis: %w", err)
	}

	var decision agentDecision
	if err := llm.DecodeLLMJSON(content, &decision); err != nil {
		return nil, fmt.Errorf("agent analysis: parse decision: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(decision.Confidence)) {
	case "high", "medium":
	default:
		return nil, fmt.Errorf("agent analysis: confidence %q too low to act on", decision.Confidence)
	}

	switch strings.ToLower(strings.TrimSpace(decision.Strategy)) {
	case "inline":
		result, err := s.inline.Extract(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("agent routed inline: %w", err)
		}
		return result, nil
	case "url":
		routed := in
		if url := strings.TrimSpace(decision.URL); url != "" && !strings.EqualFold(url, "none") {
			routed.URL = url
		}
		if pw := strings.TrimSpace(decision.Password); pw != "" && !strings.EqualFold(pw, "none") {
			routed.Password = pw
		}
		result, err := s.urls.Extract(ctx, routed)
		if err != nil {
			return nil, fmt.Errorf("agent routed url: %w", err)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("agent analysis: unknown strategy %q", decision.Strategy)
	}
}

func buildPreview(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nFrom: %s\n", in.Subject, in.From)
	if text := strings.TrimSpace(in.Text); text != "" {
		b.WriteString("\n--- TEXT CONTENT ---\n")
		b.WriteString(truncate(text, previewLimit))
		b.WriteByte('\n')
	}
	if html := strings.TrimSpace(in.HTML); html != "" {
		b.WriteString("\n--- HTML CONTENT ---\n")
		b.WriteString(truncate(html, previewLimit))
		b.WriteByte('\n')
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[truncated]"
}

var _ Strategy = (*AgentStrategy)(nil)
var _ Strategy = (*InlineStrategy)(nil)
var _ Strategy = (*URLStrategy)(nil)
