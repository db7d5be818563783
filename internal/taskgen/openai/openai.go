// Package openai implements taskgen.TextGenerator against an
// OpenAI-compatible chat-completions endpoint.
//
// The service is treated as unreliable by contract: timeouts, non-OK
// statuses, and non-JSON bodies are the common case, not the exception.
// Every such outcome is returned as an ordinary error so the pipeline can
// fall back to templates without ceremony.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amara/mothertongue/internal/taskgen"
)

// Config holds the client settings, read from the environment in main.
type Config struct {
	BaseURL string        // e.g. "https://api.openai.com"
	APIKey  string
	Model   string        // e.g. "gpt-4o-mini"
	Timeout time.Duration // hard bound on the whole call
}

// DefaultConfig returns sensible defaults; APIKey must still be provided.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.openai.com",
		Model:   "gpt-4o-mini",
		Timeout: 15 * time.Second,
	}
}

// Client calls the chat-completions API to draft a translation task.
type Client struct {
	config Config
	http   *http.Client
}

// compile-time check that *Client implements taskgen.TextGenerator
var _ taskgen.TextGenerator = (*Client)(nil)

// New creates a Client. The http.Client timeout is the outer bound — the
// per-request context can only shorten it, never extend it.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Wire types for the chat-completions API. We only declare the fields we
// read — the API returns far more.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// taskPayload is the strict JSON object the model is instructed to emit.
type taskPayload struct {
	EnglishText   string `json:"english_text"`
	Description   string `json:"description"`
	EstimatedTime int    `json:"estimated_time"`
}

// GenerateTask asks the model for one task draft.
//
// The prompt pins down the contract: one JSON object, nothing else, and
// none of the recently used texts. The model still gets it wrong often
// enough that parsing leniently (stripping code fences, locating the
// outermost braces) is worth the few extra lines.
func (c *Client) GenerateTask(ctx context.Context, req taskgen.Request) (*taskgen.Draft, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Temperature: 0.9,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: calling completions API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: completions API returned status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("openai: decoding response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("openai: response contained no choices")
	}

	payload, err := parsePayload(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &taskgen.Draft{
		EnglishText:      strings.TrimSpace(payload.EnglishText),
		Description:      strings.TrimSpace(payload.Description),
		EstimatedMinutes: payload.EstimatedTime,
	}, nil
}

const systemPrompt = "You create short English prompts for a community voice-recording " +
	"project. Respond with exactly one JSON object and no other text."

// buildPrompt writes the user instruction, including the avoid-list of
// recently used texts so the model does not repeat itself.
func buildPrompt(req taskgen.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce one English %s for speakers of %s to translate and record aloud.\n",
		req.Category, req.LanguageName)
	fmt.Fprintf(&b, "Difficulty: %s. Use everyday, culturally neutral language.\n", req.Difficulty)
	b.WriteString(`Respond with one JSON object: {"english_text": ..., "description": ..., "estimated_time": <minutes 1-5>}` + "\n")

	if len(req.UsedTexts) > 0 {
		b.WriteString("Do NOT produce any of these already-used texts or close variations of them:\n")
		for _, used := range req.UsedTexts {
			fmt.Fprintf(&b, "- %s\n", used)
		}
	}
	return b.String()
}

// parsePayload extracts the task JSON from the model's reply. Models wrap
// JSON in markdown fences or prose often enough that we cut to the
// outermost braces before unmarshalling.
func parsePayload(content string) (*taskPayload, error) {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("openai: reply contained no JSON object")
	}

	var payload taskPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("openai: parsing task payload: %w", err)
	}
	if strings.TrimSpace(payload.EnglishText) == "" {
		return nil, fmt.Errorf("openai: task payload has empty english_text")
	}
	return &payload, nil
}
