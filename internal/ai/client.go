// Package ai fills table cells using an OpenAI-compatible chat completion
// API. The model is asked for a strict JSON object so the response can be
// decoded without scraping prose.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gridnote/gridnote/internal/config"
	"github.com/gridnote/gridnote/internal/core"
)

const systemPrompt = `You fill in spreadsheet columns. You are given a table
(title, column headers, existing rows), a target column, and an instruction
describing what that column should contain. Respond with a JSON object of the
form {"values": ["...", "..."]} holding exactly the requested number of
values, one per row, in row order. Values must be plain cell text. Respond
with JSON only, no explanations.`

// Client calls a chat completion endpoint to suggest cell values.
// It satisfies core.CellGenerator.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewClient builds a Client from configuration. The caller should only
// construct one when cfg.Enabled() is true.
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SuggestCells implements core.CellGenerator.
func (c *Client) SuggestCells(ctx context.Context, req core.GenerateRequest) ([]string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
		MaxTokens:      c.maxTokens,
		Temperature:    c.temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call completion API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode completion response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("completion API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion response has no choices")
	}

	return decodeValues(parsed.Choices[0].Message.Content, req.Count)
}

// buildPrompt renders the table context and instruction for the model.
func buildPrompt(req core.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", req.TableTitle)
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(req.Columns, " | "))
	b.WriteString("Rows:\n")
	for i, row := range req.Rows {
		fmt.Fprintf(&b, "%d: %s\n", i+1, strings.Join(row, " | "))
	}
	target := ""
	if req.Column >= 0 && req.Column < len(req.Columns) {
		target = req.Columns[req.Column]
	}
	fmt.Fprintf(&b, "\nTarget column %d (%q). Instruction: %s\n", req.Column+1, target, req.Instruction)
	fmt.Fprintf(&b, "Return exactly %d values.\n", req.Count)
	return b.String()
}

// decodeValues parses the model's JSON payload, tolerating markdown fences
// some providers wrap around it.
func decodeValues(content string, want int) ([]string, error) {
	content = stripFences(content)

	var out struct {
		Values []string `json:"values"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	if len(out.Values) == 0 {
		return nil, fmt.Errorf("model returned no values")
	}
	if len(out.Values) > want {
		out.Values = out.Values[:want]
	}
	return out.Values, nil
}

// stripFences removes a ```json ... ``` or ``` ... ``` wrapper.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
