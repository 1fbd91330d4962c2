package summarization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/types"
	"voice-ingest-go/internal/upstream"
)

// ErrEmptySummary is returned when no choice carries text.
var ErrEmptySummary = errors.New("summary returned no text")

const promptTemplate = `Please provide a concise summary of 16 words or less, of the key points discussed in the monologue. The transcript is as follows: '%s'`

// BuildPrompt embeds the transcript in the fixed summary prompt.
func BuildPrompt(transcript string) string {
	return fmt.Sprintf(promptTemplate, transcript)
}

type Request struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type Choice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason,omitempty"`
}

type Response struct {
	ID      string   `json:"id,omitempty"`
	Choices []Choice `json:"choices"`
}

type Client struct {
	Endpoint  string
	Model     string
	MaxTokens int
	// Mock returns a canned summary without calling out.
	Mock bool

	caller *upstream.Caller
	log    *logger.Logger
}

func New(baseURL, model string, maxTokens int, caller *upstream.Caller, log *logger.Logger) *Client {
	return &Client{
		Endpoint:  strings.TrimRight(baseURL, "/") + "/completions",
		Model:     model,
		MaxTokens: maxTokens,
		caller:    caller,
		log:       log.With("module", "summarization"),
	}
}

// Summarize returns the first non-empty completion for the transcript.
func (c *Client) Summarize(ctx context.Context, creds types.Credentials, transcript string) (string, error) {
	if c.Mock {
		return "MOCK SUMMARY: planning meeting recap with follow-up items.", nil
	}

	data, err := json.Marshal(Request{
		Model:     c.Model,
		Prompt:    BuildPrompt(transcript),
		MaxTokens: c.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	log := c.log.With("payload_len", len(data))
	log.Debug("requesting summary")
	start := time.Now()

	var resp Response
	err = c.caller.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		upstream.Authorize(req, creds)
		return req, nil
	}, &resp)
	if err != nil {
		log.WithError(err).Warn("summary request failed")
		return "", err
	}

	for _, ch := range resp.Choices {
		if text := strings.TrimSpace(ch.Text); text != "" {
			log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("summary received")
			return text, nil
		}
	}
	return "", ErrEmptySummary
}
