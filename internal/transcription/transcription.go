package transcription

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/types"
	"voice-ingest-go/internal/upstream"
)

// ErrEmptyTranscript is returned when the service answers without text.
var ErrEmptyTranscript = errors.New("transcription returned no text")

type Response struct {
	Text string `json:"text"`
}

type Client struct {
	Endpoint string
	Model    string
	// Mock returns a canned transcript without calling out.
	Mock bool

	caller *upstream.Caller
	log    *logger.Logger
}

func New(baseURL, model string, caller *upstream.Caller, log *logger.Logger) *Client {
	return &Client{
		Endpoint: strings.TrimRight(baseURL, "/") + "/audio/transcriptions",
		Model:    model,
		caller:   caller,
		log:      log.With("module", "transcription"),
	}
}

// Transcribe uploads the candidate's bytes and returns the raw text.
func (c *Client) Transcribe(ctx context.Context, creds types.Credentials, file types.CandidateFile) (string, error) {
	if c.Mock {
		return "MOCK TRANSCRIPT: Quick note to self about the quarterly planning meeting and follow-ups.", nil
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", filepath.Base(file.Name))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(file.Data); err != nil {
		return "", err
	}
	if err := w.WriteField("model", c.Model); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	body := b.Bytes()
	contentType := w.FormDataContentType()

	log := c.log.With("file", file.Name).With("bytes", len(file.Data))
	log.Info("uploading audio for transcription")
	start := time.Now()

	var resp Response
	err = c.caller.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		upstream.Authorize(req, creds)
		return req, nil
	}, &resp)
	if err != nil {
		log.WithError(err).Warn("transcription failed")
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", ErrEmptyTranscript
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("transcription received")
	return resp.Text, nil
}
