// Package client talks to the flashcard backend over HTTP. It is the
// remote variant of both the content extractor and the card generator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/logger"

	"go.uber.org/zap"
)

const (
	generatePath = "/api/generate"
	uploadPath   = "/api/upload"

	maxResponseBytes = 10 << 20

	fallbackGenerateMessage = "Failed to generate flashcards"
	fallbackUploadMessage   = "Failed to process file"
)

// ErrInvalidResponse is returned when a successful response does not carry
// a flashcards array.
var ErrInvalidResponse = errors.New("Invalid response format")

// APIError is a non-2xx answer from the backend. Its message is the body's
// error field, shown to the user verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL       string
	httpClient    *http.Client
	acceptedTypes []string
}

// New builds a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg config.ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    httpClient,
		acceptedTypes: cfg.AcceptedTypes,
	}
}

func (c *Client) Name() string {
	return config.StrategyRemote
}

type generateRequest struct {
	Text string `json:"text"`
}

type flashcardsEnvelope struct {
	Flashcards json.RawMessage `json:"flashcards"`
	Error      string          `json:"error"`
}

// Generate posts the text to /api/generate.
func (c *Client) Generate(ctx context.Context, text string) ([]domain.Flashcard, error) {
	body, err := json.Marshal(generateRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, fallbackGenerateMessage)
}

// Upload posts the file as the multipart field "file" to /api/upload.
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader) (*domain.UploadResult, error) {
	if !c.accepts(fileName) {
		return nil, domain.NewUnsupportedFileError(strings.ToLower(filepath.Ext(fileName)))
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	cards, err := c.do(req, fallbackUploadMessage)
	if err != nil {
		return nil, err
	}
	return &domain.UploadResult{Cards: cards}, nil
}

func (c *Client) do(req *http.Request, fallback string) ([]domain.Flashcard, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope flashcardsEnvelope
	decodeErr := json.Unmarshal(data, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := envelope.Error
		if decodeErr != nil || msg == "" {
			msg = fallback
		}
		logger.Get().Warn("Backend returned an error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", msg))
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return nil, ErrInvalidResponse
	}
	raw := bytes.TrimSpace(envelope.Flashcards)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrInvalidResponse
	}
	var cards []domain.Flashcard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, ErrInvalidResponse
	}
	if cards == nil {
		cards = []domain.Flashcard{}
	}
	return cards, nil
}

func (c *Client) accepts(fileName string) bool {
	if len(c.acceptedTypes) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, accepted := range c.acceptedTypes {
		if ext == accepted {
			return true
		}
	}
	return false
}

var (
	_ domain.CardGenerator = (*Client)(nil)
	_ domain.Uploader      = (*Client)(nil)
)
