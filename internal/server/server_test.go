package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardsmith/internal/adapter"
	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/dto"
	"cardsmith/internal/extract"
	"cardsmith/internal/generator"
	"cardsmith/internal/service"

	"github.com/go-redis/redismock/v9"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lesson = "Go is a statically typed language. It was designed at Google in 2007. Short one. Goroutines are lightweight threads!"

func newTestApp(t *testing.T, cache domain.Cache, cfg *config.Config) *fiber.App {
	t.Helper()
	gen := generator.NewHeuristic(cfg.Generation.MaxCards, cfg.Generation.MinSentenceLength)
	svc := service.NewFlashcardService(gen, extract.NewRegistry(cfg.Server.AcceptedTypes), cache, cfg)
	return New(cfg, svc, cache)
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestGenerateEndpoint(t *testing.T) {
	app := newTestApp(t, nil, config.Default())

	status, raw := postJSON(t, app, "/api/generate", `{"text":"`+lesson+`"}`)
	require.Equal(t, fiber.StatusOK, status)

	var resp dto.FlashcardsResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Len(t, resp.Flashcards, 3)
	assert.Equal(t, "It was designed at Google in 2007.", resp.Flashcards[1].Answer)

	status, raw = postJSON(t, app, "/api/generate", `{"text":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Empty input","code":"EMPTY_INPUT"}`, string(raw))
}

func TestGenerateEndpoint_Cached(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	cfg := config.Default()
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute
	app := newTestApp(t, adapter.NewRedisCacheAdapter(db), cfg)

	cached := `[{"question":"From cache?","answer":"Yes."}]`
	redisMock.ExpectGet(service.DeckCacheKey("local", lesson)).SetVal(cached)

	status, raw := postJSON(t, app, "/api/generate", `{"text":"`+lesson+`"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"flashcards":`+cached+`}`, string(raw))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestUploadEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxUploadBytes = 512
	app := newTestApp(t, nil, cfg)

	upload := func(name, content string) (int, dto.ErrorResponse, dto.FlashcardsResponse) {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		part, err := w.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte(content))
		require.NoError(t, w.Close())

		req := httptest.NewRequest("POST", "/api/upload", body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		var errResp dto.ErrorResponse
		var okResp dto.FlashcardsResponse
		if resp.StatusCode == fiber.StatusOK {
			require.NoError(t, json.Unmarshal(raw, &okResp))
		} else {
			require.NoError(t, json.Unmarshal(raw, &errResp))
		}
		return resp.StatusCode, errResp, okResp
	}

	status, _, ok := upload("lesson.txt", lesson)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, ok.Flashcards, 3)

	status, errResp, _ := upload("image.png", "PNG")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "unsupported file type: .png", errResp.Error)

	status, _, _ = upload("big.txt", strings.Repeat("word ", 200))
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)

	status, errResp, _ = upload("broken.pdf", "not a pdf at all")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "Failed to extract text from file", errResp.Error)
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t, nil, config.Default())

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest("GET", "/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var errResp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "HTTP_ERROR", errResp.Code)
}
