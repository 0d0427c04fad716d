package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const promptTemplate = `Read the following educational content and generate %d Q&A flashcards.
Respond with ONLY a JSON array in the following format:
[
    {
        "question": "What is X?",
        "answer": "X is ..."
    }
]

Content:
%s`

var jsonArrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

// Caller is the part of a langchaingo model the generator needs.
type Caller interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// LLM asks a language model for flashcards and parses the JSON array out
// of its reply.
type LLM struct {
	model       Caller
	name        string
	maxCards    int
	temperature float64
	timeout     time.Duration
}

// NewLLM wraps an existing model. It is mostly useful for tests; production
// code goes through NewOllama or NewOpenAI.
func NewLLM(model Caller, name string, llmCfg config.LLMConfig, maxCards int) (*LLM, error) {
	if model == nil {
		return nil, fmt.Errorf("llm model cannot be nil")
	}
	if maxCards <= 0 {
		maxCards = DefaultMaxCards
	}
	return &LLM{
		model:       model,
		name:        name,
		maxCards:    maxCards,
		temperature: llmCfg.Temperature,
		timeout:     llmCfg.Timeout,
	}, nil
}

// NewOllama connects to an Ollama server.
func NewOllama(llmCfg config.LLMConfig, maxCards int) (*LLM, error) {
	if llmCfg.ServerURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if llmCfg.Model == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: llmCfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}
	model, err := ollama.New(
		ollama.WithServerURL(llmCfg.ServerURL),
		ollama.WithModel(llmCfg.Model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewLLM(model, config.StrategyOllama, llmCfg, maxCards)
}

// NewOpenAI uses the OpenAI chat API.
func NewOpenAI(llmCfg config.LLMConfig, maxCards int) (*LLM, error) {
	if llmCfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	model, err := openai.New(
		openai.WithToken(llmCfg.OpenAIAPIKey),
		openai.WithModel(llmCfg.OpenAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewLLM(model, config.StrategyOpenAI, llmCfg, maxCards)
}

func (g *LLM) Name() string {
	return g.name
}

// Generate returns an empty list when the reply holds no usable array;
// only transport failures are reported as errors.
func (g *LLM) Generate(ctx context.Context, text string) ([]domain.Flashcard, error) {
	l := logger.Get()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(promptTemplate, g.maxCards, text)
	raw, err := g.model.Call(ctx, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			l.Error("LLM request timed out", zap.String("model", g.name), zap.Error(err))
		} else {
			l.Error("Failed to get response from LLM", zap.String("model", g.name), zap.Error(err))
		}
		return nil, domain.NewLLMServiceError(err)
	}
	l.Debug("Raw LLM response received", zap.String("raw_response", raw))

	cards, err := ParseCards(raw)
	if err != nil {
		l.Warn("Could not parse flashcards from LLM response", zap.Error(err))
		return []domain.Flashcard{}, nil
	}
	if len(cards) > g.maxCards {
		cards = cards[:g.maxCards]
	}
	l.Info("Parsed LLM flashcards", zap.String("model", g.name), zap.Int("count", len(cards)))
	return cards, nil
}

// ParseCards extracts the first JSON array of objects from a model reply,
// ignoring <think> blocks and markdown fences, and drops incomplete cards.
func ParseCards(raw string) ([]domain.Flashcard, error) {
	cleaned := strings.TrimSpace(raw)
	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd > thinkStart {
			cleaned = cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):]
		}
	}
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	match := jsonArrayPattern.FindString(cleaned)
	if match == "" {
		return nil, fmt.Errorf("no JSON array found in LLM response")
	}

	var parsed []domain.Flashcard
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM flashcards: %w", err)
	}

	cards := make([]domain.Flashcard, 0, len(parsed))
	for _, card := range parsed {
		if !card.Valid() {
			continue
		}
		cards = append(cards, domain.Flashcard{
			Question: strings.TrimSpace(card.Question),
			Answer:   strings.TrimSpace(card.Answer),
		})
	}
	return cards, nil
}

var _ domain.CardGenerator = (*LLM)(nil)
