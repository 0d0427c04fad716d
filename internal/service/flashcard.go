package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"cardsmith/internal/cache"
	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/extract"
	"cardsmith/internal/logger"
	"cardsmith/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	CacheServiceName = "flashcards"
	CacheObjectDeck  = "deck"
)

// FlashcardService turns submitted text or uploaded files into flashcards.
type FlashcardService interface {
	GenerateFromText(ctx context.Context, text string) ([]domain.Flashcard, error)
	// size is the declared length, 0 when unknown.
	GenerateFromFile(ctx context.Context, fileName string, r io.Reader, size int64) ([]domain.Flashcard, error)
}

type flashcardService struct {
	generator domain.CardGenerator
	registry  *extract.Registry
	validator *validation.Validator
	cache     domain.Cache
	cfg       *config.Config
	sfGroup   singleflight.Group
}

// NewFlashcardService wires the generation pipeline. cache may be nil.
func NewFlashcardService(generator domain.CardGenerator, registry *extract.Registry, cache domain.Cache, cfg *config.Config) FlashcardService {
	return &flashcardService{
		generator: generator,
		registry:  registry,
		validator: validation.NewValidator(cfg.Generation.MaxInputChars, int64(cfg.Server.MaxUploadBytes), cfg.Server.AcceptedTypes),
		cache:     cache,
		cfg:       cfg,
	}
}

func (s *flashcardService) GenerateFromText(ctx context.Context, text string) ([]domain.Flashcard, error) {
	if err := s.validator.ValidateText(text); err != nil {
		return nil, err
	}

	cacheKey := DeckCacheKey(s.generator.Name(), text)
	if cards, ok := s.fromCache(ctx, cacheKey); ok {
		logger.Get().Debug("Flashcard deck served from cache", zap.String("key", cacheKey))
		return cards, nil
	}

	res, err, shared := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		cards, genErr := s.generator.Generate(ctx, text)
		if genErr != nil {
			return nil, genErr
		}
		s.toCache(ctx, cacheKey, cards)
		return cards, nil
	})
	if err != nil {
		return nil, wrapGenerationError(err)
	}

	cards, ok := res.([]domain.Flashcard)
	if !ok {
		return nil, domain.NewInternalError("Failed to generate flashcards", fmt.Errorf("unexpected type from singleflight.Do: %T", res))
	}
	logger.Get().Info("Flashcards generated",
		zap.String("strategy", s.generator.Name()),
		zap.Int("input_chars", len(text)),
		zap.Int("cards", len(cards)),
		zap.Bool("shared", shared))

	// Callers of a shared result must not alias each other's slice.
	out := make([]domain.Flashcard, len(cards))
	copy(out, cards)
	return out, nil
}

func (s *flashcardService) GenerateFromFile(ctx context.Context, fileName string, r io.Reader, size int64) ([]domain.Flashcard, error) {
	if err := s.validator.ValidateUpload(fileName, size); err != nil {
		return nil, err
	}

	limit := int64(s.cfg.Server.MaxUploadBytes)
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, domain.NewInternalError("Failed to process file", fmt.Errorf("reading %s: %w", fileName, err))
	}
	if int64(len(data)) > limit {
		return nil, domain.NewFileTooLargeError(int64(len(data)), limit)
	}

	text, err := s.registry.Extract(ctx, fileName, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewInvalidInputError("No text could be extracted from the file")
	}

	logger.Get().Info("Text extracted from upload",
		zap.String("file", fileName),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(text)))
	return s.GenerateFromText(ctx, text)
}

// DeckCacheKey is the Redis key of the deck generated by strategy for text.
func DeckCacheKey(strategy, text string) string {
	return cache.GenerateCacheKey(CacheServiceName, CacheObjectDeck, strategy, cache.HashText(text))
}

func (s *flashcardService) fromCache(ctx context.Context, key string) ([]domain.Flashcard, bool) {
	if s.cache == nil || !s.cfg.Cache.Enabled {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Cache read failed, generating anyway", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var cards []domain.Flashcard
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		logger.Get().Warn("Discarding malformed cached deck", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return cards, true
}

func (s *flashcardService) toCache(ctx context.Context, key string, cards []domain.Flashcard) {
	if s.cache == nil || !s.cfg.Cache.Enabled || len(cards) == 0 {
		return
	}
	payload, err := json.Marshal(cards)
	if err != nil {
		logger.Get().Warn("Failed to encode deck for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.cfg.Cache.TTL); err != nil {
		logger.Get().Warn("Failed to cache deck", zap.String("key", key), zap.Error(err))
	}
}

func wrapGenerationError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewInternalError("Failed to generate flashcards", err)
}
