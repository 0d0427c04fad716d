package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cardsmith/internal/adapter"
	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/extract"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleText = "Photosynthesis converts light into chemical energy. Mitochondria produce ATP for the cell."

var sampleCards = []domain.Flashcard{
	{Question: "What does photosynthesis convert?", Answer: "Light into chemical energy."},
}

func testConfig(cacheEnabled bool) *config.Config {
	cfg := config.Default()
	cfg.Cache.Enabled = cacheEnabled
	cfg.Cache.TTL = time.Hour
	cfg.Server.MaxUploadBytes = 64
	cfg.Generation.MaxInputChars = 200
	return cfg
}

func newTestService(gen domain.CardGenerator, cache domain.Cache, cfg *config.Config) FlashcardService {
	return NewFlashcardService(gen, extract.NewRegistry(cfg.Server.AcceptedTypes), cache, cfg)
}

func TestDeckCacheKey(t *testing.T) {
	key := DeckCacheKey("local", "hello")
	assert.Equal(t, "cardsmith:flashcards:deck:local:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", key)
}

func TestGenerateFromText_EmptyInput(t *testing.T) {
	gen := new(MockCardGenerator)
	svc := newTestService(gen, nil, testConfig(false))

	_, err := svc.GenerateFromText(context.Background(), "   \t\n")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeEmptyInput, domainErr.Code)
	assert.Equal(t, "Empty input", domainErr.Message)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerateFromText_TooLong(t *testing.T) {
	gen := new(MockCardGenerator)
	svc := newTestService(gen, nil, testConfig(false))

	_, err := svc.GenerateFromText(context.Background(), strings.Repeat("x", 201))

	var validationErrs domain.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerateFromText_NoCache(t *testing.T) {
	gen := new(MockCardGenerator)
	gen.On("Generate", mock.Anything, sampleText).Return(sampleCards, nil).Once()
	svc := newTestService(gen, nil, testConfig(false))

	cards, err := svc.GenerateFromText(context.Background(), sampleText)
	require.NoError(t, err)
	assert.Equal(t, sampleCards, cards)
	gen.AssertExpectations(t)
}

func TestGenerateFromText_CacheHit(t *testing.T) {
	gen := new(MockCardGenerator)
	cache := new(MockCache)
	payload, _ := json.Marshal(sampleCards)
	cache.On("Get", mock.Anything, DeckCacheKey("mock", sampleText)).Return(string(payload), nil)

	svc := newTestService(gen, cache, testConfig(true))
	cards, err := svc.GenerateFromText(context.Background(), sampleText)

	require.NoError(t, err)
	assert.Equal(t, sampleCards, cards)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestGenerateFromText_CacheMissStores(t *testing.T) {
	gen := new(MockCardGenerator)
	gen.On("Generate", mock.Anything, sampleText).Return(sampleCards, nil).Once()

	cache := new(MockCache)
	key := DeckCacheKey("mock", sampleText)
	payload, _ := json.Marshal(sampleCards)
	cache.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss)
	cache.On("Set", mock.Anything, key, string(payload), time.Hour).Return(nil)

	svc := newTestService(gen, cache, testConfig(true))
	cards, err := svc.GenerateFromText(context.Background(), sampleText)

	require.NoError(t, err)
	assert.Equal(t, sampleCards, cards)
	gen.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGenerateFromText_CacheErrorsIgnored(t *testing.T) {
	gen := new(MockCardGenerator)
	gen.On("Generate", mock.Anything, sampleText).Return(sampleCards, nil).Once()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := newTestService(gen, cache, testConfig(true))
	cards, err := svc.GenerateFromText(context.Background(), sampleText)

	require.NoError(t, err)
	assert.Equal(t, sampleCards, cards)
}

func TestGenerateFromText_MalformedCacheEntry(t *testing.T) {
	gen := new(MockCardGenerator)
	gen.On("Generate", mock.Anything, sampleText).Return(sampleCards, nil).Once()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, mock.Anything).Return("{not json", nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(gen, cache, testConfig(true))
	cards, err := svc.GenerateFromText(context.Background(), sampleText)

	require.NoError(t, err)
	assert.Equal(t, sampleCards, cards)
	gen.AssertExpectations(t)
}

func TestGenerateFromText_EmptyDeckNotCached(t *testing.T) {
	gen := new(MockCardGenerator)
	gen.On("Generate", mock.Anything, sampleText).Return([]domain.Flashcard{}, nil).Once()

	cache := new(MockCache)
	cache.On("Get", mock.Anything, mock.Anything).Return("", domain.ErrCacheMiss)

	svc := newTestService(gen, cache, testConfig(true))
	cards, err := svc.GenerateFromText(context.Background(), sampleText)

	require.NoError(t, err)
	assert.Empty(t, cards)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateFromText_GeneratorErrors(t *testing.T) {
	t.Run("plain error becomes internal", func(t *testing.T) {
		gen := new(MockCardGenerator)
		gen.On("Generate", mock.Anything, sampleText).Return(nil, errors.New("boom"))
		svc := newTestService(gen, nil, testConfig(false))

		_, err := svc.GenerateFromText(context.Background(), sampleText)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInternal, domainErr.Code)
	})

	t.Run("domain error passes through", func(t *testing.T) {
		gen := new(MockCardGenerator)
		gen.On("Generate", mock.Anything, sampleText).Return(nil, domain.NewLLMServiceError(errors.New("ollama down")))
		svc := newTestService(gen, nil, testConfig(false))

		_, err := svc.GenerateFromText(context.Background(), sampleText)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeLLMServiceError, domainErr.Code)
	})

	t.Run("cancellation is not wrapped", func(t *testing.T) {
		gen := new(MockCardGenerator)
		gen.On("Generate", mock.Anything, sampleText).Return(nil, context.Canceled)
		svc := newTestService(gen, nil, testConfig(false))

		_, err := svc.GenerateFromText(context.Background(), sampleText)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGenerateFromText_ConcurrentCallsShareResult(t *testing.T) {
	release := make(chan time.Time)
	gen := new(MockCardGenerator)
	gen.On("Generate", mock.Anything, sampleText).
		WaitUntil(release).
		Return(sampleCards, nil)
	svc := newTestService(gen, nil, testConfig(false))

	var wg sync.WaitGroup
	results := make([][]domain.Flashcard, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cards, err := svc.GenerateFromText(context.Background(), sampleText)
			assert.NoError(t, err)
			results[i] = cards
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, cards := range results {
		assert.Equal(t, sampleCards, cards)
	}
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerateFromText_WithRedis(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	redisCache := adapter.NewRedisCacheAdapter(db)

	gen := new(MockCardGenerator)
	gen.On("Generate", mock.Anything, sampleText).Return(sampleCards, nil).Once()

	key := DeckCacheKey("mock", sampleText)
	payload, _ := json.Marshal(sampleCards)
	redisMock.ExpectGet(key).RedisNil()
	redisMock.ExpectSet(key, string(payload), time.Hour).SetVal("OK")
	redisMock.ExpectGet(key).SetVal(string(payload))

	svc := newTestService(gen, redisCache, testConfig(true))

	first, err := svc.GenerateFromText(context.Background(), sampleText)
	require.NoError(t, err)
	second, err := svc.GenerateFromText(context.Background(), sampleText)
	require.NoError(t, err)

	assert.Equal(t, sampleCards, first)
	assert.Equal(t, sampleCards, second)
	gen.AssertNumberOfCalls(t, "Generate", 1)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestGenerateFromFile(t *testing.T) {
	t.Run("text file is extracted and generated", func(t *testing.T) {
		gen := new(MockCardGenerator)
		gen.On("Generate", mock.Anything, "Cells divide by mitosis.").Return(sampleCards, nil)
		svc := newTestService(gen, nil, testConfig(false))

		body := "\xEF\xBB\xBFCells divide by mitosis."
		cards, err := svc.GenerateFromFile(context.Background(), "notes.txt", strings.NewReader(body), int64(len(body)))
		require.NoError(t, err)
		assert.Equal(t, sampleCards, cards)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		svc := newTestService(new(MockCardGenerator), nil, testConfig(false))
		_, err := svc.GenerateFromFile(context.Background(), "slides.pptx", strings.NewReader("x"), 1)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeUnsupportedFile, domainErr.Code)
	})

	t.Run("declared size too large", func(t *testing.T) {
		svc := newTestService(new(MockCardGenerator), nil, testConfig(false))
		_, err := svc.GenerateFromFile(context.Background(), "notes.txt", strings.NewReader("x"), 65)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeFileTooLarge, domainErr.Code)
	})

	t.Run("actual size too large", func(t *testing.T) {
		svc := newTestService(new(MockCardGenerator), nil, testConfig(false))
		body := strings.Repeat("a", 100)
		_, err := svc.GenerateFromFile(context.Background(), "notes.txt", strings.NewReader(body), 10)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeFileTooLarge, domainErr.Code)
	})

	t.Run("blank file", func(t *testing.T) {
		gen := new(MockCardGenerator)
		svc := newTestService(gen, nil, testConfig(false))
		_, err := svc.GenerateFromFile(context.Background(), "notes.txt", strings.NewReader("  \n"), 3)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		svc := newTestService(new(MockCardGenerator), nil, testConfig(false))
		body := "%PDF-1.4 garbage"
		_, err := svc.GenerateFromFile(context.Background(), "broken.pdf", strings.NewReader(body), int64(len(body)))

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeExtractionFailed, domainErr.Code)
	})
}
