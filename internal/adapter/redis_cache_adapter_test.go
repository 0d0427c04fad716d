package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardsmith/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

const (
	deckKey  = "cardsmith:flashcards:deck:local:abc"
	deckJSON = `[{"question":"Q","answer":"A"}]`
)

var errRedis = errors.New("connection reset by peer")

func TestRedisCacheAdapter_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheAdapter(db)
	ctx := context.Background()

	t.Run("Hit", func(t *testing.T) {
		mock.ExpectGet(deckKey).SetVal(deckJSON)
		val, err := cache.Get(ctx, deckKey)
		assert.NoError(t, err)
		assert.Equal(t, deckJSON, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Miss", func(t *testing.T) {
		mock.ExpectGet(deckKey).RedisNil()
		val, err := cache.Get(ctx, deckKey)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		mock.ExpectGet(deckKey).SetErr(errRedis)
		_, err := cache.Get(ctx, deckKey)
		assert.ErrorIs(t, err, errRedis)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheAdapter(db)
	ctx := context.Background()

	mock.ExpectSet(deckKey, deckJSON, time.Hour).SetVal("OK")
	assert.NoError(t, cache.Set(ctx, deckKey, deckJSON, time.Hour))

	mock.ExpectSet(deckKey, deckJSON, time.Hour).SetErr(errRedis)
	assert.ErrorIs(t, cache.Set(ctx, deckKey, deckJSON, time.Hour), errRedis)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheAdapter_DeleteAndPing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCacheAdapter(db)
	ctx := context.Background()

	mock.ExpectDel(deckKey).SetVal(0)
	assert.NoError(t, cache.Delete(ctx, deckKey), "deleting a missing key is not an error")

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, cache.Ping(ctx))

	mock.ExpectPing().SetErr(errRedis)
	assert.ErrorIs(t, cache.Ping(ctx), errRedis)

	assert.NoError(t, mock.ExpectationsWereMet())
}
