package cartstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lumina/internal/domain/model"
	repo "lumina/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_LoadMissingIsEmpty(t *testing.T) {
	store, _ := setupTestRedis(t)

	cart, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestRedisStore_SaveThenLoad(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	var cart model.Cart
	cart.Add(model.CartLine{
		ProductID:        1,
		Name:             "Phone",
		UnitPrice:        10000,
		SelectedVariants: map[string]string{"Color": "Black"},
		Image:            "https://cdn.example.com/p1.png",
	}, 2)

	require.NoError(t, store.Save(ctx, "s1", cart))
	assert.True(t, mr.Exists("cart:s1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:s1"))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, cart.Lines[0], got.Lines[0])
	assert.Equal(t, int64(20000), got.Total())
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	var cart model.Cart
	cart.Add(model.CartLine{ProductID: 1, UnitPrice: 1}, 1)
	require.NoError(t, store.Save(ctx, "s1", cart))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("cart:s1"))

	// 無いキーの削除もエラーにしない
	require.NoError(t, store.Delete(ctx, "s1"))
}

func TestRedisStore_ExpiredSessionIsEmpty(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	var cart model.Cart
	cart.Add(model.CartLine{ProductID: 1, UnitPrice: 1}, 1)
	require.NoError(t, store.Save(ctx, "s1", cart))

	mr.FastForward(2 * time.Hour)

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:s1", "{not json"))

	_, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
}

func TestRedisStore_UpdateConcurrentAddsAreNotLost(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	const workers = 30
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "s1", func(cart *model.Cart) error {
				cart.Add(model.CartLine{ProductID: 1, UnitPrice: 100}, 1)
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(workers), got.Lines[0].Quantity)
	assert.Equal(t, int64(workers*100), got.Total())
}

func TestRedisStore_UpdateWritesWithTTL(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	out, err := store.Update(ctx, "s1", func(cart *model.Cart) error {
		cart.Add(model.CartLine{ProductID: 1, UnitPrice: 100}, 2)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), out.Total())
	assert.Equal(t, time.Hour, mr.TTL("cart:s1"))
}

func TestRedisStore_UpdateUnchangedSkipsWrite(t *testing.T) {
	store, mr := setupTestRedis(t)

	out, err := store.Update(context.Background(), "s1", func(cart *model.Cart) error {
		return repo.ErrCartUnchanged
	})
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
	assert.False(t, mr.Exists("cart:s1"))
}

func TestRedisStore_UpdateErrorSkipsWrite(t *testing.T) {
	store, mr := setupTestRedis(t)
	boom := errors.New("boom")

	_, err := store.Update(context.Background(), "s1", func(cart *model.Cart) error {
		cart.Add(model.CartLine{ProductID: 1, UnitPrice: 1}, 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("cart:s1"))
}
