package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lumina/internal/domain/model"
	repo "lumina/internal/repository"

	"github.com/redis/go-redis/v9"
)

// 競合で書けなかったときの再試行回数の上限
const maxUpdateRetries = 50

var ErrUpdateConflict = errors.New("cart update conflict")

// RedisStoreはカートセッションをRedisにJSONで丸ごと保存する。
// 保存のたびにTTLを延長する。
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (model.Cart, error) {
	return decodeCart(s.client.Get(ctx, cartKey(sessionID)).Bytes())
}

func decodeCart(data []byte, err error) (model.Cart, error) {
	if errors.Is(err, redis.Nil) {
		return model.Cart{}, nil
	}
	if err != nil {
		return model.Cart{}, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.Cart{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, cart model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// UpdateはWATCHで楽観ロックを取り、fnの結果をMULTI/EXECで書く。
// 途中で他の更新が入ったら読み直してやり直す。
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn func(cart *model.Cart) error) (model.Cart, error) {
	key := cartKey(sessionID)

	var out model.Cart
	txf := func(tx *redis.Tx) error {
		cart, err := decodeCart(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}

		if err := fn(&cart); err != nil {
			if errors.Is(err, repo.ErrCartUnchanged) {
				out = cart
				return nil
			}
			return err
		}

		data, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart failed: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = cart
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return model.Cart{}, err
		}
		return out, nil
	}
	return model.Cart{}, ErrUpdateConflict
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
