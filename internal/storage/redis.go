package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis はRedisのキー <prefix>:<workspaceID>:<key> に保存するStorage実装。
// 複数のフロントエンドプロセスで状態を共有する場合に使う。
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis はRedisを生成する。
func NewRedis(client *redis.Client, prefix, workspaceID string) *Redis {
	return &Redis{
		client:    client,
		namespace: prefix + ":" + workspaceID + ":",
	}
}

// Get はキーの値を返す。存在しない場合はok=falseを返す。
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.namespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Redisからの読み込みに失敗しました: %w", err)
	}
	return v, true, nil
}

// Set はキーに値を保存する。期限は設けない。
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("Redisへの書き込みに失敗しました: %w", err)
	}
	return nil
}

// Remove は指定キーを削除する。
func (r *Redis) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.namespace + k
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("Redisからの削除に失敗しました: %w", err)
	}
	return nil
}

// NewRedisFactory はRedisクライアントを共有するFactoryを生成する。
func NewRedisFactory(client *redis.Client, prefix string) Factory {
	return FactoryFunc(func(workspaceID string) (Storage, error) {
		if workspaceID == "" {
			return nil, errors.New("ワークスペースIDが空です")
		}
		return NewRedis(client, prefix, workspaceID), nil
	})
}

// OpenRedisClient はREDIS_URL形式のURLからクライアントを生成する。
func OpenRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URLのパースに失敗しました: %w", err)
	}
	return redis.NewClient(opts), nil
}
