// Package storage はワークスペースごとのクライアント状態（トークンとユーザー）を永続化する。
// ブラウザのlocalStorageに相当する単純なキー・値ストアで、ドライバとしてメモリ・ファイル・Redisを持つ。
package storage

import (
	"context"
	"fmt"
)

// 永続化されるキー
const (
	// KeyToken は認証トークンのキー。
	KeyToken = "token"
	// KeyUser はJSONエンコードされた現在ユーザーのキー。
	KeyUser = "user"
)

// Storage はワークスペース1つ分の永続ストアのインターフェース。
// 存在しないキーのRemoveは成功として扱う（クリアは冪等）。
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// Factory はワークスペースIDに対応するStorageを開く。
type Factory interface {
	Open(workspaceID string) (Storage, error)
}

// FactoryFunc は関数をFactoryとして扱うアダプタ。
type FactoryFunc func(workspaceID string) (Storage, error)

// Open はFactoryインターフェースを実装する。
func (f FactoryFunc) Open(workspaceID string) (Storage, error) {
	return f(workspaceID)
}

// ドライバ名
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// ValidateDriver はドライバ名が既知のものかを検証する。
func ValidateDriver(driver string) error {
	switch driver {
	case DriverMemory, DriverFile, DriverRedis:
		return nil
	default:
		return fmt.Errorf("未知のストレージドライバです: %s", driver)
	}
}
