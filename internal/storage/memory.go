package storage

import (
	"context"
	"sync"
)

// Memory はプロセス内マップによるStorage実装。
// プロセス再起動で内容は失われる。
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory は空のMemoryを生成する。
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get はキーの値を返す。
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set はキーに値を保存する。
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove は指定キーを削除する。
func (m *Memory) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// NewMemoryFactory はワークスペースごとにMemoryを払い出すFactoryを生成する。
// 同じワークスペースIDには同じMemoryを返す。
func NewMemoryFactory() Factory {
	var mu sync.Mutex
	spaces := make(map[string]*Memory)
	return FactoryFunc(func(workspaceID string) (Storage, error) {
		mu.Lock()
		defer mu.Unlock()
		m, ok := spaces[workspaceID]
		if !ok {
			m = NewMemory()
			spaces[workspaceID] = m
		}
		return m, nil
	})
}
