package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// File はワークスペースごとに1つのJSONファイルへ保存するStorage実装。
// 書き込みは一時ファイル経由のrenameで行う。
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile は指定パスのFileを生成する。ファイルは最初の書き込み時に作成される。
func NewFile(path string) *File {
	return &File{path: path}
}

// Get はキーの値を返す。
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set はキーに値を保存する。
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

// Remove は指定キーを削除する。空になったらファイル自体を削除する。
func (f *File) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("ストレージファイルの削除に失敗しました: %w", err)
		}
		return nil
	}
	return f.save(values)
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ストレージファイルの読み込みに失敗しました: %w", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		// 壊れた内容は復旧できないため破棄し、未保存として扱う
		slog.Warn("壊れたストレージファイルを破棄します",
			slog.String("path", f.path),
			slog.String("error", err.Error()),
		)
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("壊れたストレージファイルの削除に失敗しました: %w", err)
		}
		return make(map[string]string), nil
	}
	return values, nil
}

func (f *File) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("ストレージ内容のエンコードに失敗しました: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ストレージディレクトリの作成に失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".storage-*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルの権限設定に失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("ストレージファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}

// NewFileFactory はdir配下に <workspaceID>.json を作るFactoryを生成する。
// ワークスペースIDはUUIDでなければならない（パス操作の防止）。
// Fileは保持しないため、破棄されたワークスペースの分が残ることはない。
func NewFileFactory(dir string) Factory {
	return FactoryFunc(func(workspaceID string) (Storage, error) {
		if _, err := uuid.Parse(workspaceID); err != nil {
			return nil, fmt.Errorf("無効なワークスペースIDです: %q", workspaceID)
		}
		return NewFile(filepath.Join(dir, workspaceID+".json")), nil
	})
}
