// Package cleanup はアクセスのないワークスペースを定期的に破棄するジョブを提供する。
// 破棄するのはメモリ上の状態だけで、永続ストレージのトークンとユーザーは残る。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Evictor はアイドル状態のワークスペースを破棄するインターフェース。
// *workspace.Registry が実装する。
type Evictor interface {
	EvictIdle(ctx context.Context, idleTTL time.Duration) (int, error)
	Len() int
}

// CleanupJob はアイドルワークスペースの破棄ジョブ。
type CleanupJob struct {
	registry Evictor
	logger   *slog.Logger
	IdleTTL  time.Duration // 最終アクセスからの保持期間（デフォルト: 30分）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(registry Evictor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		registry: registry,
		logger:   logger,
		IdleTTL:  30 * time.Minute,
	}
}

// Run はIdleTTLを超えてアクセスのないワークスペースを破棄する。
// 対象がなくてもエラーにはならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	evicted, err := j.registry.EvictIdle(ctx, j.IdleTTL)
	if err != nil {
		j.logger.Error("ワークスペースクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("idle_ttl", j.IdleTTL),
		)
		return fmt.Errorf("ワークスペースクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("ワークスペースクリーンアップが完了しました",
		slog.Int("deleted_count", evicted),
		slog.Int("remaining", j.registry.Len()),
		slog.Duration("idle_ttl", j.IdleTTL),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return nil
}

// Start はinterval間隔でRunを実行する。起動直後にも1回実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("ワークスペースクリーンアップを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("idle_ttl", j.IdleTTL),
	)

	// 失敗はRun内でログ出力済み
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("ワークスペースクリーンアップを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
