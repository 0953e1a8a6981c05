// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// Redisストアのセッションは TTL で自動的に失効するため、対象はPostgreSQLストアのみ。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter は期限切れセッションを一括削除するインターフェース。
// repository.PostgresSessionRepoが実装する。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanedRecorder は削除件数を記録するメトリクスのインターフェース。
type CleanedRecorder interface {
	RecordSessionsCleaned(count int64)
}

// DefaultInterval はジョブの実行間隔のデフォルト値。
const DefaultInterval = time.Hour

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等で、削除対象がない場合もエラーにならない。
type CleanupJob struct {
	store   ExpiredSessionDeleter
	logger  *slog.Logger
	metrics CleanedRecorder
}

// NewCleanupJob は新しいCleanupJobを生成する。metricsはnilでもよい。
func NewCleanupJob(store ExpiredSessionDeleter, logger *slog.Logger, metrics CleanedRecorder) *CleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{store: store, logger: logger, metrics: metrics}
}

// Run は期限切れセッションを1回削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.store.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsCleaned(deleted)
	}
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// initialRetryDelay は失敗直後の再実行までの遅延。連続失敗ごとに2倍にし、intervalを上限とする。
const initialRetryDelay = 30 * time.Second

// NextDelay は次回実行までの待ち時間を返す。
// 成功時（consecutiveErrors=0）はinterval、失敗時は指数バックオフでinterval以下。
func NextDelay(consecutiveErrors int, interval time.Duration) time.Duration {
	if consecutiveErrors <= 0 {
		return interval
	}
	delay := initialRetryDelay
	for i := 1; i < consecutiveErrors; i++ {
		delay *= 2
		if delay >= interval {
			return interval
		}
	}
	if delay > interval {
		return interval
	}
	return delay
}

// Start はintervalごとにRunを実行する。起動直後にも1回実行する。
// 失敗した場合はバックオフして早めに再実行する。個々の失敗では停止しない。
// コンテキストがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	j.logger.Info("セッションクリーンアップを開始しました", slog.Duration("interval", interval))

	consecutiveErrors := 0
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップを停止しました")
			return
		case <-timer.C:
			if err := j.Run(ctx); err != nil {
				consecutiveErrors++
			} else {
				consecutiveErrors = 0
			}
			timer.Reset(NextDelay(consecutiveErrors, interval))
		}
	}
}
