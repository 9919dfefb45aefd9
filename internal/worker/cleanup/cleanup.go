// Package cleanup は通知の自動削除と、期限切れの嗜好マトリクスの検出を行う日次ジョブを提供する。
// 期限切れ（expires_at経過）の通知と、保持期間を過ぎた既読通知を削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newleaf/newleaf/internal/metrics"
	"github.com/newleaf/newleaf/internal/model"
)

// DefaultRetention は既読通知の保持期間のデフォルト値。
const DefaultRetention = 90 * 24 * time.Hour

// NotificationDeleter は期限切れ通知を削除する。
type NotificationDeleter interface {
	DeleteExpired(ctx context.Context, readRetention time.Duration) (int64, error)
}

// ExpiredMatrixLister は有効期限切れの嗜好マトリクスを返す。
type ExpiredMatrixLister interface {
	ListExpired(ctx context.Context, now time.Time) ([]*model.PreferenceMatrix, error)
}

// CleanupJob は通知の削除と期限切れマトリクスの報告を行うジョブ。
// 冪等であり、削除対象がない場合もエラーにならない。
type CleanupJob struct {
	notifications NotificationDeleter
	matrices      ExpiredMatrixLister
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
	now           func() time.Time
	Retention     time.Duration // 既読通知の保持期間（デフォルト: 90日）
}

// NewCleanupJob は新しいCleanupJobを生成する。matricesがnilの場合は報告を省略する。
func NewCleanupJob(notifications NotificationDeleter, matrices ExpiredMatrixLister, m metrics.MetricsCollector, logger *slog.Logger) *CleanupJob {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		notifications: notifications,
		matrices:      matrices,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
		Retention:     DefaultRetention,
	}
}

// Run は通知を削除し、期限切れのマトリクスをログに残す。
// マトリクスの確認に失敗しても通知の削除結果は維持する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()

	deletedCount, err := j.notifications.DeleteExpired(ctx, j.Retention)
	if err != nil {
		j.logger.Error("通知クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("retention", j.Retention),
		)
		return fmt.Errorf("通知クリーンアップの実行に失敗: %w", err)
	}
	j.metrics.RecordNotificationsDeleted(deletedCount)

	j.logger.Info("通知クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Duration("retention", j.Retention),
		slog.Float64("duration_ms", float64(j.now().Sub(start).Milliseconds())),
	)

	j.reportExpiredMatrices(ctx)
	return nil
}

// reportExpiredMatrices は期限切れのマトリクスをWarnで報告する。
// 期限切れのセグメントは推薦がフォールバックするため、再投入が必要になる。
func (j *CleanupJob) reportExpiredMatrices(ctx context.Context) {
	if j.matrices == nil {
		return
	}
	expired, err := j.matrices.ListExpired(ctx, j.now().UTC())
	if err != nil {
		j.logger.Error("期限切れマトリクスの取得に失敗しました", slog.String("error", err.Error()))
		return
	}
	for _, m := range expired {
		attrs := []any{slog.String("group_type", string(m.GroupType))}
		if m.ExpiresAt != nil {
			attrs = append(attrs, slog.Time("expires_at", *m.ExpiresAt))
		}
		j.logger.Warn("嗜好マトリクスの有効期限が切れています", attrs...)
	}
}

// Start は起動直後に1回実行し、以降intervalごとに実行する。ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップジョブが失敗しました", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップジョブが失敗しました", slog.String("error", err.Error()))
			}
		}
	}
}
