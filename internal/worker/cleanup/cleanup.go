// Package cleanup はゴミ箱内ノートの自動削除ジョブを提供する。
// 保持期間を超過したゴミ箱内のノートのみを物理削除する。
// アクティブ・アーカイブ済みのノートは対象にしない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/notely/internal/repository"
)

// CleanupJob は保持期間を超過したゴミ箱内ノートの削除ジョブ。
// 冪等であり、繰り返し実行しても削除対象がなければ何もしない。
type CleanupJob struct {
	purger        repository.TrashPurger
	logger        *slog.Logger
	RetentionDays int // ゴミ箱の保持日数。0の場合は無効
	now           func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(purger repository.TrashPurger, logger *slog.Logger, retentionDays int) *CleanupJob {
	return &CleanupJob{
		purger:        purger,
		logger:        logger,
		RetentionDays: retentionDays,
		now:           time.Now,
	}
}

// Cutoff は削除対象となる最終更新日時の境界を返す。
func (j *CleanupJob) Cutoff() time.Time {
	return j.now().AddDate(0, 0, -j.RetentionDays)
}

// Run はゴミ箱内でRetentionDays日より前に更新されたノートを削除する。
// RetentionDaysが0以下の場合は削除を行わない。
func (j *CleanupJob) Run(ctx context.Context) error {
	if j.RetentionDays <= 0 {
		j.logger.Info("ゴミ箱の自動削除は無効です",
			slog.Int("retention_days", j.RetentionDays),
		)
		return nil
	}

	start := time.Now()
	cutoff := j.Cutoff()

	deletedCount, err := j.purger.DeleteTrashedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("ゴミ箱クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("ゴミ箱クリーンアップの実行に失敗: %w", err)
	}

	j.logger.Info("ゴミ箱クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
