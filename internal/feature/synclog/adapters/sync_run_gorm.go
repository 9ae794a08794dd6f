// Package adapters はジョブログのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stock_sync/internal/feature/synclog/domain/entity"
	"stock_sync/internal/feature/synclog/usecase"
)

// syncRunGorm は SyncRunRepository のgorm実装です。
type syncRunGorm struct {
	db *gorm.DB
}

var _ usecase.SyncRunRepository = (*syncRunGorm)(nil)

// NewSyncRunRepository は指定されたDB接続でリポジトリを生成します。
func NewSyncRunRepository(db *gorm.DB) *syncRunGorm {
	return &syncRunGorm{db: db}
}

// Start は running 状態の行を作成してIDを返します。
func (r *syncRunGorm) Start(ctx context.Context, job string, at time.Time) (uint, error) {
	run := entity.SyncRun{JobName: job, Status: entity.StatusRunning, StartedAt: at}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return 0, err
	}
	return run.ID, nil
}

// Complete は running の行を completed にします。
func (r *syncRunGorm) Complete(ctx context.Context, id uint, records int, at time.Time) error {
	return r.finish(ctx, id, map[string]any{
		"status":            entity.StatusCompleted,
		"completed_at":      at,
		"records_processed": records,
	})
}

// Fail は running の行を failed にします。
func (r *syncRunGorm) Fail(ctx context.Context, id uint, message string, at time.Time) error {
	return r.finish(ctx, id, map[string]any{
		"status":        entity.StatusFailed,
		"completed_at":  at,
		"error_message": message,
	})
}

// finish は終端更新を一度だけ適用します。既に終端状態の行は更新しません。
func (r *syncRunGorm) finish(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&entity.SyncRun{}).
		Where("id = ? AND status = ?", id, entity.StatusRunning).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sync run %d is not running", id)
	}
	return nil
}

// ExpireStale は startedBefore より前に開始して running のままの行を failed にします。
func (r *syncRunGorm) ExpireStale(ctx context.Context, job string, startedBefore time.Time, message string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.SyncRun{}).
		Where("job_name = ? AND status = ? AND started_at < ?", job, entity.StatusRunning, startedBefore).
		Updates(map[string]any{
			"status":        entity.StatusFailed,
			"completed_at":  at,
			"error_message": message,
		})
	return res.RowsAffected, res.Error
}

// Latest は job の直近の実行を新しい順に返します。
func (r *syncRunGorm) Latest(ctx context.Context, job string, limit int) ([]entity.SyncRun, error) {
	var runs []entity.SyncRun
	q := r.db.WithContext(ctx).Where("job_name = ?", job).Order("started_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
