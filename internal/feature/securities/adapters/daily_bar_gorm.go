package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	eodusecase "stock_sync/internal/feature/eod/usecase"
	"stock_sync/internal/feature/securities/domain/entity"
)

type dailyBarGorm struct {
	db *gorm.DB
}

var _ eodusecase.DailyBarRepository = (*dailyBarGorm)(nil)

func NewDailyBarRepository(db *gorm.DB) *dailyBarGorm {
	return &dailyBarGorm{db: db}
}

// Upsert は (instrument_id, date) が既に存在すれば値を上書きします。
func (r *dailyBarGorm) Upsert(ctx context.Context, bar *entity.DailyBar) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instrument_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "change", "change_percent", "updated_at"}),
	}).Create(bar).Error
}

func (r *dailyBarGorm) RecentBefore(ctx context.Context, instrumentID uint, date time.Time, limit int) ([]entity.DailyBar, error) {
	return r.recent(ctx, "instrument_id = ? AND date < ?", instrumentID, date, limit)
}

func (r *dailyBarGorm) Recent(ctx context.Context, instrumentID uint, date time.Time, limit int) ([]entity.DailyBar, error) {
	return r.recent(ctx, "instrument_id = ? AND date <= ?", instrumentID, date, limit)
}

func (r *dailyBarGorm) recent(ctx context.Context, cond string, instrumentID uint, date time.Time, limit int) ([]entity.DailyBar, error) {
	var rows []entity.DailyBar
	q := r.db.WithContext(ctx).
		Where(cond, instrumentID, date).
		Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
