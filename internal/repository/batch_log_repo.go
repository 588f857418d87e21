package repository

import (
	"context"
	"errors"
	"trading-signals/internal/dto"
	"trading-signals/internal/model"
	"trading-signals/pkg/utils"

	"gorm.io/gorm"
)

type BatchLogRepository interface {
	Create(ctx context.Context, entry *model.BatchLogEntry, opts ...utils.DBOption) error
	Update(ctx context.Context, entry *model.BatchLogEntry, opts ...utils.DBOption) error
	DeleteByBatch(ctx context.Context, batchID uint, opts ...utils.DBOption) error
	LastEntry(ctx context.Context, batchID uint, opts ...utils.DBOption) (*model.BatchLogEntry, error)
	FindByBatchAndTrade(ctx context.Context, batchID, tradeID uint, opts ...utils.DBOption) (*model.BatchLogEntry, error)
	FindByBatchAndNumber(ctx context.Context, batchID uint, tradeNumber int, opts ...utils.DBOption) (*model.BatchLogEntry, error)

	Page(ctx context.Context, batchID uint, page, limit int, opts ...utils.DBOption) ([]model.BatchLogEntry, int64, error)
	Summary(ctx context.Context, batchID uint, opts ...utils.DBOption) (*dto.BatchSummary, error)
	CapitalSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.CapitalPoint, error)
	DailyCapitalSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DailyCapitalPoint, error)
	DailyTradeCounts(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DailyTradeCount, error)
	CumulativeTradeCounts(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.CumulativeTradeCount, error)
	SymbolBreakdown(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.SymbolBreakdown, error)
	DrawdownSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DrawdownPoint, error)
}

type batchLogRepository struct {
	db *gorm.DB
}

func NewBatchLogRepository(db *gorm.DB) BatchLogRepository {
	return &batchLogRepository{db: db}
}

func (r *batchLogRepository) Create(ctx context.Context, entry *model.BatchLogEntry, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(entry).Error
}

func (r *batchLogRepository) Update(ctx context.Context, entry *model.BatchLogEntry, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Save(entry).Error
}

func (r *batchLogRepository) DeleteByBatch(ctx context.Context, batchID uint, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("batch_id = ?", batchID).
		Delete(&model.BatchLogEntry{}).Error
}

// LastEntry returns the batch's newest log row by trade number, or nil for an
// empty log. Appends carry their running totals forward from this row.
func (r *batchLogRepository) LastEntry(ctx context.Context, batchID uint, opts ...utils.DBOption) (*model.BatchLogEntry, error) {
	var entry model.BatchLogEntry
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("batch_id = ?", batchID).
		Order("trade_number DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *batchLogRepository) FindByBatchAndTrade(ctx context.Context, batchID, tradeID uint, opts ...utils.DBOption) (*model.BatchLogEntry, error) {
	var entry model.BatchLogEntry
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("batch_id = ? AND trade_id = ?", batchID, tradeID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *batchLogRepository) FindByBatchAndNumber(ctx context.Context, batchID uint, tradeNumber int, opts ...utils.DBOption) (*model.BatchLogEntry, error) {
	var entry model.BatchLogEntry
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("batch_id = ? AND trade_number = ?", batchID, tradeNumber).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *batchLogRepository) Page(ctx context.Context, batchID uint, page, limit int, opts ...utils.DBOption) ([]model.BatchLogEntry, int64, error) {
	var entries []model.BatchLogEntry
	var total int64

	q := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.BatchLogEntry{}).
		Where("batch_id = ?", batchID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit)
		if page > 1 {
			q = q.Offset((page - 1) * limit)
		}
	}
	if err := q.Order("trade_number ASC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *batchLogRepository) Summary(ctx context.Context, batchID uint, opts ...utils.DBOption) (*dto.BatchSummary, error) {
	summary := dto.BatchSummary{BatchID: batchID}

	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Raw(`
		SELECT
			COUNT(*)                                          AS total_trades,
			COUNT(*) FILTER (WHERE pnl_percent > 0)           AS winning_trades,
			COUNT(*) FILTER (WHERE pnl_percent < 0)           AS losing_trades,
			COUNT(*) FILTER (WHERE pnl_percent = 0)           AS breakeven_trades,
			COALESCE(AVG(pnl_percent), 0)                     AS avg_pnl_percent,
			COALESCE(MAX(pnl_percent), 0)                     AS best_pnl_percent,
			COALESCE(MIN(pnl_percent), 0)                     AS worst_pnl_percent,
			COALESCE(SUM(pnl_absolute), 0)                    AS total_pnl
		FROM batch_log_entries
		WHERE batch_id = ?`, batchID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	latest, err := r.LastEntry(ctx, batchID, opts...)
	if err != nil {
		return nil, err
	}
	summary.Latest = latest
	return &summary, nil
}

func (r *batchLogRepository) CapitalSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.CapitalPoint, error) {
	var points []dto.CapitalPoint
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.BatchLogEntry{}).
		Select("trade_number, exit_time, capital_after").
		Where("batch_id = ?", batchID).
		Order("trade_number ASC").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

// DailyCapitalSeries groups by exit date: running capital uses the day's last
// entry, pnl is the day's sum.
func (r *batchLogRepository) DailyCapitalSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DailyCapitalPoint, error) {
	var points []dto.DailyCapitalPoint
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Raw(`
		SELECT
			DATE_TRUNC('day', exit_time)                               AS date,
			(ARRAY_AGG(capital_after ORDER BY trade_number DESC))[1]   AS capital_after,
			SUM(pnl_absolute)                                          AS pnl_absolute,
			COUNT(*)                                                   AS trades
		FROM batch_log_entries
		WHERE batch_id = ?
		GROUP BY DATE_TRUNC('day', exit_time)
		ORDER BY date ASC`, batchID).
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (r *batchLogRepository) DailyTradeCounts(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DailyTradeCount, error) {
	var counts []dto.DailyTradeCount
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Raw(`
		SELECT DATE_TRUNC('day', exit_time) AS date, COUNT(*) AS count
		FROM batch_log_entries
		WHERE batch_id = ?
		GROUP BY DATE_TRUNC('day', exit_time)
		ORDER BY date ASC`, batchID).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// CumulativeTradeCounts is the trade-count-over-time series; trade_number
// already carries the cumulative position within the batch.
func (r *batchLogRepository) CumulativeTradeCounts(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.CumulativeTradeCount, error) {
	var counts []dto.CumulativeTradeCount
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.BatchLogEntry{}).
		Select("exit_time, trade_number").
		Where("batch_id = ?", batchID).
		Order("trade_number ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *batchLogRepository) SymbolBreakdown(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.SymbolBreakdown, error) {
	var breakdown []dto.SymbolBreakdown
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Raw(`
		SELECT
			symbol,
			COUNT(*)                                AS trades,
			COUNT(*) FILTER (WHERE pnl_percent > 0) AS wins,
			COUNT(*) FILTER (WHERE pnl_percent < 0) AS losses,
			COALESCE(AVG(pnl_percent), 0)           AS avg_pnl_percent,
			COALESCE(SUM(pnl_absolute), 0)          AS total_pnl
		FROM batch_log_entries
		WHERE batch_id = ?
		GROUP BY symbol
		ORDER BY symbol ASC`, batchID).
		Scan(&breakdown).Error
	if err != nil {
		return nil, err
	}
	return breakdown, nil
}

func (r *batchLogRepository) DrawdownSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DrawdownPoint, error) {
	var points []dto.DrawdownPoint
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.BatchLogEntry{}).
		Select("trade_number, exit_time, drawdown, max_drawdown").
		Where("batch_id = ?", batchID).
		Order("trade_number ASC").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}
