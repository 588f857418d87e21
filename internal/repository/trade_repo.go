package repository

import (
	"context"
	"errors"
	"time"
	"trading-signals/internal/dto"
	"trading-signals/internal/model"
	"trading-signals/pkg/utils"

	"gorm.io/gorm"
)

type TradeRepository interface {
	Create(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error
	Update(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error
	FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Trade, error)
	GetOpenBySymbol(ctx context.Context, symbol string, opts ...utils.DBOption) (*model.Trade, error)
	Get(ctx context.Context, param dto.GetTradesParam, opts ...utils.DBOption) ([]model.Trade, int64, error)
	GetClosedForReplay(ctx context.Context, symbols []string, startTime *time.Time, opts ...utils.DBOption) ([]model.Trade, error)
}

type tradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) Create(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(trade).Error
}

func (r *tradeRepository) Update(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Save(trade).Error
}

func (r *tradeRepository) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Trade, error) {
	var trade model.Trade
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&trade, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// GetOpenBySymbol returns the oldest open trade for a symbol, or nil if none.
// The store should only ever hold one, but a prior inconsistency may have left
// more; ordering by entry time picks the earliest deterministically.
func (r *tradeRepository) GetOpenBySymbol(ctx context.Context, symbol string, opts ...utils.DBOption) (*model.Trade, error) {
	var trade model.Trade
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("symbol = ? AND status = ?", symbol, model.TradeStatusOpen).
		Order("entry_time ASC").
		First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *tradeRepository) Get(ctx context.Context, param dto.GetTradesParam, opts ...utils.DBOption) ([]model.Trade, int64, error) {
	var trades []model.Trade
	var total int64

	q := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Model(&model.Trade{})
	if param.Symbol != "" {
		q = q.Where("symbol = ?", param.Symbol)
	}
	if param.Status != "" {
		q = q.Where("status = ?", param.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if param.Limit > 0 {
		q = q.Limit(param.Limit)
		if param.Page > 1 {
			q = q.Offset((param.Page - 1) * param.Limit)
		}
	}

	if err := q.Order("entry_time DESC").Find(&trades).Error; err != nil {
		return nil, 0, err
	}
	return trades, total, nil
}

// GetClosedForReplay fetches every closed trade in the given symbols whose
// entry time is at or after startTime (all history when nil), ordered by exit
// time ascending. This is the input sequence for a batch log rebuild.
func (r *tradeRepository) GetClosedForReplay(ctx context.Context, symbols []string, startTime *time.Time, opts ...utils.DBOption) ([]model.Trade, error) {
	var trades []model.Trade
	q := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("status = ? AND symbol IN (?)", model.TradeStatusClosed, symbols)
	if startTime != nil {
		q = q.Where("entry_time >= ?", *startTime)
	}
	if err := q.Order("exit_time ASC").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}
