package repository

import (
	"context"
	"errors"
	"trading-signals/internal/model"
	"trading-signals/pkg/utils"

	"gorm.io/gorm"
)

type BatchRepository interface {
	Create(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error
	Update(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error
	Delete(ctx context.Context, id uint, opts ...utils.DBOption) error
	FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Batch, error)
	List(ctx context.Context, opts ...utils.DBOption) ([]model.Batch, error)
	FindBySymbol(ctx context.Context, symbol string, opts ...utils.DBOption) ([]model.Batch, error)
	ReplaceSymbols(ctx context.Context, batchID uint, symbols []string, opts ...utils.DBOption) error
	AddSymbol(ctx context.Context, batchID uint, symbol string, opts ...utils.DBOption) error
	RemoveSymbol(ctx context.Context, batchID uint, symbol string, opts ...utils.DBOption) error
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(batch).Error
}

func (r *batchRepository) Update(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Omit("Symbols").
		Save(batch).Error
}

// Delete removes the batch together with its membership and log rows. Trades
// are never touched.
func (r *batchRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if err := db.Where("batch_id = ?", id).Delete(&model.BatchLogEntry{}).Error; err != nil {
		return err
	}
	if err := db.Where("batch_id = ?", id).Delete(&model.BatchSymbol{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Batch{}, id).Error
}

func (r *batchRepository) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Batch, error) {
	var batch model.Batch
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Preload("Symbols").
		First(&batch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) List(ctx context.Context, opts ...utils.DBOption) ([]model.Batch, error) {
	var batches []model.Batch
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Preload("Symbols").
		Order("id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// FindBySymbol returns every batch whose membership contains the symbol.
func (r *batchRepository) FindBySymbol(ctx context.Context, symbol string, opts ...utils.DBOption) ([]model.Batch, error) {
	var batches []model.Batch
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Preload("Symbols").
		Joins("JOIN batch_symbols ON batch_symbols.batch_id = batches.id").
		Where("batch_symbols.symbol = ?", symbol).
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *batchRepository) ReplaceSymbols(ctx context.Context, batchID uint, symbols []string, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if err := db.Where("batch_id = ?", batchID).Delete(&model.BatchSymbol{}).Error; err != nil {
		return err
	}
	if len(symbols) == 0 {
		return nil
	}
	rows := make([]model.BatchSymbol, 0, len(symbols))
	for _, s := range symbols {
		rows = append(rows, model.BatchSymbol{BatchID: batchID, Symbol: s})
	}
	return db.Create(&rows).Error
}

func (r *batchRepository) AddSymbol(ctx context.Context, batchID uint, symbol string, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	var count int64
	if err := db.Model(&model.BatchSymbol{}).
		Where("batch_id = ? AND symbol = ?", batchID, symbol).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&model.BatchSymbol{BatchID: batchID, Symbol: symbol}).Error
}

func (r *batchRepository) RemoveSymbol(ctx context.Context, batchID uint, symbol string, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("batch_id = ? AND symbol = ?", batchID, symbol).
		Delete(&model.BatchSymbol{}).Error
}
