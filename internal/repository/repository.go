package repository

import "gorm.io/gorm"

type Repository struct {
	TradeRepo    TradeRepository
	BatchRepo    BatchRepository
	BatchLogRepo BatchLogRepository
	UnitOfWork   UnitOfWork
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		TradeRepo:    NewTradeRepository(db),
		BatchRepo:    NewBatchRepository(db),
		BatchLogRepo: NewBatchLogRepository(db),
		UnitOfWork:   NewUnitOfWork(db),
	}
}
