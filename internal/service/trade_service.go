package service

import (
	"context"
	"trading-signals/config"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/dto"
	"trading-signals/internal/model"
	"trading-signals/internal/repository"
)

// TradeService exposes plain reads over the trade ledger.
type TradeService interface {
	List(ctx context.Context, param dto.GetTradesParam) ([]model.Trade, int64, error)
	Get(ctx context.Context, id uint) (*model.Trade, error)
}

type tradeService struct {
	cfg       *config.Config
	tradeRepo repository.TradeRepository
}

func NewTradeService(cfg *config.Config, tradeRepo repository.TradeRepository) TradeService {
	return &tradeService{cfg: cfg, tradeRepo: tradeRepo}
}

func (s *tradeService) List(ctx context.Context, param dto.GetTradesParam) ([]model.Trade, int64, error) {
	if param.Limit <= 0 {
		param.Limit = s.cfg.API.DefaultPageSize
	}
	if param.Limit > s.cfg.API.MaxPageSize {
		param.Limit = s.cfg.API.MaxPageSize
	}
	if param.Page <= 0 {
		param.Page = 1
	}

	trades, total, err := s.tradeRepo.Get(ctx, param)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("list trades", err)
	}
	return trades, total, nil
}

func (s *tradeService) Get(ctx context.Context, id uint) (*model.Trade, error) {
	trade, err := s.tradeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("find trade", err)
	}
	if trade == nil {
		return nil, apperrors.NewNotFoundError("trade", id)
	}
	return trade, nil
}
