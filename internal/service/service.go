package service

import (
	"trading-signals/config"
	"trading-signals/internal/repository"
	"trading-signals/pkg/cache"
	"trading-signals/pkg/logger"
)

type Service struct {
	SignalService    SignalService
	BatchService     BatchService
	AnalyticsService AnalyticsService
	TradeService     TradeService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
) *Service {
	logEngine := NewBatchLogEngine(cfg, log, repo.TradeRepo, repo.BatchLogRepo, inmemoryCache)

	return &Service{
		SignalService:    NewSignalService(cfg, log, repo.TradeRepo, repo.BatchRepo, logEngine, repo.UnitOfWork),
		BatchService:     NewBatchService(cfg, log, repo.BatchRepo, logEngine, repo.UnitOfWork),
		AnalyticsService: NewAnalyticsService(cfg, log, repo.BatchRepo, repo.BatchLogRepo, inmemoryCache),
		TradeService:     NewTradeService(cfg, repo.TradeRepo),
	}
}
