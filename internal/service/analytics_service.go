package service

import (
	"context"
	"fmt"
	"trading-signals/config"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/dto"
	"trading-signals/internal/repository"
	"trading-signals/pkg/cache"
	"trading-signals/pkg/logger"
)

// AnalyticsService serves read-only views over a batch's log entries. All the
// heavy lifting already happened at write time; these are aggregations only.
type AnalyticsService interface {
	Summary(ctx context.Context, batchID uint) (*dto.BatchSummary, error)
	TradeLog(ctx context.Context, batchID uint, page, limit int) (*dto.TradeLogPage, error)
	CapitalSeries(ctx context.Context, batchID uint) ([]dto.CapitalPoint, error)
	DailyCapitalSeries(ctx context.Context, batchID uint) ([]dto.DailyCapitalPoint, error)
	DailyTradeCounts(ctx context.Context, batchID uint) ([]dto.DailyTradeCount, error)
	CumulativeTradeCounts(ctx context.Context, batchID uint) ([]dto.CumulativeTradeCount, error)
	SymbolBreakdown(ctx context.Context, batchID uint) ([]dto.SymbolBreakdown, error)
	DrawdownSeries(ctx context.Context, batchID uint) ([]dto.DrawdownPoint, error)
}

type analyticsService struct {
	cfg          *config.Config
	log          *logger.Logger
	batchRepo    repository.BatchRepository
	batchLogRepo repository.BatchLogRepository
	cache        cache.Cache
}

func NewAnalyticsService(
	cfg *config.Config,
	log *logger.Logger,
	batchRepo repository.BatchRepository,
	batchLogRepo repository.BatchLogRepository,
	inmemoryCache cache.Cache,
) AnalyticsService {
	return &analyticsService{
		cfg:          cfg,
		log:          log,
		batchRepo:    batchRepo,
		batchLogRepo: batchLogRepo,
		cache:        inmemoryCache,
	}
}

func (s *analyticsService) Summary(ctx context.Context, batchID uint) (*dto.BatchSummary, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf(batchSummaryCacheKey, batchID)
	if cached, ok := cache.GetTyped[*dto.BatchSummary](s.cache, cacheKey); ok {
		return cached, nil
	}

	summary, err := s.batchLogRepo.Summary(ctx, batchID)
	if err != nil {
		return nil, apperrors.NewStorageError("load batch summary", err)
	}

	s.cache.Set(cacheKey, summary, s.cfg.Cache.DefaultExpiration)
	return summary, nil
}

func (s *analyticsService) TradeLog(ctx context.Context, batchID uint, page, limit int) (*dto.TradeLogPage, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.cfg.API.DefaultPageSize
	}
	if limit > s.cfg.API.MaxPageSize {
		limit = s.cfg.API.MaxPageSize
	}
	if page <= 0 {
		page = 1
	}

	entries, total, err := s.batchLogRepo.Page(ctx, batchID, page, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("load batch log page", err)
	}
	return &dto.TradeLogPage{Entries: entries, Page: page, Limit: limit, Total: total}, nil
}

func (s *analyticsService) CapitalSeries(ctx context.Context, batchID uint) ([]dto.CapitalPoint, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}
	points, err := s.batchLogRepo.CapitalSeries(ctx, batchID)
	if err != nil {
		return nil, apperrors.NewStorageError("load capital series", err)
	}
	return points, nil
}

func (s *analyticsService) DailyCapitalSeries(ctx context.Context, batchID uint) ([]dto.DailyCapitalPoint, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}
	points, err := s.batchLogRepo.DailyCapitalSeries(ctx, batchID)
	if err != nil {
		return nil, apperrors.NewStorageError("load daily capital series", err)
	}
	return points, nil
}

func (s *analyticsService) DailyTradeCounts(ctx context.Context, batchID uint) ([]dto.DailyTradeCount, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}
	counts, err := s.batchLogRepo.DailyTradeCounts(ctx, batchID)
	if err != nil {
		return nil, apperrors.NewStorageError("load daily trade counts", err)
	}
	return counts, nil
}

func (s *analyticsService) CumulativeTradeCounts(ctx context.Context, batchID uint) ([]dto.CumulativeTradeCount, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}
	counts, err := s.batchLogRepo.CumulativeTradeCounts(ctx, batchID)
	if err != nil {
		return nil, apperrors.NewStorageError("load cumulative trade counts", err)
	}
	return counts, nil
}

func (s *analyticsService) SymbolBreakdown(ctx context.Context, batchID uint) ([]dto.SymbolBreakdown, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}
	breakdown, err := s.batchLogRepo.SymbolBreakdown(ctx, batchID)
	if err != nil {
		return nil, apperrors.NewStorageError("load symbol breakdown", err)
	}
	return breakdown, nil
}

func (s *analyticsService) DrawdownSeries(ctx context.Context, batchID uint) ([]dto.DrawdownPoint, error) {
	if err := s.checkBatch(ctx, batchID); err != nil {
		return nil, err
	}
	points, err := s.batchLogRepo.DrawdownSeries(ctx, batchID)
	if err != nil {
		return nil, apperrors.NewStorageError("load drawdown series", err)
	}
	return points, nil
}

func (s *analyticsService) checkBatch(ctx context.Context, batchID uint) error {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return apperrors.NewStorageError("find batch", err)
	}
	if batch == nil {
		return apperrors.NewNotFoundError("batch", batchID)
	}
	return nil
}
