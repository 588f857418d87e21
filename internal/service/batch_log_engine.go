package service

import (
	"context"
	"fmt"
	"math"
	"trading-signals/config"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/model"
	"trading-signals/internal/repository"
	"trading-signals/pkg/cache"
	"trading-signals/pkg/logger"
	"trading-signals/pkg/utils"
)

const batchSummaryCacheKey = "batch:summary:%d"

// BatchLogEngine maintains per-batch running-totals logs. Append extends a
// log by one closed trade; Rebuild replays the batch's whole matched trade
// history from scratch. Both run under the caller's transaction options so a
// reader never sees a half-written log.
type BatchLogEngine interface {
	Append(ctx context.Context, batch *model.Batch, trade *model.Trade, opts ...utils.DBOption) error
	Rebuild(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error
}

type batchLogEngine struct {
	cfg          *config.Config
	log          *logger.Logger
	tradeRepo    repository.TradeRepository
	batchLogRepo repository.BatchLogRepository
	cache        cache.Cache
}

func NewBatchLogEngine(
	cfg *config.Config,
	log *logger.Logger,
	tradeRepo repository.TradeRepository,
	batchLogRepo repository.BatchLogRepository,
	inmemoryCache cache.Cache,
) BatchLogEngine {
	return &batchLogEngine{
		cfg:          cfg,
		log:          log,
		tradeRepo:    tradeRepo,
		batchLogRepo: batchLogRepo,
		cache:        inmemoryCache,
	}
}

// runningState is the carry between consecutive log rows. capitalBefore keeps
// full precision during a replay; rounding is applied only to persisted rows.
type runningState struct {
	capitalBefore float64
	peakCapital   float64
	maxDrawdown   float64
	tradeNumber   int
}

func seedState(batch *model.Batch) runningState {
	return runningState{
		capitalBefore: batch.Capital,
		peakCapital:   batch.Capital,
		maxDrawdown:   0,
		tradeNumber:   0,
	}
}

func stateFromEntry(entry *model.BatchLogEntry) runningState {
	return runningState{
		capitalBefore: entry.CapitalAfter,
		peakCapital:   entry.PeakCapital,
		maxDrawdown:   entry.MaxDrawdown,
		tradeNumber:   entry.TradeNumber,
	}
}

// buildEntry applies the per-trade formula and returns the persistable row
// plus the unrounded state carried into the next trade.
func buildEntry(batch *model.Batch, trade *model.Trade, st runningState) (model.BatchLogEntry, runningState) {
	pnlPercent := 0.0
	if trade.PnlPercent != nil {
		pnlPercent = *trade.PnlPercent
	}

	pnlAbsolute := st.capitalBefore * pnlPercent / 100
	capitalAfter := st.capitalBefore + pnlAbsolute
	peak := math.Max(st.peakCapital, capitalAfter)

	drawdown := 0.0
	if peak > 0 {
		drawdown = (peak - capitalAfter) / peak * 100
	}
	maxDrawdown := math.Max(st.maxDrawdown, drawdown)

	exitPrice := 0.0
	if trade.ExitPrice != nil {
		exitPrice = *trade.ExitPrice
	}
	entry := model.BatchLogEntry{
		BatchID:       batch.ID,
		TradeID:       trade.ID,
		Symbol:        trade.Symbol,
		Direction:     trade.Direction,
		EntryPrice:    trade.EntryPrice,
		ExitPrice:     exitPrice,
		EntryTime:     trade.EntryTime,
		PnlPercent:    utils.RoundPercent(pnlPercent),
		PnlAbsolute:   utils.RoundCurrency(pnlAbsolute),
		CapitalBefore: utils.RoundCurrency(st.capitalBefore),
		CapitalAfter:  utils.RoundCurrency(capitalAfter),
		CumulativePnl: utils.RoundCurrency(capitalAfter - batch.Capital),
		Drawdown:      utils.RoundPercent(drawdown),
		MaxDrawdown:   utils.RoundPercent(maxDrawdown),
		PeakCapital:   utils.RoundCurrency(peak),
		TradeNumber:   st.tradeNumber + 1,
	}
	if trade.ExitTime != nil {
		entry.ExitTime = *trade.ExitTime
	}

	next := runningState{
		capitalBefore: capitalAfter,
		peakCapital:   peak,
		maxDrawdown:   maxDrawdown,
		tradeNumber:   st.tradeNumber + 1,
	}
	return entry, next
}

func (e *batchLogEngine) Append(ctx context.Context, batch *model.Batch, trade *model.Trade, opts ...utils.DBOption) error {
	defer e.invalidate(batch.ID)

	// Re-processing the same close overwrites the existing row in place,
	// recomputed from the state just before it.
	existing, err := e.batchLogRepo.FindByBatchAndTrade(ctx, batch.ID, trade.ID, opts...)
	if err != nil {
		return apperrors.NewStorageError("find batch log entry", err)
	}
	if existing != nil {
		return e.overwrite(ctx, batch, trade, existing, opts...)
	}

	// Locking the last row serializes two trades closing into the same batch
	// at the same moment.
	last, err := e.batchLogRepo.LastEntry(ctx, batch.ID, append(opts, utils.WithLockForUpdate())...)
	if err != nil {
		return apperrors.NewStorageError("load last batch log entry", err)
	}

	st := seedState(batch)
	if last != nil {
		st = stateFromEntry(last)
	}

	entry, _ := buildEntry(batch, trade, st)
	if err := e.batchLogRepo.Create(ctx, &entry, opts...); err != nil {
		return apperrors.NewStorageError("append batch log entry", err)
	}

	e.log.DebugContext(ctx, "Appended batch log entry",
		logger.UintField("batch_id", batch.ID),
		logger.UintField("trade_id", trade.ID),
		logger.IntField("trade_number", entry.TradeNumber),
	)
	return nil
}

func (e *batchLogEngine) overwrite(ctx context.Context, batch *model.Batch, trade *model.Trade, existing *model.BatchLogEntry, opts ...utils.DBOption) error {
	st := seedState(batch)
	if existing.TradeNumber > 1 {
		prev, err := e.batchLogRepo.FindByBatchAndNumber(ctx, batch.ID, existing.TradeNumber-1, opts...)
		if err != nil {
			return apperrors.NewStorageError("load preceding batch log entry", err)
		}
		if prev != nil {
			st = stateFromEntry(prev)
		}
	}

	entry, _ := buildEntry(batch, trade, st)
	entry.ID = existing.ID
	entry.TradeNumber = existing.TradeNumber
	entry.CreatedAt = existing.CreatedAt
	if err := e.batchLogRepo.Update(ctx, &entry, opts...); err != nil {
		return apperrors.NewStorageError("overwrite batch log entry", err)
	}
	return nil
}

func (e *batchLogEngine) Rebuild(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error {
	defer e.invalidate(batch.ID)

	if err := e.batchLogRepo.DeleteByBatch(ctx, batch.ID, opts...); err != nil {
		return apperrors.NewStorageError("clear batch log", err)
	}

	symbols := batch.SymbolList()
	if len(symbols) == 0 {
		return nil
	}

	trades, err := e.tradeRepo.GetClosedForReplay(ctx, symbols, batch.StartTime, opts...)
	if err != nil {
		return apperrors.NewStorageError("load trades for replay", err)
	}

	st := seedState(batch)
	for i := range trades {
		entry, next := buildEntry(batch, &trades[i], st)
		if err := e.batchLogRepo.Create(ctx, &entry, opts...); err != nil {
			return apperrors.NewStorageError("insert rebuilt batch log entry", err)
		}
		st = next
	}

	e.log.InfoContext(ctx, "Rebuilt batch log",
		logger.UintField("batch_id", batch.ID),
		logger.IntField("entries", len(trades)),
	)
	return nil
}

func (e *batchLogEngine) invalidate(batchID uint) {
	e.cache.Delete(fmt.Sprintf(batchSummaryCacheKey, batchID))
}
