package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
	"trading-signals/config"
	"trading-signals/internal/dto"
	"trading-signals/internal/model"
	"trading-signals/pkg/cache"
	"trading-signals/pkg/logger"
	"trading-signals/pkg/utils"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	cfg     *config.Config
	log     *logger.Logger
	trades  *memTradeRepo
	batches *memBatchRepo
	entries *memBatchLogRepo
	cache   cache.Cache
	engine  BatchLogEngine
	uow     *fakeUnitOfWork
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)

	env := &testEnv{
		cfg: &config.Config{
			API:   config.API{DefaultPageSize: 50, MaxPageSize: 500},
			Cache: config.Cache{DefaultExpiration: time.Minute, CleanupInterval: time.Minute},
			Batch: config.Batch{DefaultCapital: 100000},
		},
		log:     log,
		trades:  newMemTradeRepo(),
		batches: newMemBatchRepo(),
		entries: newMemBatchLogRepo(),
		cache:   cache.NewCache(time.Minute, time.Minute),
		uow:     &fakeUnitOfWork{},
	}
	env.engine = NewBatchLogEngine(env.cfg, env.log, env.trades, env.entries, env.cache)
	return env
}

// In-memory repository fakes. They honor the same contracts as the gorm-backed
// implementations so the services can be exercised without a database.

type fakeUnitOfWork struct{}

func (f *fakeUnitOfWork) Run(fn func(opts ...utils.DBOption) error) error {
	return fn()
}

type memTradeRepo struct {
	mu     sync.Mutex
	seq    uint
	trades map[uint]model.Trade
}

func newMemTradeRepo() *memTradeRepo {
	return &memTradeRepo{trades: make(map[uint]model.Trade)}
}

func (r *memTradeRepo) Create(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	trade.ID = r.seq
	r.trades[trade.ID] = *trade
	return nil
}

func (r *memTradeRepo) Update(ctx context.Context, trade *model.Trade, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[trade.ID] = *trade
	return nil
}

func (r *memTradeRepo) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if trade, ok := r.trades[id]; ok {
		return &trade, nil
	}
	return nil, nil
}

func (r *memTradeRepo) GetOpenBySymbol(ctx context.Context, symbol string, opts ...utils.DBOption) (*model.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *model.Trade
	for id := range r.trades {
		trade := r.trades[id]
		if trade.Symbol != symbol || trade.Status != model.TradeStatusOpen {
			continue
		}
		if oldest == nil || trade.EntryTime.Before(oldest.EntryTime) {
			t := trade
			oldest = &t
		}
	}
	return oldest, nil
}

func (r *memTradeRepo) Get(ctx context.Context, param dto.GetTradesParam, opts ...utils.DBOption) ([]model.Trade, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var trades []model.Trade
	for id := range r.trades {
		trade := r.trades[id]
		if param.Symbol != "" && trade.Symbol != param.Symbol {
			continue
		}
		if param.Status != "" && trade.Status != param.Status {
			continue
		}
		trades = append(trades, trade)
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].EntryTime.After(trades[j].EntryTime)
	})
	return trades, int64(len(trades)), nil
}

func (r *memTradeRepo) GetClosedForReplay(ctx context.Context, symbols []string, startTime *time.Time, opts ...utils.DBOption) ([]model.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		member[s] = struct{}{}
	}

	var trades []model.Trade
	for id := range r.trades {
		trade := r.trades[id]
		if trade.Status != model.TradeStatusClosed {
			continue
		}
		if _, ok := member[trade.Symbol]; !ok {
			continue
		}
		if startTime != nil && trade.EntryTime.Before(*startTime) {
			continue
		}
		trades = append(trades, trade)
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].ExitTime.Before(*trades[j].ExitTime)
	})
	return trades, nil
}

type memBatchRepo struct {
	mu      sync.Mutex
	seq     uint
	symSeq  uint
	batches map[uint]model.Batch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uint]model.Batch)}
}

func (r *memBatchRepo) Create(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	batch.ID = r.seq
	for i := range batch.Symbols {
		r.symSeq++
		batch.Symbols[i].ID = r.symSeq
		batch.Symbols[i].BatchID = batch.ID
	}
	r.batches[batch.ID] = *batch
	return nil
}

func (r *memBatchRepo) Update(ctx context.Context, batch *model.Batch, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[batch.ID]
	if !ok {
		return nil
	}
	stored.Name = batch.Name
	stored.Capital = batch.Capital
	stored.StartTime = batch.StartTime
	r.batches[batch.ID] = stored
	return nil
}

func (r *memBatchRepo) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.batches, id)
	return nil
}

func (r *memBatchRepo) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if batch, ok := r.batches[id]; ok {
		copied := batch
		copied.Symbols = append([]model.BatchSymbol(nil), batch.Symbols...)
		return &copied, nil
	}
	return nil, nil
}

func (r *memBatchRepo) List(ctx context.Context, opts ...utils.DBOption) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var batches []model.Batch
	for id := range r.batches {
		batches = append(batches, r.batches[id])
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].ID < batches[j].ID })
	return batches, nil
}

func (r *memBatchRepo) FindBySymbol(ctx context.Context, symbol string, opts ...utils.DBOption) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var batches []model.Batch
	for id := range r.batches {
		batch := r.batches[id]
		for _, s := range batch.Symbols {
			if s.Symbol == symbol {
				batches = append(batches, batch)
				break
			}
		}
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].ID < batches[j].ID })
	return batches, nil
}

func (r *memBatchRepo) ReplaceSymbols(ctx context.Context, batchID uint, symbols []string, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return nil
	}
	batch.Symbols = nil
	for _, symbol := range symbols {
		r.symSeq++
		batch.Symbols = append(batch.Symbols, model.BatchSymbol{ID: r.symSeq, BatchID: batchID, Symbol: symbol})
	}
	r.batches[batchID] = batch
	return nil
}

func (r *memBatchRepo) AddSymbol(ctx context.Context, batchID uint, symbol string, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return nil
	}
	for _, s := range batch.Symbols {
		if s.Symbol == symbol {
			return nil
		}
	}
	r.symSeq++
	batch.Symbols = append(batch.Symbols, model.BatchSymbol{ID: r.symSeq, BatchID: batchID, Symbol: symbol})
	r.batches[batchID] = batch
	return nil
}

func (r *memBatchRepo) RemoveSymbol(ctx context.Context, batchID uint, symbol string, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return nil
	}
	kept := batch.Symbols[:0]
	for _, s := range batch.Symbols {
		if s.Symbol != symbol {
			kept = append(kept, s)
		}
	}
	batch.Symbols = kept
	r.batches[batchID] = batch
	return nil
}

type memBatchLogRepo struct {
	mu      sync.Mutex
	seq     uint
	entries map[uint]model.BatchLogEntry
}

func newMemBatchLogRepo() *memBatchLogRepo {
	return &memBatchLogRepo{entries: make(map[uint]model.BatchLogEntry)}
}

func (r *memBatchLogRepo) Create(ctx context.Context, entry *model.BatchLogEntry, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = r.seq
	r.entries[entry.ID] = *entry
	return nil
}

func (r *memBatchLogRepo) Update(ctx context.Context, entry *model.BatchLogEntry, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = *entry
	return nil
}

func (r *memBatchLogRepo) DeleteByBatch(ctx context.Context, batchID uint, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.entries {
		if r.entries[id].BatchID == batchID {
			delete(r.entries, id)
		}
	}
	return nil
}

func (r *memBatchLogRepo) LastEntry(ctx context.Context, batchID uint, opts ...utils.DBOption) (*model.BatchLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *model.BatchLogEntry
	for id := range r.entries {
		entry := r.entries[id]
		if entry.BatchID != batchID {
			continue
		}
		if last == nil || entry.TradeNumber > last.TradeNumber {
			e := entry
			last = &e
		}
	}
	return last, nil
}

func (r *memBatchLogRepo) FindByBatchAndTrade(ctx context.Context, batchID, tradeID uint, opts ...utils.DBOption) (*model.BatchLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.entries {
		entry := r.entries[id]
		if entry.BatchID == batchID && entry.TradeID == tradeID {
			return &entry, nil
		}
	}
	return nil, nil
}

func (r *memBatchLogRepo) FindByBatchAndNumber(ctx context.Context, batchID uint, tradeNumber int, opts ...utils.DBOption) (*model.BatchLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.entries {
		entry := r.entries[id]
		if entry.BatchID == batchID && entry.TradeNumber == tradeNumber {
			return &entry, nil
		}
	}
	return nil, nil
}

func (r *memBatchLogRepo) byBatch(batchID uint) []model.BatchLogEntry {
	var entries []model.BatchLogEntry
	for id := range r.entries {
		if r.entries[id].BatchID == batchID {
			entries = append(entries, r.entries[id])
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TradeNumber < entries[j].TradeNumber
	})
	return entries
}

func (r *memBatchLogRepo) Page(ctx context.Context, batchID uint, page, limit int, opts ...utils.DBOption) ([]model.BatchLogEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.byBatch(batchID)
	total := int64(len(entries))
	if limit > 0 {
		start := (page - 1) * limit
		if start > len(entries) {
			start = len(entries)
		}
		end := start + limit
		if end > len(entries) {
			end = len(entries)
		}
		entries = entries[start:end]
	}
	return entries, total, nil
}

func (r *memBatchLogRepo) Summary(ctx context.Context, batchID uint, opts ...utils.DBOption) (*dto.BatchSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.byBatch(batchID)

	summary := &dto.BatchSummary{BatchID: batchID}
	for i, entry := range entries {
		summary.TotalTrades++
		switch {
		case entry.PnlPercent > 0:
			summary.WinningTrades++
		case entry.PnlPercent < 0:
			summary.LosingTrades++
		default:
			summary.BreakevenTrades++
		}
		summary.AvgPnlPercent += entry.PnlPercent
		summary.TotalPnl += entry.PnlAbsolute
		if i == 0 || entry.PnlPercent > summary.BestPnlPercent {
			summary.BestPnlPercent = entry.PnlPercent
		}
		if i == 0 || entry.PnlPercent < summary.WorstPnlPercent {
			summary.WorstPnlPercent = entry.PnlPercent
		}
	}
	if summary.TotalTrades > 0 {
		summary.AvgPnlPercent /= float64(summary.TotalTrades)
		latest := entries[len(entries)-1]
		summary.Latest = &latest
	}
	return summary, nil
}

func (r *memBatchLogRepo) CapitalSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.CapitalPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var points []dto.CapitalPoint
	for _, entry := range r.byBatch(batchID) {
		points = append(points, dto.CapitalPoint{
			TradeNumber:  entry.TradeNumber,
			ExitTime:     entry.ExitTime,
			CapitalAfter: entry.CapitalAfter,
		})
	}
	return points, nil
}

func (r *memBatchLogRepo) DailyCapitalSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DailyCapitalPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDay := make(map[time.Time]*dto.DailyCapitalPoint)
	for _, entry := range r.byBatch(batchID) {
		day := entry.ExitTime.Truncate(24 * time.Hour)
		point, ok := byDay[day]
		if !ok {
			point = &dto.DailyCapitalPoint{Date: day}
			byDay[day] = point
		}
		point.CapitalAfter = entry.CapitalAfter
		point.PnlAbsolute += entry.PnlAbsolute
		point.Trades++
	}
	var points []dto.DailyCapitalPoint
	for _, point := range byDay {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (r *memBatchLogRepo) DailyTradeCounts(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DailyTradeCount, error) {
	daily, err := r.DailyCapitalSeries(ctx, batchID, opts...)
	if err != nil {
		return nil, err
	}
	var counts []dto.DailyTradeCount
	for _, point := range daily {
		counts = append(counts, dto.DailyTradeCount{Date: point.Date, Count: point.Trades})
	}
	return counts, nil
}

func (r *memBatchLogRepo) CumulativeTradeCounts(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.CumulativeTradeCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts []dto.CumulativeTradeCount
	for _, entry := range r.byBatch(batchID) {
		counts = append(counts, dto.CumulativeTradeCount{ExitTime: entry.ExitTime, TradeNumber: entry.TradeNumber})
	}
	return counts, nil
}

func (r *memBatchLogRepo) SymbolBreakdown(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.SymbolBreakdown, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bySymbol := make(map[string]*dto.SymbolBreakdown)
	for _, entry := range r.byBatch(batchID) {
		breakdown, ok := bySymbol[entry.Symbol]
		if !ok {
			breakdown = &dto.SymbolBreakdown{Symbol: entry.Symbol}
			bySymbol[entry.Symbol] = breakdown
		}
		breakdown.Trades++
		if entry.PnlPercent > 0 {
			breakdown.Wins++
		}
		if entry.PnlPercent < 0 {
			breakdown.Losses++
		}
		breakdown.AvgPnlPercent += entry.PnlPercent
		breakdown.TotalPnl += entry.PnlAbsolute
	}
	var breakdowns []dto.SymbolBreakdown
	for _, breakdown := range bySymbol {
		breakdown.AvgPnlPercent /= float64(breakdown.Trades)
		breakdowns = append(breakdowns, *breakdown)
	}
	sort.Slice(breakdowns, func(i, j int) bool { return breakdowns[i].Symbol < breakdowns[j].Symbol })
	return breakdowns, nil
}

func (r *memBatchLogRepo) DrawdownSeries(ctx context.Context, batchID uint, opts ...utils.DBOption) ([]dto.DrawdownPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var points []dto.DrawdownPoint
	for _, entry := range r.byBatch(batchID) {
		points = append(points, dto.DrawdownPoint{
			TradeNumber: entry.TradeNumber,
			ExitTime:    entry.ExitTime,
			Drawdown:    entry.Drawdown,
			MaxDrawdown: entry.MaxDrawdown,
		})
	}
	return points, nil
}
