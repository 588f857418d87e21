package service

import (
	"context"
	"testing"
	"time"
	"trading-signals/internal/apperrors"
	"trading-signals/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScoredBatch(t *testing.T, env *testEnv) *model.Batch {
	t.Helper()
	ctx := context.Background()

	batch := &model.Batch{Name: "crypto", Capital: 100000, Symbols: []model.BatchSymbol{{Symbol: "BTCUSD"}, {Symbol: "ETHUSD"}}}
	require.NoError(t, env.batches.Create(ctx, batch))

	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	fixtures := []struct {
		symbol string
		pnl    float64
	}{
		{"BTCUSD", 10},
		{"ETHUSD", -20},
		{"BTCUSD", 0},
		{"ETHUSD", 5},
	}
	for i, f := range fixtures {
		trade := closedTrade(t, env, f.symbol, model.DirectionBullish, 100, 100+f.pnl, f.pnl, day(i*2+1), day(i*2+2))
		require.NoError(t, env.engine.Append(ctx, batch, trade))
	}
	return batch
}

func TestAnalyticsServiceSummary(t *testing.T) {
	env := newTestEnv(t)
	batch := newScoredBatch(t, env)
	svc := NewAnalyticsService(env.cfg, env.log, env.batches, env.entries, env.cache)
	ctx := context.Background()

	summary, err := svc.Summary(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalTrades)
	assert.Equal(t, int64(2), summary.WinningTrades)
	assert.Equal(t, int64(1), summary.LosingTrades)
	assert.Equal(t, int64(1), summary.BreakevenTrades)
	assert.Equal(t, 10.0, summary.BestPnlPercent)
	assert.Equal(t, -20.0, summary.WorstPnlPercent)
	require.NotNil(t, summary.Latest)
	assert.Equal(t, 4, summary.Latest.TradeNumber)

	// second read is served from cache
	again, err := svc.Summary(ctx, batch.ID)
	require.NoError(t, err)
	assert.Same(t, summary, again)

	// a write through the engine invalidates it
	trade := closedTrade(t, env, "BTCUSD", model.DirectionBullish, 100, 110, 10,
		time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	require.NoError(t, env.engine.Append(ctx, batch, trade))

	fresh, err := svc.Summary(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), fresh.TotalTrades)
}

func TestAnalyticsServiceTradeLog(t *testing.T) {
	env := newTestEnv(t)
	batch := newScoredBatch(t, env)
	svc := NewAnalyticsService(env.cfg, env.log, env.batches, env.entries, env.cache)
	ctx := context.Background()

	t.Run("defaults page and limit", func(t *testing.T) {
		page, err := svc.TradeLog(ctx, batch.ID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, env.cfg.API.DefaultPageSize, page.Limit)
		assert.Equal(t, int64(4), page.Total)
		assert.Len(t, page.Entries, 4)
	})

	t.Run("pages in trade order", func(t *testing.T) {
		page, err := svc.TradeLog(ctx, batch.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, page.Entries, 2)
		assert.Equal(t, 3, page.Entries[0].TradeNumber)
		assert.Equal(t, 4, page.Entries[1].TradeNumber)
	})

	t.Run("clamps oversized limit", func(t *testing.T) {
		page, err := svc.TradeLog(ctx, batch.ID, 1, env.cfg.API.MaxPageSize+1)
		require.NoError(t, err)
		assert.Equal(t, env.cfg.API.MaxPageSize, page.Limit)
	})
}

func TestAnalyticsServiceSeries(t *testing.T) {
	env := newTestEnv(t)
	batch := newScoredBatch(t, env)
	svc := NewAnalyticsService(env.cfg, env.log, env.batches, env.entries, env.cache)
	ctx := context.Background()

	t.Run("capital series follows the chain", func(t *testing.T) {
		points, err := svc.CapitalSeries(ctx, batch.ID)
		require.NoError(t, err)
		require.Len(t, points, 4)
		assert.Equal(t, 110000.0, points[0].CapitalAfter)
		assert.Equal(t, 88000.0, points[1].CapitalAfter)
		assert.Equal(t, 88000.0, points[2].CapitalAfter)
		assert.Equal(t, 92400.0, points[3].CapitalAfter)
	})

	t.Run("drawdown series", func(t *testing.T) {
		points, err := svc.DrawdownSeries(ctx, batch.ID)
		require.NoError(t, err)
		require.Len(t, points, 4)
		assert.Equal(t, 20.0, points[1].Drawdown)
		assert.Equal(t, 20.0, points[3].MaxDrawdown)
	})

	t.Run("symbol breakdown", func(t *testing.T) {
		breakdown, err := svc.SymbolBreakdown(ctx, batch.ID)
		require.NoError(t, err)
		require.Len(t, breakdown, 2)
		assert.Equal(t, "BTCUSD", breakdown[0].Symbol)
		assert.Equal(t, int64(2), breakdown[0].Trades)
		assert.Equal(t, int64(1), breakdown[0].Wins)
		assert.Equal(t, "ETHUSD", breakdown[1].Symbol)
		assert.Equal(t, int64(1), breakdown[1].Losses)
	})

	t.Run("cumulative counts", func(t *testing.T) {
		counts, err := svc.CumulativeTradeCounts(ctx, batch.ID)
		require.NoError(t, err)
		require.Len(t, counts, 4)
		assert.Equal(t, 4, counts[3].TradeNumber)
	})
}

func TestAnalyticsServiceUnknownBatch(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAnalyticsService(env.cfg, env.log, env.batches, env.entries, env.cache)
	ctx := context.Background()

	_, err := svc.Summary(ctx, 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = svc.TradeLog(ctx, 42, 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
