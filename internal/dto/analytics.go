package dto

import (
	"time"
	"trading-signals/internal/model"
)

// BatchSummary holds the KPI roll-up for one batch, derived entirely from its
// log entries.
type BatchSummary struct {
	BatchID         uint                 `json:"batch_id"`
	TotalTrades     int64                `json:"total_trades"`
	WinningTrades   int64                `json:"winning_trades"`
	LosingTrades    int64                `json:"losing_trades"`
	BreakevenTrades int64                `json:"breakeven_trades"`
	AvgPnlPercent   float64              `json:"avg_pnl_percent"`
	BestPnlPercent  float64              `json:"best_pnl_percent"`
	WorstPnlPercent float64              `json:"worst_pnl_percent"`
	TotalPnl        float64              `json:"total_pnl"`
	Latest          *model.BatchLogEntry `json:"latest"`
}

type TradeLogPage struct {
	Entries []model.BatchLogEntry `json:"entries"`
	Page    int                   `json:"page"`
	Limit   int                   `json:"limit"`
	Total   int64                 `json:"total"`
}

type CapitalPoint struct {
	TradeNumber  int       `json:"trade_number"`
	ExitTime     time.Time `json:"exit_time"`
	CapitalAfter float64   `json:"capital_after"`
}

type DailyCapitalPoint struct {
	Date         time.Time `json:"date"`
	CapitalAfter float64   `json:"capital_after"`
	PnlAbsolute  float64   `json:"pnl_absolute"`
	Trades       int64     `json:"trades"`
}

type DailyTradeCount struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

type CumulativeTradeCount struct {
	ExitTime    time.Time `json:"exit_time"`
	TradeNumber int       `json:"trade_number"`
}

type SymbolBreakdown struct {
	Symbol        string  `json:"symbol"`
	Trades        int64   `json:"trades"`
	Wins          int64   `json:"wins"`
	Losses        int64   `json:"losses"`
	AvgPnlPercent float64 `json:"avg_pnl_percent"`
	TotalPnl      float64 `json:"total_pnl"`
}

type DrawdownPoint struct {
	TradeNumber int       `json:"trade_number"`
	ExitTime    time.Time `json:"exit_time"`
	Drawdown    float64   `json:"drawdown"`
	MaxDrawdown float64   `json:"max_drawdown"`
}
