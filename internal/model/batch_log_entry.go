package model

import "time"

// BatchLogEntry is one row of a batch's running-totals history: the state of
// the batch immediately after its Nth matched trade closed, ordered by exit
// time. The whole sequence is a deterministic function of the batch definition
// and the closed trades it covers, so it can always be rebuilt from scratch.
type BatchLogEntry struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	BatchID uint `gorm:"not null;index;uniqueIndex:idx_batch_trade" json:"batch_id"`
	TradeID uint `gorm:"not null;uniqueIndex:idx_batch_trade" json:"trade_id"`

	// trade facts copied forward at close time
	Symbol     string    `gorm:"not null" json:"symbol"`
	Direction  string    `gorm:"not null" json:"direction"`
	EntryPrice float64   `gorm:"not null" json:"entry_price"`
	ExitPrice  float64   `gorm:"not null" json:"exit_price"`
	EntryTime  time.Time `gorm:"not null" json:"entry_time"`
	ExitTime   time.Time `gorm:"not null;index" json:"exit_time"`
	PnlPercent float64   `gorm:"not null" json:"pnl_percent"`

	// derived running state
	PnlAbsolute   float64 `gorm:"not null" json:"pnl_absolute"`
	CapitalBefore float64 `gorm:"not null" json:"capital_before"`
	CapitalAfter  float64 `gorm:"not null" json:"capital_after"`
	CumulativePnl float64 `gorm:"not null" json:"cumulative_pnl"`
	Drawdown      float64 `gorm:"not null" json:"drawdown"`
	MaxDrawdown   float64 `gorm:"not null" json:"max_drawdown"`
	PeakCapital   float64 `gorm:"not null" json:"peak_capital"`
	TradeNumber   int     `gorm:"not null" json:"trade_number"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BatchLogEntry) TableName() string {
	return "batch_log_entries"
}
