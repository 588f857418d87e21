package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"

	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
)

// Trade is one matched (or still open) position in one instrument. A trade is
// created open by an entry signal and closed exactly once by an exit signal,
// after which exit fields and PnlPercent never change.
type Trade struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Symbol       string         `gorm:"not null;index" json:"symbol"`
	Timeframe    string         `json:"timeframe"`
	Direction    string         `gorm:"not null" json:"direction"`
	Status       string         `gorm:"not null;index" json:"status"`
	EntryPrice   float64        `gorm:"not null" json:"entry_price"`
	EntryTime    time.Time      `gorm:"not null;index" json:"entry_time"`
	ExitPrice    *float64       `json:"exit_price"`
	ExitTime     *time.Time     `gorm:"index" json:"exit_time"`
	PnlPercent   *float64       `json:"pnl_percent"`
	EntryPayload datatypes.JSON `gorm:"type:jsonb" json:"entry_payload"`
	ExitPayload  datatypes.JSON `gorm:"type:jsonb" json:"exit_payload"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Trade) TableName() string {
	return "trades"
}

func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}
