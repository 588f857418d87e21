package model

import "time"

// Batch is a named portfolio: a set of instrument symbols, a starting capital
// and an optional start time. A nil StartTime means all history counts.
type Batch struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Name      string        `gorm:"not null" json:"name"`
	Capital   float64       `gorm:"not null" json:"capital"`
	StartTime *time.Time    `json:"start_time"`
	Symbols   []BatchSymbol `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"symbols"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Batch) TableName() string {
	return "batches"
}

type BatchSymbol struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	BatchID uint   `gorm:"not null;index;uniqueIndex:idx_batch_symbol" json:"batch_id"`
	Symbol  string `gorm:"not null;uniqueIndex:idx_batch_symbol" json:"symbol"`
}

func (BatchSymbol) TableName() string {
	return "batch_symbols"
}

// SymbolList returns the member symbols as plain strings.
func (b *Batch) SymbolList() []string {
	symbols := make([]string, 0, len(b.Symbols))
	for _, s := range b.Symbols {
		symbols = append(symbols, s.Symbol)
	}
	return symbols
}

// Covers reports whether a trade with the given symbol and entry time falls
// inside this batch's membership and start-time window.
func (b *Batch) Covers(symbol string, entryTime time.Time) bool {
	if b.StartTime != nil && entryTime.Before(*b.StartTime) {
		return false
	}
	for _, s := range b.Symbols {
		if s.Symbol == symbol {
			return true
		}
	}
	return false
}
