package dto

import "trading-signals/internal/model"

// SignalRequest is the structured webhook shape. Price arrives as a numeric
// string, timestamp as ISO-8601; both are normalized by the parser.
type SignalRequest struct {
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Timeframe   string `json:"timeframe"`
	Type        string `json:"type"`
	Price       string `json:"price"`
	CloseOnFlip string `json:"closeonflip"`
	Timestamp   string `json:"timestamp"`
}

// SignalResult reports what a processed signal did.
type SignalResult struct {
	Action string       `json:"action"`
	Trade  *model.Trade `json:"trade"`
}

type GetTradesParam struct {
	Symbol string `query:"symbol"`
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}
