package dto

// CreateBatchRequest creates a batch. Capital defaults to the configured
// starting capital when omitted; StartTime is ISO-8601 or absent for all
// history.
type CreateBatchRequest struct {
	Name      string   `json:"name" validate:"required"`
	Capital   *float64 `json:"capital" validate:"omitempty,gt=0"`
	StartTime *string  `json:"start_time"`
	Symbols   []string `json:"symbols"`
}

// UpdateBatchRequest patches a batch. Nil fields are untouched; an empty
// StartTime string clears the start time.
type UpdateBatchRequest struct {
	Name      *string  `json:"name"`
	Capital   *float64 `json:"capital" validate:"omitempty,gt=0"`
	StartTime *string  `json:"start_time"`
}

type ReplaceSymbolsRequest struct {
	Symbols []string `json:"symbols" validate:"required"`
}

type AddSymbolRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}
