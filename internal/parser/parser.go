// Package parser normalizes inbound alerts into canonical signals. Two shapes
// are accepted: a structured webhook body and a fixed order-fill sentence.
// Parsing never touches storage.
package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"trading-signals/internal/apperrors"
	"trading-signals/internal/dto"
	"trading-signals/internal/model"
)

// Signal is the canonical form every accepted alert is reduced to. Direction
// and Kind may be empty when the source did not state them; the ledger applies
// its own defaults.
type Signal struct {
	Symbol      string
	Direction   string
	Timeframe   string
	Kind        string
	Price       float64
	Timestamp   *time.Time
	CloseOnFlip bool
	RawText     string
	Payload     json.RawMessage
}

// Text template:
//
//	{buy|sell} {qty} @ {price} on {symbol} ({timestamp}). Position: {posQty} @ avg {avgPrice}. Order ID: {orderId}
var textAlertRe = regexp.MustCompile(`^(buy|sell) (-?[0-9.]+) @ ([0-9.]+) on (\S+) \((.+)\)\. Position: (-?[0-9.]+) @ avg ([0-9.]+)\. Order ID: (.+)$`)

var textTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseStructured validates and normalizes the structured webhook shape.
// Missing symbol or price is a validation failure; nothing is guessed.
func ParseStructured(req dto.SignalRequest) (*Signal, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, apperrors.NewValidationError("signal symbol is required")
	}
	if strings.TrimSpace(req.Price) == "" {
		return nil, apperrors.NewValidationError("signal price is required")
	}

	price, err := strconv.ParseFloat(req.Price, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("signal price is not numeric")
	}

	sig := &Signal{
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Direction:   strings.ToLower(strings.TrimSpace(req.Side)),
		Timeframe:   req.Timeframe,
		Kind:        strings.ToLower(strings.TrimSpace(req.Type)),
		Price:       price,
		CloseOnFlip: strings.EqualFold(req.CloseOnFlip, "true"),
	}

	if req.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return nil, apperrors.NewValidationError("signal timestamp is not ISO-8601")
		}
		sig.Timestamp = &ts
	}

	payload, _ := json.Marshal(req)
	sig.Payload = payload
	return sig, nil
}

// ParseText parses the fixed order-fill sentence. Kind and direction are
// derived from the remaining position: a flat position means the fill closed a
// trade, a non-flat one means it opened one, with its sign giving the side.
func ParseText(raw string) (*Signal, error) {
	text := strings.TrimSpace(raw)
	m := textAlertRe.FindStringSubmatch(text)
	if m == nil {
		return nil, apperrors.NewParseError("alert text does not match the expected template")
	}

	action := m[1]
	price, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return nil, apperrors.NewParseError("alert price is not numeric")
	}
	posQty, err := strconv.ParseFloat(m[6], 64)
	if err != nil {
		return nil, apperrors.NewParseError("alert position quantity is not numeric")
	}

	ts, err := parseTextTimestamp(m[5])
	if err != nil {
		return nil, apperrors.NewParseError("alert timestamp is not parseable")
	}

	kind := dto.SignalKindEntry
	if posQty == 0 {
		kind = dto.SignalKindExit
	}

	var direction string
	switch {
	case kind == dto.SignalKindEntry && posQty > 0:
		direction = model.DirectionBullish
	case kind == dto.SignalKindEntry && posQty < 0:
		direction = model.DirectionBearish
	case kind == dto.SignalKindExit && action == "buy":
		direction = model.DirectionBullish
	case kind == dto.SignalKindExit && action == "sell":
		direction = model.DirectionBearish
	}

	payload, _ := json.Marshal(map[string]string{
		"text":     text,
		"order_id": m[8],
	})

	return &Signal{
		Symbol:    strings.ToUpper(m[4]),
		Direction: direction,
		Kind:      kind,
		Price:     price,
		Timestamp: &ts,
		RawText:   text,
		Payload:   payload,
	}, nil
}

func parseTextTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range textTimeLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
