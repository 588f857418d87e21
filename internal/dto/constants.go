package dto

const (
	SignalKindEntry = "entry"
	SignalKindExit  = "exit"

	ActionEntry = "entry"
	ActionExit  = "exit"
)
