package utils

import "math"

func ToPointer[T any](value T) *T {
	return &value
}

// RoundPercent rounds percentage values to 4 decimal places.
func RoundPercent(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// RoundCurrency rounds currency amounts to 2 decimal places.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}

// ContainsString checks if a slice of strings contains a specific string.
func ContainsString(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}
