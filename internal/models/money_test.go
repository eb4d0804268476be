package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidMoney(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"10", true},
		{"10.5", true},
		{"10.50", true},
		{"10.500", true},
		{"0.01", true},
		{"999999999999.99", true},
		{"0.001", false},
		{"10.005", false},
		{"1000000000000", false},
		{"-1000000000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			if got := ValidMoney(decimal.RequireFromString(tt.amount)); got != tt.want {
				t.Errorf("ValidMoney(%s) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}
