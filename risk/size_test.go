package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShares(t *testing.T) {
	tests := []struct {
		name        string
		buyingPower float64
		price       float64
		fraction    float64
		want        int
	}{
		{"spec scenario", 10000, 120, 0.05, 4}, // floor(500/120)
		{"exact division", 12000, 60, 0.05, 10},
		{"floors fractional shares", 10000, 333, 0.05, 1},
		{"minimum one share", 100, 500, 0.05, 1},
		{"zero buying power", 0, 100, 0.05, 1},
		{"large account", 1000000, 120.5, 0.05, 414},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shares(tt.buyingPower, tt.price, tt.fraction))
		})
	}
}

func TestShares_MonotonicInBuyingPower(t *testing.T) {
	prev := 0
	for bp := 1000.0; bp <= 100000; bp += 1000 {
		qty := Shares(bp, 120, DefaultFraction)
		assert.GreaterOrEqual(t, qty, prev, "buying power %.0f", bp)
		assert.GreaterOrEqual(t, qty, 1)
		prev = qty
	}
}
