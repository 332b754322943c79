// Package risk sizes new positions against account buying power.
package risk

import "math"

// DefaultFraction is the share of buying power committed per trade.
const DefaultFraction = 0.05

// Shares returns the whole-share quantity to buy: floor of the buying-power
// fraction divided by price, never less than one share. Callers must supply a
// real price; a failed quote aborts the entry attempt before sizing.
func Shares(buyingPower, price, fraction float64) int {
	if price <= 0 {
		return 1
	}
	qty := int(math.Floor(buyingPower * fraction / price))
	if qty < 1 {
		qty = 1
	}
	return qty
}
