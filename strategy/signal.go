// Package strategy evaluates the entry signal from the computed indicators.
package strategy

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/trendbot/indicators"
)

// Condition is one sub-check of the entry decision, kept for diagnostics.
type Condition struct {
	Name  string
	Value float64
	Bound float64
	Pass  bool
}

// Decision is the outcome of a signal evaluation.
type Decision struct {
	Enter      bool
	Conditions []Condition
}

// Reason renders the decision for the log: each condition with its values
// and verdict, or the insufficient-history marker.
func (d Decision) Reason() string {
	if len(d.Conditions) == 0 {
		return "insufficient indicator history"
	}
	parts := make([]string, 0, len(d.Conditions))
	for _, c := range d.Conditions {
		verdict := "fail"
		if c.Pass {
			verdict = "ok"
		}
		parts = append(parts, fmt.Sprintf("%s %.2f>%.2f %s", c.Name, c.Value, c.Bound, verdict))
	}
	return strings.Join(parts, ", ")
}

// Evaluate applies the four-condition entry check to the latest two indicator
// rows. All conditions must pass:
//
//	RSI above the threshold, RSI above its moving average, RSI above the
//	previous RSI, and positive rate-of-change.
//
// Any undefined input (warm-up window) yields a non-entry decision.
func Evaluate(curr, prev indicators.Row, threshold float64) Decision {
	if !indicators.Defined(curr.RSI) || !indicators.Defined(curr.RSIMA) ||
		!indicators.Defined(curr.ROC) || !indicators.Defined(prev.RSI) {
		return Decision{}
	}

	conditions := []Condition{
		{Name: "rsi>threshold", Value: curr.RSI, Bound: threshold, Pass: curr.RSI > threshold},
		{Name: "rsi>ma", Value: curr.RSI, Bound: curr.RSIMA, Pass: curr.RSI > curr.RSIMA},
		{Name: "rsi rising", Value: curr.RSI, Bound: prev.RSI, Pass: curr.RSI > prev.RSI},
		{Name: "roc>0", Value: curr.ROC, Bound: 0, Pass: curr.ROC > 0},
	}

	enter := true
	for _, c := range conditions {
		enter = enter && c.Pass
	}
	return Decision{Enter: enter, Conditions: conditions}
}

// EvaluateSet runs Evaluate against the last two rows of a computed set.
// Fewer than two rows is a non-entry decision.
func EvaluateSet(set indicators.Set, threshold float64) Decision {
	curr, prev, ok := set.Last()
	if !ok {
		return Decision{}
	}
	return Evaluate(curr, prev, threshold)
}
