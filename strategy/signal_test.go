package strategy

import (
	"math"
	"testing"

	"github.com/rustyeddy/trendbot/indicators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_AllConditionsPass(t *testing.T) {
	curr := indicators.Row{RSI: 62, RSIMA: 58, ROC: 3.1}
	prev := indicators.Row{RSI: 55}

	dec := Evaluate(curr, prev, 50)
	assert.True(t, dec.Enter)
	require.Len(t, dec.Conditions, 4)
	for _, c := range dec.Conditions {
		assert.True(t, c.Pass, "condition %s", c.Name)
	}
}

func TestEvaluate_SingleConditionFailures(t *testing.T) {
	base := indicators.Row{RSI: 62, RSIMA: 58, ROC: 3.1}
	prevBase := indicators.Row{RSI: 55}

	tests := []struct {
		name string
		curr indicators.Row
		prev indicators.Row
	}{
		{
			name: "rsi below threshold",
			curr: indicators.Row{RSI: 48, RSIMA: 40, ROC: 3.1},
			prev: indicators.Row{RSI: 45},
		},
		{
			name: "rsi below moving average",
			curr: indicators.Row{RSI: 62, RSIMA: 65, ROC: 3.1},
			prev: prevBase,
		},
		{
			name: "rsi not rising",
			curr: base,
			prev: indicators.Row{RSI: 62},
		},
		{
			name: "roc non-positive",
			curr: indicators.Row{RSI: 62, RSIMA: 58, ROC: 0},
			prev: prevBase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := Evaluate(tt.curr, tt.prev, 50)
			assert.False(t, dec.Enter)
			assert.Len(t, dec.Conditions, 4)
		})
	}
}

func TestEvaluate_UndefinedInputs(t *testing.T) {
	nan := math.NaN()
	good := indicators.Row{RSI: 62, RSIMA: 58, ROC: 3.1}

	tests := []struct {
		name string
		curr indicators.Row
		prev indicators.Row
	}{
		{"undefined rsi", indicators.Row{RSI: nan, RSIMA: 58, ROC: 3}, indicators.Row{RSI: 55}},
		{"undefined ma", indicators.Row{RSI: 62, RSIMA: nan, ROC: 3}, indicators.Row{RSI: 55}},
		{"undefined roc", indicators.Row{RSI: 62, RSIMA: 58, ROC: nan}, indicators.Row{RSI: 55}},
		{"undefined prev rsi", good, indicators.Row{RSI: nan}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := Evaluate(tt.curr, tt.prev, 50)
			assert.False(t, dec.Enter)
			assert.Empty(t, dec.Conditions)
			assert.Equal(t, "insufficient indicator history", dec.Reason())
		})
	}
}

func TestEvaluateSet_TooFewRows(t *testing.T) {
	dec := EvaluateSet(indicators.Set{RSI: []float64{60}, RSIMA: []float64{55}, ROC: []float64{1}}, 50)
	assert.False(t, dec.Enter)

	dec = EvaluateSet(indicators.Set{}, 50)
	assert.False(t, dec.Enter)
}

func TestDecision_Reason(t *testing.T) {
	dec := Evaluate(indicators.Row{RSI: 62, RSIMA: 58, ROC: 3.1}, indicators.Row{RSI: 55}, 50)
	r := dec.Reason()
	assert.Contains(t, r, "rsi>threshold")
	assert.Contains(t, r, "roc>0")
	assert.Contains(t, r, "ok")
}
