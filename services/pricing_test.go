package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spread-trader/interfaces"
)

func TestGetOptionPrice(t *testing.T) {
	tests := []struct {
		name       string
		quote      *interfaces.Quote
		wantPrice  *float64
		wantMethod string
	}{
		{
			name:       "nil quote",
			quote:      nil,
			wantPrice:  nil,
			wantMethod: PriceMethodNone,
		},
		{
			name:       "mid from bid and ask",
			quote:      &interfaces.Quote{Bid: floatPtr(1.0), Ask: floatPtr(1.2), Last: floatPtr(5.0)},
			wantPrice:  floatPtr(1.1),
			wantMethod: PriceMethodMid,
		},
		{
			name:       "last fallback when bid missing",
			quote:      &interfaces.Quote{Ask: floatPtr(1.2), Last: floatPtr(1.15)},
			wantPrice:  floatPtr(1.15),
			wantMethod: PriceMethodLast,
		},
		{
			name:       "nothing usable",
			quote:      &interfaces.Quote{},
			wantPrice:  nil,
			wantMethod: PriceMethodNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetOptionPrice(tt.quote)

			assert.Equal(t, tt.wantMethod, result.Method)
			if tt.wantPrice == nil {
				assert.Nil(t, result.Price)
			} else {
				require.NotNil(t, result.Price)
				assert.InDelta(t, *tt.wantPrice, *result.Price, 1e-9)
			}
		})
	}
}

func TestPriceResultFallbackUsed(t *testing.T) {
	assert.True(t, PriceResult{Method: PriceMethodLast}.FallbackUsed())
	assert.False(t, PriceResult{Method: PriceMethodMid}.FallbackUsed())
}

func TestGetSpreadValue(t *testing.T) {
	value := GetSpreadValue(floatPtr(2.05), floatPtr(0.325))
	require.NotNil(t, value)
	assert.InDelta(t, 1.725, *value, 1e-9)

	assert.Nil(t, GetSpreadValue(nil, floatPtr(0.3)))
	assert.Nil(t, GetSpreadValue(floatPtr(2.0), nil))
}

func TestCalculatePL(t *testing.T) {
	// Credit 1.00, spread now 0.40, two contracts.
	assert.InDelta(t, 120.0, CalculatePL(1.0, 0.4, 2), 1e-9)

	// A widened spread is a loss.
	assert.InDelta(t, -150.0, CalculatePL(1.0, 2.5, 1), 1e-9)
}
