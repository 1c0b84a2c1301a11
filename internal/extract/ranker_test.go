package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankEmpty(t *testing.T) {
	assert.Nil(t, Rank(nil, PolicyFirstMatch))
	assert.Nil(t, Rank([]RawMatch{}, PolicyWeighted))
}

func TestRankFirstMatch(t *testing.T) {
	candidates := []RawMatch{
		{Value: "a", RuleIndex: 0, Weight: 1.0},
		{Value: "b", RuleIndex: 0, Weight: 1.0},
		{Value: "c", RuleIndex: 2, Weight: 5.0},
	}
	best := Rank(candidates, PolicyFirstMatch)
	require.NotNil(t, best)
	assert.Equal(t, "a", best.Value)
}

func TestRankWeighted(t *testing.T) {
	candidates := []RawMatch{
		{Value: "a", RuleIndex: 0, Weight: 1.0},
		{Value: "b", RuleIndex: 1, Weight: 1.7},
		{Value: "c", RuleIndex: 2, Weight: 1.7},
	}
	best := Rank(candidates, PolicyWeighted)
	require.NotNil(t, best)
	// ties go to the lower rule index
	assert.Equal(t, "b", best.Value)
}

func TestRankMaxValue(t *testing.T) {
	candidates := []RawMatch{
		{Value: "150.00", RuleIndex: 0},
		{Value: "не число", RuleIndex: 0},
		{Value: "1 999,50", RuleIndex: 1},
	}
	best := Rank(candidates, PolicyMaxValue)
	require.NotNil(t, best)
	assert.Equal(t, "1 999,50", best.Value)

	// only unparseable candidates: nothing survives
	assert.Nil(t, Rank([]RawMatch{{Value: "abc"}}, PolicyMaxValue))
}

func TestMaxDecimalFallback(t *testing.T) {
	raw, ok := MaxDecimalFallback("a 150.00 b 1999.50 c 0.20", 1.0)
	require.True(t, ok)
	assert.Equal(t, "1999.50", raw)

	_, ok = MaxDecimalFallback("только 0.50 здесь", 1.0)
	assert.False(t, ok)

	_, ok = MaxDecimalFallback("без чисел", 1.0)
	assert.False(t, ok)
}
