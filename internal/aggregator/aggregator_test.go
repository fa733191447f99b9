package aggregator

import (
	"strconv"
	"testing"
	"time"

	"github.com/routerchain/routerchain/internal/costs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_SumsInputOutputPrecedence(t *testing.T) {
	msgs := []byte(`[
		{"role":"user","content":"hi"},
		{"role":"assistant","provider":"anthropic","model":"claude-sonnet-4-5",
		 "usage":{"input_tokens":100,"output_tokens":50}},
		{"role":"assistant","provider":"anthropic","model":"claude-sonnet-4-5",
		 "usage":{"prompt_tokens":20,"completion_tokens":10}}
	]`)

	res := Aggregate(msgs, "fallback", costs.Rate{}, nil)
	require.NotNil(t, res)
	assert.Equal(t, 120, res.InputTokens)
	assert.Equal(t, 60, res.OutputTokens)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", res.Model)
}

func TestAggregate_ThirdFieldPairVariant(t *testing.T) {
	msgs := []byte(`[{"role":"assistant","usage":{"input":5,"output":7}}]`)
	res := Aggregate(msgs, "fallback-model", costs.Rate{}, nil)
	require.NotNil(t, res)
	assert.Equal(t, 5, res.InputTokens)
	assert.Equal(t, 7, res.OutputTokens)
	assert.Equal(t, "fallback-model", res.Model)
}

func TestAggregate_NoQualifyingMessagesReturnsNil(t *testing.T) {
	msgs := []byte(`[{"role":"user","content":"hi"},{"role":"assistant","content":"no usage here"}]`)
	res := Aggregate(msgs, "fallback", costs.Rate{}, nil)
	assert.Nil(t, res)
}

func TestAggregate_UnknownUsageShapeSkipped(t *testing.T) {
	msgs := []byte(`[{"role":"assistant","usage":{"weird_field":3}}]`)
	res := Aggregate(msgs, "fallback", costs.Rate{}, nil)
	assert.Nil(t, res)
}

func TestAggregate_SinceCutoffExcludesOlder(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msgs := []byte(`[
		{"role":"assistant","timestamp":"2026-08-01T11:00:00Z","usage":{"input_tokens":10,"output_tokens":5}},
		{"role":"assistant","timestamp":"2026-08-01T13:00:00Z","usage":{"input_tokens":20,"output_tokens":10}}
	]`)

	res := Aggregate(msgs, "fallback", costs.Rate{}, &cutoff)
	require.NotNil(t, res)
	assert.Equal(t, 20, res.InputTokens)
	assert.Equal(t, 10, res.OutputTokens)
}

func TestAggregate_SinceCutoffExcludesMissingTimestamp(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msgs := []byte(`[{"role":"assistant","usage":{"input_tokens":10,"output_tokens":5}}]`)

	res := Aggregate(msgs, "fallback", costs.Rate{}, &cutoff)
	assert.Nil(t, res)
}

func TestAggregate_EpochMillisTimestampAccepted(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	after := cutoff.Add(time.Hour).UnixMilli()
	msgs := []byte(`[{"role":"assistant","timestamp":` + strconv.FormatInt(after, 10) + `,"usage":{"input_tokens":1,"output_tokens":1}}]`)

	res := Aggregate(msgs, "fallback", costs.Rate{}, &cutoff)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.InputTokens)
}

func TestAggregate_LocalModelContributesZeroCost(t *testing.T) {
	msgs := []byte(`[{"role":"assistant","provider":"ollama","model":"qwen3:8b",
		"usage":{"input_tokens":1000,"output_tokens":1000}}]`)
	res := Aggregate(msgs, "fallback", costs.Rate{InputPer1K: 1, OutputPer1K: 1}, nil)
	require.NotNil(t, res)
	assert.Equal(t, 0.0, res.Cost)
}

func TestAggregate_PrecomputedCostPreferred(t *testing.T) {
	msgs := []byte(`[{"role":"assistant","model":"claude-opus-4-6",
		"usage":{"input_tokens":1000,"output_tokens":1000,"cost":{"total":1.23}}}]`)
	res := Aggregate(msgs, "fallback", costs.Rate{}, nil)
	require.NotNil(t, res)
	assert.Equal(t, 1.23, res.Cost)
}

func TestAggregate_FallbackRateUsedWhenNoModel(t *testing.T) {
	msgs := []byte(`[{"role":"assistant","usage":{"input_tokens":1000,"output_tokens":1000}}]`)
	res := Aggregate(msgs, "fallback", costs.Rate{InputPer1K: 0.01, OutputPer1K: 0.02}, nil)
	require.NotNil(t, res)
	assert.InDelta(t, 0.03, res.Cost, 0.0000001)
}
