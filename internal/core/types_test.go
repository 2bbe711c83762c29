package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRelevance(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{name: "zero", value: 0},
		{name: "one", value: 1},
		{name: "middle", value: 0.42},
		{name: "negative", value: -0.1, wantErr: true},
		{name: "above_one", value: 1.1, wantErr: true},
		{name: "nan", value: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelevance(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseItemType(t *testing.T) {
	for _, it := range ItemTypes {
		got, err := ParseItemType(string(it))
		require.NoError(t, err)
		assert.Equal(t, it, got)
	}

	_, err := ParseItemType("image")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestNewItem_Validate(t *testing.T) {
	assert.NoError(t, NewItem{Type: ItemTypeCode, Relevance: 0.3}.Validate())
	assert.Error(t, NewItem{Type: "bogus", Relevance: 0.3}.Validate())
	assert.Error(t, NewItem{Type: ItemTypeCode, Relevance: 2}.Validate())
}

func TestRetrieveOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    RetrieveOptions
		wantErr bool
	}{
		{name: "zero_value", opts: RetrieveOptions{}},
		{name: "full", opts: RetrieveOptions{
			MaxItems:     3,
			IncludeTypes: []ItemType{ItemTypeCode},
			ExcludeTypes: []ItemType{ItemTypeProject},
			MinRelevance: 0.2,
			MaxAge:       time.Minute,
			Where:        map[string]string{"language": "go"},
		}},
		{name: "negative_max_items", opts: RetrieveOptions{MaxItems: -1}, wantErr: true},
		{name: "negative_max_age", opts: RetrieveOptions{MaxAge: -time.Second}, wantErr: true},
		{name: "min_relevance_out_of_range", opts: RetrieveOptions{MinRelevance: 1.5}, wantErr: true},
		{name: "unknown_include", opts: RetrieveOptions{IncludeTypes: []ItemType{"x"}}, wantErr: true},
		{name: "unknown_exclude", opts: RetrieveOptions{ExcludeTypes: []ItemType{"y"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestPruneOptions(t *testing.T) {
	low := 0.2
	bad := -1.0

	assert.False(t, PruneOptions{}.HasThresholds())
	assert.True(t, PruneOptions{MinAge: time.Second}.HasThresholds())
	assert.True(t, PruneOptions{MaxRelevance: &low}.HasThresholds())

	assert.NoError(t, PruneOptions{MaxRelevance: &low}.Validate())
	assert.Error(t, PruneOptions{MaxRelevance: &bad}.Validate())
	assert.Error(t, PruneOptions{MinAge: -time.Second}.Validate())
}

func TestContextItem_CloneIsolatesMetadata(t *testing.T) {
	orig := ContextItem{ID: "a", Metadata: map[string]string{"k": "v"}}
	cp := orig.Clone()
	cp.Metadata["k"] = "changed"

	assert.Equal(t, "v", orig.Metadata["k"])
	assert.Nil(t, ContextItem{}.Clone().Metadata)
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("boom")

	sumErr := error(&SummarizationError{SessionID: "s1", Cause: cause})
	assert.True(t, IsSummarization(sumErr))
	assert.ErrorIs(t, sumErr, cause)
	assert.Contains(t, sumErr.Error(), "s1")

	warn := &DegradedRetrievalWarning{SessionID: "s1", Cause: cause}
	assert.ErrorIs(t, warn, cause)

	wrapped := errors.Join(errors.New("outer"), SessionNotFound("s2"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, `item "i1" not found`, ItemNotFound("i1").Error())
}
