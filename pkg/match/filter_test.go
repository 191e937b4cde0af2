package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeleaf/jewelgen/pkg/design"
)

func record(mutate func(*design.Record)) *design.Record {
	rec := &design.Record{
		ID:          "design-1",
		Name:        "gold cuban chain",
		Material:    design.MaterialGold,
		JewelryType: design.TypeChain,
		ChainStyle:  design.StyleCuban,
		BatchID:     "batch_20260828_120000",
		CreatedAt:   time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(rec)
	}
	return rec
}

func TestAttributeFilter(t *testing.T) {
	tests := []struct {
		name   string
		cfg    FilterConfig
		mutate func(*design.Record)
		want   bool
	}{
		{
			name: "material match",
			cfg:  FilterConfig{Material: "gold"},
			want: true,
		},
		{
			name: "material mismatch",
			cfg:  FilterConfig{Material: "silver"},
			want: false,
		},
		{
			name: "type and batch match",
			cfg:  FilterConfig{JewelryType: "chain", Batch: "batch_20260828_120000"},
			want: true,
		},
		{
			name: "batch mismatch",
			cfg:  FilterConfig{Batch: "batch_other"},
			want: false,
		},
		{
			name:   "type mismatch",
			cfg:    FilterConfig{JewelryType: "ring"},
			mutate: func(r *design.Record) { r.JewelryType = design.TypePendant },
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewAttributeFilter(&tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Match(record(tt.mutate)))
		})
	}
}

func TestAttributeFilter_Validation(t *testing.T) {
	_, err := NewAttributeFilter(&FilterConfig{Material: "adamantium"})
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = NewAttributeFilter(&FilterConfig{JewelryType: "tiara"})
	require.ErrorIs(t, err, ErrInvalidFilter)

	// No constraints yields no filter.
	f, err := NewAttributeFilter(&FilterConfig{})
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestDateFilter(t *testing.T) {
	tests := []struct {
		name string
		cfg  DateFilterConfig
		want bool
	}{
		{"inside range", DateFilterConfig{After: "2026-08-01", Before: "2026-09-01"}, true},
		{"before range", DateFilterConfig{After: "2026-09-01"}, false},
		{"after range", DateFilterConfig{Before: "2026-08-01"}, false},
		{"inclusive after boundary", DateFilterConfig{After: "2026-08-28T12:00:00Z"}, true},
		{"exclusive before boundary", DateFilterConfig{Before: "2026-08-28T12:00:00Z"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewDateFilter(&tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Match(record(nil)))
		})
	}
}

func TestDateFilter_Validation(t *testing.T) {
	_, err := NewDateFilter(&DateFilterConfig{After: "someday"})
	require.ErrorIs(t, err, ErrInvalidDate)

	// Inverted range is rejected.
	_, err = NewDateFilter(&DateFilterConfig{After: "2026-09-01", Before: "2026-08-01"})
	require.ErrorIs(t, err, ErrInvalidDate)

	// Empty config yields no filter.
	f, err := NewDateFilter(&DateFilterConfig{})
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestRegexFilter(t *testing.T) {
	f, err := NewRegexFilter("^gold")
	require.NoError(t, err)
	assert.True(t, f.Match(record(nil)))
	assert.False(t, f.Match(record(func(r *design.Record) { r.Name = "silver ring" })))

	// Unnamed records match against the id.
	assert.False(t, f.Match(record(func(r *design.Record) { r.Name = "" })))
	idFilter, err := NewRegexFilter("^design-")
	require.NoError(t, err)
	assert.True(t, idFilter.Match(record(func(r *design.Record) { r.Name = "" })))

	_, err = NewRegexFilter("[unclosed")
	require.ErrorIs(t, err, ErrInvalidRegex)
}

func TestNewFilterFromConfig(t *testing.T) {
	f, err := NewFilterFromConfig(&FilterConfig{
		Material: "gold",
		Created:  &DateFilterConfig{After: "2026-08-01"},
	})
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Len(t, f.Filters(), 2)

	assert.True(t, f.Match(record(nil)))
	assert.False(t, f.Match(record(func(r *design.Record) { r.Material = design.MaterialSilver })))

	// Empty config compiles to nil, which matches everything.
	f, err = NewFilterFromConfig(&FilterConfig{})
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Match(record(nil)))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"date only", "2026-08-28", time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", "2026-08-28T10:30:00Z", time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC), false},
		{"with offset", "2026-08-28T10:30:00+05:00", time.Date(2026, 8, 28, 5, 30, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}
