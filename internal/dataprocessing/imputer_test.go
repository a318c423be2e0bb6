package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictflow/pkg/contracts/domain"
)

func nums(values ...interface{}) []domain.Number {
	out := make([]domain.Number, len(values))
	for i, v := range values {
		if f, ok := v.(float64); ok {
			out[i] = domain.Some(f)
		}
	}
	return out
}

func TestImputer_Median(t *testing.T) {
	tests := []struct {
		name     string
		column   []domain.Number
		want     []domain.Number
		fill     float64
		filled   int
		reported bool
	}{
		{
			name:     "median of present values",
			column:   nums(1.0, 3.0, nil),
			want:     nums(1.0, 3.0, 2.0),
			fill:     2,
			filled:   1,
			reported: true,
		},
		{
			name:     "all missing falls back to zero",
			column:   nums(nil, nil),
			want:     nums(0.0, 0.0),
			fill:     0,
			filled:   2,
			reported: true,
		},
		{
			name:     "odd count median",
			column:   nums(5.0, nil, 1.0, 9.0),
			want:     nums(5.0, 5.0, 1.0, 9.0),
			fill:     5,
			filled:   1,
			reported: true,
		},
		{
			name:   "complete column untouched",
			column: nums(1.0, 2.0),
			want:   nums(1.0, 2.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := domain.Frame{Columns: []string{"c"}, Values: [][]domain.Number{tt.column}}
			before := append([]domain.Number(nil), tt.column...)

			got, reports := NewImputer(PolicyMedian).Impute(frame)

			assert.Equal(t, tt.want, got.Values[0])
			assert.Equal(t, before, frame.Values[0], "input must not be modified")
			if tt.reported {
				require.Len(t, reports, 1)
				assert.Equal(t, FillReport{Column: "c", Value: tt.fill, Filled: tt.filled}, reports[0])
			} else {
				assert.Empty(t, reports)
			}
		})
	}
}

func TestImputer_Idempotent(t *testing.T) {
	frame := domain.Frame{
		Columns: []string{"a", "b"},
		Values:  [][]domain.Number{nums(1.0, 3.0, nil), nums(nil, nil, nil)},
	}
	m := NewImputer(PolicyMedian)

	once, _ := m.Impute(frame)
	twice, reports := m.Impute(once)

	assert.Equal(t, once, twice)
	assert.Empty(t, reports)
	assert.False(t, twice.HasMissing())
}

func TestImputer_ZeroPolicy(t *testing.T) {
	frame := domain.Frame{Columns: []string{"a"}, Values: [][]domain.Number{nums(nil, 4.0)}}

	got, _ := NewImputer(PolicyZero).Impute(frame)
	assert.Equal(t, nums(0.0, 4.0), got.Values[0])

	custom := &Imputer{Policy: PolicyMedian, Fallback: 7}
	got, _ = custom.Impute(domain.Frame{Columns: []string{"a"}, Values: [][]domain.Number{nums(nil)}})
	assert.Equal(t, nums(7.0), got.Values[0])
}

func TestImputer_MeanPolicy(t *testing.T) {
	frame := domain.Frame{
		Columns: []string{"skewed", "empty"},
		Values:  [][]domain.Number{nums(1.0, 2.0, 9.0, nil), nums(nil)},
	}

	got, reports := NewImputer(PolicyMean).Impute(frame)
	assert.Equal(t, nums(1.0, 2.0, 9.0, 4.0), got.Values[0])
	assert.Equal(t, nums(0.0), got.Values[1])
	assert.Equal(t, []FillReport{
		{Column: "skewed", Value: 4, Filled: 1},
		{Column: "empty", Value: 0, Filled: 1},
	}, reports)
}

func TestParseImputePolicy(t *testing.T) {
	tests := []struct {
		name    string
		want    ImputePolicy
		wantErr bool
	}{
		{"", PolicyMedian, false},
		{"median", PolicyMedian, false},
		{" Mean ", PolicyMean, false},
		{"zero", PolicyZero, false},
		{"mode", PolicyMedian, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseImputePolicy(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.String())
		})
	}
}

func TestImputer_ImputeVector(t *testing.T) {
	got := NewImputer(PolicyZero).ImputeVector(nums(1.5, nil))
	assert.Equal(t, domain.FeatureVector{1.5, 0}, got)
}

func TestMedian(t *testing.T) {
	_, ok := Median(nil)
	assert.False(t, ok)

	m, ok := Median([]float64{4, 1, 3, 2})
	assert.True(t, ok)
	assert.Equal(t, 2.5, m)
}
