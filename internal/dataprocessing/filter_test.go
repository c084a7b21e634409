package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kpidash/pkg/contracts/domain"
)

func sampleTable() []domain.ProductionRecord {
	return []domain.ProductionRecord{
		{Date: day("2024-01-01"), Shift: "A", Machine: "M1", Output: 500, Defects: 10, DowntimeMinutes: 30},
		{Date: day("2024-01-01"), Shift: "B", Machine: "M2", Output: 480, Defects: 8, DowntimeMinutes: 20},
		{Date: day("2024-01-02"), Shift: "A", Machine: "M2", Output: 450, Defects: 5, DowntimeMinutes: 0},
		{Date: day("2024-01-03"), Shift: "C", Machine: "M1", Output: 300, Defects: 12, DowntimeMinutes: 60},
	}
}

func TestFilter(t *testing.T) {
	table := sampleTable()

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		want     []int
	}{
		{"no predicates", domain.FilterCriteria{}, []int{0, 1, 2, 3}},
		{"all wildcards", domain.FilterCriteria{Machine: domain.AllOption, Shift: domain.AllOption}, []int{0, 1, 2, 3}},
		{"inclusive single day", domain.FilterCriteria{Start: day("2024-01-01"), End: day("2024-01-01")}, []int{0, 1}},
		{"open start", domain.FilterCriteria{End: day("2024-01-02")}, []int{0, 1, 2}},
		{"open end", domain.FilterCriteria{Start: day("2024-01-02")}, []int{2, 3}},
		{"machine", domain.FilterCriteria{Machine: "M1"}, []int{0, 3}},
		{"machine and shift", domain.FilterCriteria{Machine: "M2", Shift: "A"}, []int{2}},
		{"unknown machine", domain.FilterCriteria{Machine: "M9"}, []int{}},
		{"inverted range", domain.FilterCriteria{Start: day("2024-01-03"), End: day("2024-01-01")}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(table, tt.criteria)
			assert.NotNil(t, got)
			want := make([]domain.ProductionRecord, 0, len(tt.want))
			for _, i := range tt.want {
				want = append(want, table[i])
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestFilter_Properties(t *testing.T) {
	table := sampleTable()

	t.Run("idempotent", func(t *testing.T) {
		c := domain.FilterCriteria{Start: day("2024-01-01"), Machine: "M2"}
		once := Filter(table, c)
		assert.Equal(t, once, Filter(once, c))
	})

	t.Run("subset of input", func(t *testing.T) {
		got := Filter(table, domain.FilterCriteria{Shift: "A"})
		assert.LessOrEqual(t, len(got), len(table))
		for _, r := range got {
			assert.Contains(t, table, r)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got := Filter(nil, domain.FilterCriteria{Machine: "M1"})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("input untouched", func(t *testing.T) {
		before := sampleTable()
		Filter(table, domain.FilterCriteria{Machine: "M1"})
		assert.Equal(t, before, table)
	})
}

func TestOptions(t *testing.T) {
	opts, ok := Options(sampleTable())
	assert.True(t, ok)
	assert.Equal(t, day("2024-01-01"), opts.MinDate)
	assert.Equal(t, day("2024-01-03"), opts.MaxDate)
	assert.Equal(t, []string{"M1", "M2"}, opts.Machines)
	assert.Equal(t, []string{"A", "B", "C"}, opts.Shifts)

	empty, ok := Options(nil)
	assert.False(t, ok)
	assert.Empty(t, empty.Machines)
	assert.Empty(t, empty.Shifts)
	assert.True(t, empty.MinDate.Equal(time.Time{}))
}

func TestIsAll(t *testing.T) {
	assert.True(t, IsAll(""))
	assert.True(t, IsAll(domain.AllOption))
	assert.False(t, IsAll("all"))
	assert.False(t, IsAll("M1"))
}
