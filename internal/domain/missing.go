package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// MissingnessRow is one variable's null census over a series.
type MissingnessRow struct {
	Variable  VariableID
	NullCount int
	NullPct   float64
}

// MissingnessReport counts null values per variable across every row of
// the series. Rows whose timestamp failed to parse count as null for every
// variable: they are invisible to analysis, so their values are as good as
// missing. NullPct is NullCount over the total row count (null-timestamp
// rows included) times 100. Rows come back sorted by NullCount descending,
// ties by VariableID ascending.
func MissingnessReport(series *TimeSeries, vars []VariableID) ([]MissingnessRow, error) {
	total := series.Len()
	if total == 0 {
		return nil, fmt.Errorf("missingness: %w", ErrEmptyInput)
	}

	rows := make([]MissingnessRow, 0, len(vars))
	for _, id := range vars {
		count := 0
		for i := 0; i < total; i++ {
			o := series.At(i)
			if o.Timestamp == nil || o.Values[id] == nil {
				count++
			}
		}
		rows = append(rows, MissingnessRow{
			Variable:  id,
			NullCount: count,
			NullPct:   float64(count) / float64(total) * 100,
		})
	}
	slices.SortStableFunc(rows, func(a, b MissingnessRow) int {
		if c := cmp.Compare(b.NullCount, a.NullCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Variable, b.Variable)
	})
	return rows, nil
}
