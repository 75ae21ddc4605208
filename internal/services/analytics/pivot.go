package analytics

import (
	"sort"
	"time"

	"StratLab/internal/domain/models"
	"StratLab/pkg/util"
)

// WideTable is a date by symbol return matrix restricted to dates on which
// every symbol has a valid return.
type WideTable struct {
	Columns    []string
	Dates      []time.Time
	Values     [][]float64 // Values[col][row]
	DatesTotal int
}

// Column returns the aligned series of sym.
func (w WideTable) Column(sym string) ([]float64, bool) {
	for i, c := range w.Columns {
		if c == sym {
			return w.Values[i], true
		}
	}
	return nil, false
}

// Rows is the number of aligned dates.
func (w WideTable) Rows() int { return len(w.Dates) }

// PivotAligned pivots table into one column per symbol (sorted) and keeps
// only dates where every column has a finite cell.
func PivotAligned(table models.CleanedTable) WideTable {
	cells := make(map[string]map[time.Time]interface{})
	dateSet := make(map[time.Time]struct{})
	for _, r := range table.Rows {
		col, ok := cells[r.Symbol]
		if !ok {
			col = make(map[time.Time]interface{})
			cells[r.Symbol] = col
		}
		col[r.Date] = r.Return
		dateSet[r.Date] = struct{}{}
	}

	columns := make([]string, 0, len(cells))
	for sym := range cells {
		columns = append(columns, sym)
	}
	sort.Strings(columns)

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	wide := WideTable{
		Columns:    columns,
		Values:     make([][]float64, len(columns)),
		DatesTotal: len(dates),
	}
	row := make([]float64, len(columns))
	for _, d := range dates {
		complete := true
		for i, sym := range columns {
			f, ok := util.CoerceFinite(cells[sym][d])
			if !ok {
				complete = false
				break
			}
			row[i] = f
		}
		if !complete {
			continue
		}
		wide.Dates = append(wide.Dates, d)
		for i := range columns {
			wide.Values[i] = append(wide.Values[i], row[i])
		}
	}
	return wide
}
