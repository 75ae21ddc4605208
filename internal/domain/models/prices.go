package models

import "time"

// Column names of the canonical price table.
const (
	ColumnDate   = "Date"
	ColumnSymbol = "Symbol"
	ColumnPrice  = "Px"
	ColumnReturn = "Ret"
)

// RawTable is a tabular source decoded into untyped cells.
// Cells keep whatever type the decoder produced (string for delimited text,
// typed values for columnar sources, nil for missing).
type RawTable struct {
	Columns []string
	Rows    [][]interface{}
}

// PriceObservation is one resolved input row.
type PriceObservation struct {
	Date   time.Time
	Symbol string
	Price  float64
}

// ReturnObservation is a price observation with its period-over-period return.
type ReturnObservation struct {
	Date   time.Time
	Symbol string
	Price  float64
	Return float64
}

// LoadStats counts what happened while cleaning a source.
type LoadStats struct {
	RowsRead     int
	RowsRejected int
	Duplicates   int
	Symbols      int
}

// CleanedTable holds return observations ordered by (symbol, date).
// It is shared read-only by the risk and regression stages.
type CleanedTable struct {
	Rows  []ReturnObservation
	Stats LoadStats
}

// Len returns the number of return rows.
func (t CleanedTable) Len() int { return len(t.Rows) }

// Empty reports whether no return rows survived cleaning.
func (t CleanedTable) Empty() bool { return len(t.Rows) == 0 }

// Symbols returns distinct symbols in table order.
func (t CleanedTable) Symbols() []string {
	var out []string
	for i, r := range t.Rows {
		if i == 0 || r.Symbol != t.Rows[i-1].Symbol {
			out = append(out, r.Symbol)
		}
	}
	return out
}

// Groups splits the table into per-symbol copies of its rows.
func (t CleanedTable) Groups() map[string][]ReturnObservation {
	out := make(map[string][]ReturnObservation)
	start := 0
	for i := 1; i <= len(t.Rows); i++ {
		if i == len(t.Rows) || t.Rows[i].Symbol != t.Rows[start].Symbol {
			sym := t.Rows[start].Symbol
			out[sym] = append(out[sym], t.Rows[start:i]...)
			start = i
		}
	}
	return out
}

// DateRange returns the earliest and latest observation dates.
func (t CleanedTable) DateRange() (time.Time, time.Time, bool) {
	if len(t.Rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	lo, hi := t.Rows[0].Date, t.Rows[0].Date
	for _, r := range t.Rows[1:] {
		if r.Date.Before(lo) {
			lo = r.Date
		}
		if r.Date.After(hi) {
			hi = r.Date
		}
	}
	return lo, hi, true
}
