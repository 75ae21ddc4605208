package features

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StratLab/internal/domain/models"
	"StratLab/internal/repository"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	table models.RawTable
	err   error
}

func (s stubReader) Read(string) (models.RawTable, error) { return s.table, s.err }

func raw(rows ...[]interface{}) models.RawTable {
	return models.RawTable{Columns: []string{"Date", "Symbol", "Px"}, Rows: rows}
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeComputesReturns(t *testing.T) {
	table, err := Normalize(raw(
		[]interface{}{"2025-01-01", "XYZ", "100"},
		[]interface{}{"2025-01-02", "XYZ", "101"},
		[]interface{}{"2025-01-03", "XYZ", "102"},
	))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.InDelta(t, 0.01, table.Rows[0].Return, 1e-6)
	assert.InDelta(t, 0.0099, table.Rows[1].Return, 1e-6)
	assert.Equal(t, day(2), table.Rows[0].Date)
	assert.Equal(t, 102.0, table.Rows[1].Price)
	assert.Equal(t, 1, table.Stats.Symbols)
}

func TestNormalizeSingleObservationPerSymbol(t *testing.T) {
	table, err := Normalize(raw(
		[]interface{}{"2025-01-01", "AAA", "10"},
		[]interface{}{"2025-01-01", "BBB", "20"},
		[]interface{}{"2025-01-01", "CCC", "30"},
	))
	require.NoError(t, err)
	assert.True(t, table.Empty())
	assert.Equal(t, 3, table.Stats.RowsRead)
	assert.Zero(t, table.Stats.Symbols)
}

func TestNormalizeDropsUnresolvedRows(t *testing.T) {
	table, err := Normalize(raw(
		[]interface{}{"2025-01-01", "AAA", "10"},
		[]interface{}{"2025-01-02", "AAA", "abc"},
		[]interface{}{"not a date", "AAA", "11"},
		[]interface{}{"2025-01-03", "", "11"},
		[]interface{}{"2025-01-04", nil, "11"},
		[]interface{}{"2025-01-05", "AAA", "-3"},
		[]interface{}{"2025-01-06", "AAA", "nan"},
		[]interface{}{"2025-01-07", "AAA"},
		[]interface{}{"2025-01-08", "AAA", "11"},
	))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, day(8), table.Rows[0].Date)
	assert.InDelta(t, 0.1, table.Rows[0].Return, 1e-12)
	assert.Equal(t, 9, table.Stats.RowsRead)
	assert.Equal(t, 7, table.Stats.RowsRejected)
}

func TestNormalizeSortsBySymbolThenDate(t *testing.T) {
	table, err := Normalize(raw(
		[]interface{}{"2025-01-03", "BBB", "12"},
		[]interface{}{"2025-01-02", "AAA", "11"},
		[]interface{}{"2025-01-01", "BBB", "10"},
		[]interface{}{"2025-01-01", "AAA", "10"},
		[]interface{}{"2025-01-02", "BBB", "11"},
	))
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"AAA", "BBB"}, table.Symbols())
	assert.Equal(t, "AAA", table.Rows[0].Symbol)
	assert.Equal(t, day(2), table.Rows[1].Date)
	assert.Equal(t, day(3), table.Rows[2].Date)
	assert.InDelta(t, 12.0/11-1, table.Rows[2].Return, 1e-12)
}

func TestNormalizeColumnMatching(t *testing.T) {
	table, err := Normalize(models.RawTable{
		Columns: []string{"  date ", "Volume", "SYMBOL", " px"},
		Rows: [][]interface{}{
			{"2025-01-01", "1", "A", "1"},
			{"2025-01-02", "1", "A", "2"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.InDelta(t, 1.0, table.Rows[0].Return, 1e-12)
}

func TestNormalizeMissingColumn(t *testing.T) {
	_, err := Normalize(models.RawTable{Columns: []string{"Date", "Ticker", "Close"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMissingColumn)
	assert.Contains(t, err.Error(), "Symbol")
	assert.Contains(t, err.Error(), "Px")
}

func TestNormalizeEmpty(t *testing.T) {
	table, err := Normalize(models.RawTable{})
	require.NoError(t, err)
	assert.True(t, table.Empty())

	table, err = Normalize(raw())
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestNormalizeDuplicateDatesKeepLast(t *testing.T) {
	table, err := Normalize(raw(
		[]interface{}{"2025-01-01", "AAA", "10"},
		[]interface{}{"2025-01-02", "AAA", "50"},
		[]interface{}{"2025-01-02", "AAA", "11"},
	))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.InDelta(t, 0.1, table.Rows[0].Return, 1e-12)
	assert.Equal(t, 1, table.Stats.Duplicates)
}

func TestNormalizeTypedCells(t *testing.T) {
	table, err := Normalize(raw(
		[]interface{}{day(1), "AAA", 10.0},
		[]interface{}{day(2), "AAA", int64(12)},
		[]interface{}{"20250103", 42, float32(6)},
		[]interface{}{"20250104", 42, 9.0},
	))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"42", "AAA"}, table.Symbols())
	assert.InDelta(t, 0.5, table.Rows[0].Return, 1e-12)
	assert.InDelta(t, 0.2, table.Rows[1].Return, 1e-12)
}

func TestLoadAndCleanPropagatesReaderError(t *testing.T) {
	readErr := models.NewDataError("decode csv", "x.csv", errors.New("bad quote"))
	c := NewCleaner(stubReader{err: readErr}, nil)

	_, err := c.LoadAndClean("x.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSourceUnreadable)
}

func TestLoadAndCleanMissingColumnIsDataError(t *testing.T) {
	c := NewCleaner(stubReader{table: models.RawTable{Columns: []string{"a", "b"}}}, nil)

	_, err := c.LoadAndClean("x.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSourceUnreadable)
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestLoadAndCleanCSVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	content := "Date,Symbol,Px\n" +
		"2025-01-01,XYZ,100\n" +
		"2025-01-02,XYZ,101\n" +
		"2025-01-03,XYZ,102\n" +
		"2025-01-03,BAD,2025-01-01\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c := NewCleaner(repository.NewFileTableReader(), nil)
	table, err := c.LoadAndClean(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.InDelta(t, 0.01, table.Rows[0].Return, 1e-6)
	assert.Equal(t, 1, table.Stats.RowsRejected)
}

func TestLoadAndCleanParquetFile(t *testing.T) {
	type row struct {
		Date   time.Time `parquet:"Date,timestamp(nanosecond)"`
		Symbol string    `parquet:"Symbol"`
		Px     float64   `parquet:"Px"`
	}
	path := filepath.Join(t.TempDir(), "prices.parquet")
	d0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, parquet.WriteFile(path, []row{
		{Date: d0, Symbol: "XYZ", Px: 100},
		{Date: d0.AddDate(0, 0, 1), Symbol: "XYZ", Px: 101},
		{Date: d0.AddDate(0, 0, 2), Symbol: "XYZ", Px: 102.01},
	}))

	c := NewCleaner(repository.NewFileTableReader(), nil)
	table, err := c.LoadAndClean(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 3, table.Stats.RowsRead)
	assert.Zero(t, table.Stats.RowsRejected)
	assert.Equal(t, d0.AddDate(0, 0, 1), table.Rows[0].Date)
	assert.InDelta(t, 0.01, table.Rows[0].Return, 1e-9)
	assert.InDelta(t, 0.01, table.Rows[1].Return, 1e-9)
}

func TestLoadAndCleanMissingFile(t *testing.T) {
	c := NewCleaner(repository.NewFileTableReader(), nil)
	_, err := c.LoadAndClean(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSourceNotFound)
	assert.ErrorIs(t, err, models.ErrSourceUnreadable)
}
