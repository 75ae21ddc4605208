package features

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"StratLab/internal/domain/models"
	"StratLab/internal/domain/repository"
	"StratLab/pkg/logger"
	"StratLab/pkg/util"

	"github.com/spf13/cast"
)

// Cleaner loads a price source and turns it into a CleanedTable.
type Cleaner struct {
	reader repository.TableReader
	logger *logger.Logger
}

// NewCleaner creates a Cleaner reading through reader.
func NewCleaner(reader repository.TableReader, lgr *logger.Logger) *Cleaner {
	return &Cleaner{reader: reader, logger: logger.OrNop(lgr)}
}

// LoadAndClean reads source and normalizes it. Only an unreadable source
// is an error; bad rows are dropped and an empty source gives an empty table.
func (c *Cleaner) LoadAndClean(source string) (models.CleanedTable, error) {
	raw, err := c.reader.Read(source)
	if err != nil {
		return models.CleanedTable{}, err
	}

	table, err := Normalize(raw)
	if err != nil {
		return models.CleanedTable{}, models.NewDataError("normalize", source, err)
	}

	c.logger.Debug("source cleaned",
		logger.String("source", source),
		logger.Int("rows_read", table.Stats.RowsRead),
		logger.Int("rows_rejected", table.Stats.RowsRejected),
		logger.Int("duplicates", table.Stats.Duplicates),
		logger.Int("returns", table.Len()),
		logger.Int("symbols", table.Stats.Symbols))

	return table, nil
}

type columnIndex struct {
	date, symbol, price int
}

// Normalize resolves the Date/Symbol/Px columns of raw, drops unresolved
// rows, sorts by (symbol, date) and derives per-symbol returns.
// Duplicate (symbol, date) rows keep the last one in source order.
func Normalize(raw models.RawTable) (models.CleanedTable, error) {
	if len(raw.Columns) == 0 && len(raw.Rows) == 0 {
		return models.CleanedTable{}, nil
	}

	idx, err := resolveColumns(raw.Columns)
	if err != nil {
		return models.CleanedTable{}, err
	}

	stats := models.LoadStats{RowsRead: len(raw.Rows)}
	obs := make([]models.PriceObservation, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		p, ok := resolveRow(row, idx)
		if !ok {
			stats.RowsRejected++
			continue
		}
		obs = append(obs, p)
	}

	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Symbol != obs[j].Symbol {
			return obs[i].Symbol < obs[j].Symbol
		}
		return obs[i].Date.Before(obs[j].Date)
	})
	obs, stats.Duplicates = dropDuplicateDates(obs)

	var rows []models.ReturnObservation
	for start := 0; start < len(obs); {
		end := start + 1
		for end < len(obs) && obs[end].Symbol == obs[start].Symbol {
			end++
		}
		rets := ComputeSimpleReturns(obs[start:end])
		if len(rets) > 0 {
			stats.Symbols++
			rows = append(rows, rets...)
		}
		start = end
	}

	return models.CleanedTable{Rows: rows, Stats: stats}, nil
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

func resolveColumns(columns []string) (columnIndex, error) {
	idx := columnIndex{date: -1, symbol: -1, price: -1}
	want := map[string]*int{
		normalizeColumnName(models.ColumnDate):   &idx.date,
		normalizeColumnName(models.ColumnSymbol): &idx.symbol,
		normalizeColumnName(models.ColumnPrice):  &idx.price,
	}
	for i, col := range columns {
		if p, ok := want[normalizeColumnName(col)]; ok && *p < 0 {
			*p = i
		}
	}

	var missing []string
	if idx.date < 0 {
		missing = append(missing, models.ColumnDate)
	}
	if idx.symbol < 0 {
		missing = append(missing, models.ColumnSymbol)
	}
	if idx.price < 0 {
		missing = append(missing, models.ColumnPrice)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s", models.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func resolveRow(row []interface{}, idx columnIndex) (models.PriceObservation, bool) {
	cell := func(i int) interface{} {
		if i < len(row) {
			return row[i]
		}
		return nil
	}

	symbol, ok := resolveSymbol(cell(idx.symbol))
	if !ok {
		return models.PriceObservation{}, false
	}
	price, ok := util.ParseNumber(cell(idx.price))
	if !ok || !util.IsFinite(price) || price <= 0 {
		return models.PriceObservation{}, false
	}
	date, ok := resolveDate(cell(idx.date))
	if !ok {
		return models.PriceObservation{}, false
	}

	return models.PriceObservation{Date: date, Symbol: symbol, Price: price}, true
}

func resolveSymbol(v interface{}) (string, bool) {
	if v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func resolveDate(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case string:
		return util.ParseDate(x)
	default:
		s, err := cast.ToStringE(x)
		if err != nil {
			return time.Time{}, false
		}
		return util.ParseDate(s)
	}
}

func dropDuplicateDates(obs []models.PriceObservation) ([]models.PriceObservation, int) {
	if len(obs) < 2 {
		return obs, 0
	}
	out := obs[:0]
	dups := 0
	for i := range obs {
		if i+1 < len(obs) && obs[i+1].Symbol == obs[i].Symbol && obs[i+1].Date.Equal(obs[i].Date) {
			dups++
			continue
		}
		out = append(out, obs[i])
	}
	return out, dups
}
