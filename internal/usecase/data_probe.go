package usecase

import (
	"time"

	"StratLab/internal/domain/models"
	domsvc "StratLab/internal/domain/service"
	"StratLab/pkg/logger"
	"StratLab/pkg/util"
)

const probeSampleRows = 5

// DataProbe loads and cleans a source without running the analytics and
// reports what came out.
type DataProbe struct {
	loader domsvc.TableLoader
	logger *logger.Logger
}

func NewDataProbe(loader domsvc.TableLoader, lgr *logger.Logger) *DataProbe {
	return &DataProbe{loader: loader, logger: logger.OrNop(lgr).Component("data_probe")}
}

// Probe never returns an error; failures set Success=false and Error.
func (p *DataProbe) Probe(source string, sample int) models.DataProbe {
	if sample <= 0 || sample > probeSampleRows {
		sample = probeSampleRows
	}
	out := models.DataProbe{CheckedAt: time.Now().UTC()}

	table, err := p.loader.LoadAndClean(source)
	if err != nil {
		p.logger.Warn("probe failed", logger.String("source", source), logger.Error(err))
		out.Error = err.Error()
		return out
	}

	out.Success = true
	out.Shape = []int{table.Len(), 4}
	out.Columns = []string{models.ColumnDate, models.ColumnSymbol, models.ColumnPrice, models.ColumnReturn}
	out.Dtypes = map[string]string{
		models.ColumnDate:   "datetime64",
		models.ColumnSymbol: "string",
		models.ColumnPrice:  "float64",
		models.ColumnReturn: "float64",
	}
	out.RowsRead = table.Stats.RowsRead
	out.Rejected = table.Stats.RowsRejected
	out.Symbols = table.Symbols()
	if out.Symbols == nil {
		out.Symbols = []string{}
	}

	out.SampleData = make([]map[string]interface{}, 0, sample)
	for i := 0; i < len(table.Rows) && i < sample; i++ {
		r := table.Rows[i]
		out.SampleData = append(out.SampleData, map[string]interface{}{
			models.ColumnDate:   util.FormatDate(r.Date),
			models.ColumnSymbol: r.Symbol,
			models.ColumnPrice:  r.Price,
			models.ColumnReturn: r.Return,
		})
	}

	if lo, hi, ok := table.DateRange(); ok {
		out.DateRange = &models.DateRange{Min: util.FormatDate(lo), Max: util.FormatDate(hi)}
	}
	return out
}
