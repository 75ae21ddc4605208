package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"StratLab/internal/domain/models"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/parquet-go/parquet-go/format"
)

const (
	parquetBatchRows = 512

	// Julian day number of 1970-01-01.
	julianUnixEpoch = 2440588
)

// ParquetReader decodes flat parquet files. Date and timestamp logical
// columns and legacy INT96 timestamps become time.Time, other leaves keep
// their physical Go type.
type ParquetReader struct{}

// NewParquetReader creates a parquet reader.
func NewParquetReader() *ParquetReader {
	return &ParquetReader{}
}

// Read decodes every row group of source.
func (r *ParquetReader) Read(source string) (models.RawTable, error) {
	f, err := os.Open(source)
	if err != nil {
		return models.RawTable{}, models.NewDataError("open", source, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return models.RawTable{}, models.NewDataError("stat", source, err)
	}
	if st.Size() == 0 {
		return models.RawTable{}, nil
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return models.RawTable{}, models.NewDataError("decode parquet", source, err)
	}

	fields := pf.Schema().Fields()
	table := models.RawTable{Columns: make([]string, len(fields))}
	for i, fld := range fields {
		if !fld.Leaf() {
			return models.RawTable{}, models.NewDataError("decode parquet", source,
				fmt.Errorf("nested column %q is not supported", fld.Name()))
		}
		table.Columns[i] = fld.Name()
	}

	buf := make([]parquet.Row, parquetBatchRows)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, fields, buf, &table); err != nil {
			return models.RawTable{}, models.NewDataError("decode parquet", source, err)
		}
	}

	return table, nil
}

func readRowGroup(rg parquet.RowGroup, fields []parquet.Field, buf []parquet.Row, table *models.RawTable) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			cells := make([]interface{}, len(fields))
			for _, v := range row {
				col := v.Column()
				if col < 0 || col >= len(fields) {
					continue
				}
				cells[col] = parquetCell(v, fields[col])
			}
			table.Rows = append(table.Rows, cells)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func parquetCell(v parquet.Value, fld parquet.Field) interface{} {
	if v.IsNull() {
		return nil
	}

	lt := fld.Type().LogicalType()
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		if lt != nil && lt.Date != nil {
			return time.Unix(int64(v.Int32())*86400, 0).UTC()
		}
		return int64(v.Int32())
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return timestampValue(v.Int64(), lt.Timestamp.Unit)
		}
		return v.Int64()
	case parquet.Int96:
		return int96Time(v.Int96())
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return nil
	}
}

func timestampValue(n int64, unit format.TimeUnit) time.Time {
	switch {
	case unit.Millis != nil:
		return time.UnixMilli(n).UTC()
	case unit.Micros != nil:
		return time.UnixMicro(n).UTC()
	default:
		return time.Unix(0, n).UTC()
	}
}

// int96Time decodes the INT96 layout written by Impala, Spark and older
// pandas: nanoseconds within the day in the low 64 bits, Julian day in the
// high 32 bits.
func int96Time(v deprecated.Int96) time.Time {
	days := int64(v[2]) - julianUnixEpoch
	return time.Unix(days*86400, v.Int64()).UTC()
}
