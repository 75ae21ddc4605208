package repository

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"StratLab/internal/domain/models"
)

const utf8BOM = "\ufeff"

// CSVReader decodes delimited text. Every present cell is a string and
// cells missing from short rows are nil.
type CSVReader struct {
	comma rune
}

// NewCSVReader creates a delimited text reader using comma as separator.
func NewCSVReader(comma rune) *CSVReader {
	return &CSVReader{comma: comma}
}

// Read decodes the whole file.
func (r *CSVReader) Read(source string) (models.RawTable, error) {
	f, err := os.Open(source)
	if err != nil {
		return models.RawTable{}, models.NewDataError("open", source, err)
	}
	defer f.Close()

	return r.decode(source, f)
}

func (r *CSVReader) decode(source string, in io.Reader) (models.RawTable, error) {
	cr := csv.NewReader(bufio.NewReader(in))
	cr.Comma = r.comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return models.RawTable{}, nil
	}
	if err != nil {
		return models.RawTable{}, models.NewDataError("decode csv", source, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := models.RawTable{Columns: header}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.RawTable{}, models.NewDataError("decode csv", source, fmt.Errorf("line %d: %w", line, err))
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		cells := make([]interface{}, len(header))
		for i := range cells {
			if i < len(rec) {
				cells[i] = rec[i]
			}
		}
		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}
