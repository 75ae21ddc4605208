package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"StratLab/internal/domain/models"
	"StratLab/internal/domain/repository"
)

// FileTableReader picks a decoder from the source file extension.
type FileTableReader struct {
	csv     *CSVReader
	tsv     *CSVReader
	parquet *ParquetReader
}

// NewFileTableReader creates a reader for delimited text and parquet files.
func NewFileTableReader() repository.TableReader {
	return &FileTableReader{
		csv:     NewCSVReader(','),
		tsv:     NewCSVReader('\t'),
		parquet: NewParquetReader(),
	}
}

// Read decodes source according to its extension.
func (r *FileTableReader) Read(source string) (models.RawTable, error) {
	if _, err := os.Stat(source); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.RawTable{}, models.NewDataError("open", source, models.ErrSourceNotFound)
		}
		return models.RawTable{}, models.NewDataError("open", source, err)
	}

	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".parquet", ".pq":
		return r.parquet.Read(source)
	case ".tsv", ".tab":
		return r.tsv.Read(source)
	case ".csv", ".txt", ".dat", "":
		return r.csv.Read(source)
	default:
		return models.RawTable{}, models.NewDataError("open", source,
			fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, ext))
	}
}

// SupportedExtension reports whether ext (with dot) has a decoder.
func SupportedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".parquet", ".pq", ".tsv", ".tab", ".csv", ".txt", ".dat":
		return true
	}
	return false
}
