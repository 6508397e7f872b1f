package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"paper-digest/shared/corpus"
)

// SampleColumns is the projection handed to the summarizer
var SampleColumns = []string{corpus.ColumnPaperID, corpus.ColumnAbstract}

// Encode writes a header row and one row per record, projected to columns.
// Missing values are written as empty fields.
func Encode(w io.Writer, columns []string, records []corpus.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for i, record := range records {
		for j, col := range columns {
			row[j] = record.Value(col)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSV writes records to path, creating parent directories and
// replacing any existing file.
func WriteCSV(path string, columns []string, records []corpus.Record) (err error) {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	buf := bufio.NewWriter(f)
	if err := Encode(buf, columns, records); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return buf.Flush()
}

// WriteFile stores already encoded CSV data at path, replacing any existing file
func WriteFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// WeeklySamplePath returns <dir>/<label>.csv, e.g. samples/2025WK46.csv
func WeeklySamplePath(dir, label string) string {
	return filepath.Join(dir, label+".csv")
}
