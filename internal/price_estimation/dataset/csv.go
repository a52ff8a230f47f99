package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
)

// ReadRaw parses a comma separated table with a header row. Extra columns are
// ignored and column order is free, but every header in
// domain.RequiredColumns must be present.
func ReadRaw(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %q (input has no header row)", domain.ErrMissingColumn, domain.RequiredColumns[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}
	for _, col := range domain.RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingColumn, col)
		}
	}

	cell := func(record []string, col string) string {
		if i := index[col]; i < len(record) {
			return record[i]
		}
		return ""
	}

	var rows []domain.RawRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		rows = append(rows, domain.RawRecord{
			Name:      cell(record, domain.ColName),
			Company:   cell(record, domain.ColCompany),
			Year:      cell(record, domain.ColYear),
			Price:     cell(record, domain.ColPrice),
			KmsDriven: cell(record, domain.ColKmsDriven),
			FuelType:  cell(record, domain.ColFuelType),
		})
	}
	return rows, nil
}

// ReadRawFile opens path and parses it with ReadRaw.
func ReadRawFile(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	rows, err := ReadRaw(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// LoadClean reads the table at path and cleans it.
func LoadClean(path string, opts CleanOptions) ([]domain.Record, error) {
	raw, err := ReadRawFile(path)
	if err != nil {
		return nil, err
	}
	return Clean(raw, opts), nil
}

// WriteCSV writes records under the same headers ReadRaw expects, so a
// cleaned table can be read and cleaned again without loss.
func WriteCSV(w io.Writer, records []domain.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(domain.RequiredColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Name,
			r.Company,
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Price),
			strconv.Itoa(r.KmsDriven),
			r.FuelType,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes records to path, replacing any existing file.
func WriteCSVFile(path string, records []domain.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return WriteCSV(f, records)
}
