// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/visio-preview/pkg/types"
)

const sheetName = "Sheet1"

// Column headers of the mapping spreadsheet.
var header = []any{"Dir", "Preview", "Visio"}

// Write creates dir (and parents) if needed and writes records in each
// requested format. fileName is the spreadsheet name; other formats reuse
// its base name with their own extension. It returns the written paths.
func Write(dir, fileName string, formats []types.MappingFormat, records []types.MappingRecord) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output folder %s: %w", dir, err)
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	var written []string
	for _, f := range formats {
		var (
			path string
			err  error
		)
		switch f {
		case types.FormatXLSX:
			path = filepath.Join(dir, base+".xlsx")
			err = WriteXLSX(path, records)
		case types.FormatYAML:
			path = filepath.Join(dir, base+".yaml")
			err = WriteYAML(path, records)
		case types.FormatJSON:
			path = filepath.Join(dir, base+".json")
			err = WriteJSON(path, records)
		case types.FormatParquet:
			path = filepath.Join(dir, base+".parquet")
			err = WriteParquet(path, records)
		default:
			err = fmt.Errorf("unsupported mapping format %q", f)
		}
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteXLSX writes records as a single-sheet workbook with the columns
// Dir, Preview and Visio.
func WriteXLSX(path string, records []types.MappingRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing mapping header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Dir, r.Preview, r.Source}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("writing mapping row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// WriteYAML writes records as a YAML sequence.
func WriteYAML(path string, records []types.MappingRecord) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(path string, records []types.MappingRecord) error {
	if records == nil {
		records = []types.MappingRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteParquet writes records as a Parquet file.
func WriteParquet(path string, records []types.MappingRecord) error {
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing parquet %s: %w", path, err)
	}
	return nil
}

// ReadXLSX reads a mapping spreadsheet written by WriteXLSX. Only the Dir,
// Preview and Source fields are restored.
func ReadXLSX(path string) ([]types.MappingRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	records := make([]types.MappingRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < 3 {
			row = append(row, "")
		}
		records = append(records, types.MappingRecord{Dir: row[0], Preview: row[1], Source: row[2]})
	}
	return records, nil
}
