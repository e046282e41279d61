// processing.go
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"retortweb/internal/extract"
)

// readTable reads the upload into a raw grid, picking the reader from the
// file extension. Only the first sheet of a workbook is read.
func readTable(name string, file io.Reader) (extract.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return processCSV(file)
	case ".xlsx", ".xlsm":
		return processExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .xlsx or .csv)", filepath.Ext(name))
	}
}

func processCSV(file io.Reader) (extract.Table, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty CSV")
	}
	return extract.Table(rows), nil
}

func processExcel(file io.Reader) (extract.Table, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets")
	}
	// Stored values, not the cell's number format rendering.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty Excel")
	}
	return extract.Table(rows), nil
}
