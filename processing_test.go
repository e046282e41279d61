package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadTable_CSVRaggedRows(t *testing.T) {
	tbl, err := readTable("Run.CSV", strings.NewReader("DATA PANTAUAN\nMenit,Suhu,Tekanan\n1,121.3\n"))
	require.NoError(t, err)
	require.Len(t, tbl, 3)
	assert.Equal(t, []string{"DATA PANTAUAN"}, tbl[0])
	assert.Equal(t, []string{"1", "121.3"}, tbl[2])
}

func TestReadTable_FirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "DATA PANTAUAN"))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := readTable("run.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, tbl, 2)
	assert.Equal(t, "DATA PANTAUAN", tbl.Cell(1, 1))
}

func TestReadTable_Errors(t *testing.T) {
	_, err := readTable("run.xls", strings.NewReader(""))
	assert.Error(t, err)
	_, err = readTable("run.csv", strings.NewReader(""))
	assert.Error(t, err)
	_, err = readTable("run.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestReadTable_ExcelReadsStoredValues(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", 121.04))
	style, err := f.NewStyle(&excelize.Style{NumFmt: 1})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A1", "A1", style))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tbl, err := readTable("run.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	v, ok := tbl.Number(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 121.04, v, 1e-9)
}
