// Package report renders an evaluation as an XLSX workbook: a summary sheet
// with the verdict and two line charts, and a data sheet with the
// per-minute temperature and cumulative F0.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"retortweb/internal/auditlog"
	"retortweb/internal/results"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	DataSheet    = "Data"
)

// Title is the heading of the summary sheet.
const Title = "THERMAL RETORT VALIDATION REPORT"

// Write renders ev and writes the workbook to w.
func Write(w io.Writer, ev *results.Evaluation) error {
	f, err := Build(ev)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

// Build renders ev into a new workbook. The caller closes it.
func Build(ev *results.Evaluation) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(DataSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: new sheet: %w", err)
	}

	steps := []func(*excelize.File, *results.Evaluation) error{
		writeSummary,
		writeData,
		addCharts,
	}
	for _, step := range steps {
		if err := step(f, ev); err != nil {
			f.Close()
			return nil, fmt.Errorf("report: %w", err)
		}
	}
	return f, nil
}

func writeSummary(f *excelize.File, ev *results.Evaluation) error {
	res, cfg := ev.Result, ev.Config
	floor := string(cfg.Floor)
	if !math.IsInf(cfg.EffectiveFloor(), -1) {
		floor = fmt.Sprintf("%s (%g C)", cfg.Floor, cfg.FloorTemp)
	}

	rows := [][]interface{}{
		{Title},
		{},
		{"Source file", ev.SourceName},
		{"Evaluated at", ev.CreatedAt.Format(auditlog.TimeLayout)},
		{"F0 (min)", round2(res.F0Total)},
		{"Max temperature (C)", round2(res.MaxTemp)},
		{"Average temperature (C)", round2(res.AvgTemp)},
		{"Holding minutes", res.HoldingMinutes},
		{"Holding policy", fmt.Sprintf("%s, %d min at >= %g C", res.HoldPolicy, cfg.MinHoldMinutes, cfg.MinHoldTemp)},
		{"Validation status", auditlog.Status(res.HoldingTimeMet)},
		{},
		{"Reference temperature (C)", cfg.ReferenceTemp},
		{"z-value (C)", cfg.ZValue},
		{"Floor", floor},
		{"Samples", len(res.F0Curve)},
	}
	if ev.Extraction != nil && len(ev.Extraction.Gaps) > 0 {
		rows = append(rows, []interface{}{"Dropped rows inside series", len(ev.Extraction.Gaps)})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 32)
}

func writeData(f *excelize.File, ev *results.Evaluation) error {
	if err := f.SetSheetRow(DataSheet, "A1", &[]interface{}{
		"Minute", "Temperature (C)", "Cumulative F0", "Hold threshold (C)",
	}); err != nil {
		return fmt.Errorf("data header: %w", err)
	}
	var series []float64
	if ev.Extraction != nil {
		series = ev.Extraction.Series
	}
	for i, f0 := range ev.Result.F0Curve {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var temp interface{}
		if i < len(series) {
			temp = series[i]
		}
		row := []interface{}{i + 1, temp, f0, ev.Config.MinHoldTemp}
		if err := f.SetSheetRow(DataSheet, cell, &row); err != nil {
			return fmt.Errorf("data row %d: %w", i+2, err)
		}
	}
	return f.SetColWidth(DataSheet, "A", "D", 18)
}

func addCharts(f *excelize.File, ev *results.Evaluation) error {
	n := len(ev.Result.F0Curve)
	if n == 0 {
		return nil
	}
	last := n + 1
	ref := func(col string) string { return fmt.Sprintf("%s!$%s$2:$%s$%d", DataSheet, col, col, last) }
	minutes := ref("A")

	temp := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{Name: DataSheet + "!$B$1", Categories: minutes, Values: ref("B")},
			{Name: DataSheet + "!$D$1", Categories: minutes, Values: ref("D")},
		},
		Title: []excelize.RichTextRun{{Text: "Temperature per minute"}},
		XAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Minute"}}},
		YAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Temperature (C)"}}},
	}
	if err := f.AddChart(SummarySheet, "D2", temp); err != nil {
		return fmt.Errorf("temperature chart: %w", err)
	}

	f0 := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{Name: DataSheet + "!$C$1", Categories: minutes, Values: ref("C")},
		},
		Title: []excelize.RichTextRun{{Text: "Cumulative F0"}},
		XAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Minute"}}},
		YAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "F0 (min)"}}},
	}
	if err := f.AddChart(SummarySheet, "D20", f0); err != nil {
		return fmt.Errorf("f0 chart: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
