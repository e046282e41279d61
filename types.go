// types.go
package main

import (
	"time"

	"retortweb/internal/auditlog"
	"retortweb/internal/results"
)

// Upload is a spreadsheet as received from the browser or API client.
type Upload struct {
	FileName   string
	FileSize   int64
	UploadTime time.Time
}

// ResultPage is the data behind results.html.
type ResultPage struct {
	Evaluation *results.Evaluation
	Status     string
	Rows       []MinuteRow
	FileSize   int64
	LogError   string
	Timestamp  string
}

// MinuteRow is one line of the per-minute table.
type MinuteRow struct {
	Minute      int
	Temperature float64
	F0          float64
	Holding     bool
}

// UploadPage is the data behind upload.html.
type UploadPage struct {
	Error   string
	Floor   string
	Hold    string
	MinTemp float64
	MinHold int
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// EvaluationResponse is the JSON form of an evaluation.
type EvaluationResponse struct {
	ID                string    `json:"id"`
	SourceName        string    `json:"source_name"`
	EvaluatedAt       string    `json:"evaluated_at"` // RFC3339
	Series            []float64 `json:"series"`
	F0Curve           []float64 `json:"f0_curve"`
	F0Total           float64   `json:"f0_total"`
	MaxTemp           float64   `json:"max_temp"`
	AvgTemp           float64   `json:"avg_temp"`
	HoldingTimeMet    bool      `json:"holding_time_met"`
	HoldingMinutes    int       `json:"holding_minutes"`
	HoldPolicy        string    `json:"hold_policy"`
	Floor             string    `json:"floor"`
	ValidationStatus  string    `json:"validation_status"`
	TemperatureColumn int       `json:"temperature_column"`
	UsedFallback      bool      `json:"used_fallback"`
	Gaps              []int     `json:"gaps"`
	// Pressure is a display aid picked by positive-value count alone;
	// PressureColumn says which column it came from.
	Pressure          []float64 `json:"pressure,omitempty"`
	PressureColumn    *int      `json:"pressure_column,omitempty"`
	ReportURL         string    `json:"report_url"`
	LogError          string    `json:"log_error,omitempty"`
}

func toEvaluationResponse(ev *results.Evaluation) EvaluationResponse {
	resp := EvaluationResponse{
		ID:               ev.ID,
		SourceName:       ev.SourceName,
		EvaluatedAt:      ev.CreatedAt.UTC().Format(time.RFC3339),
		F0Curve:          ev.Result.F0Curve,
		F0Total:          ev.Result.F0Total,
		MaxTemp:          ev.Result.MaxTemp,
		AvgTemp:          ev.Result.AvgTemp,
		HoldingTimeMet:   ev.Result.HoldingTimeMet,
		HoldingMinutes:   ev.Result.HoldingMinutes,
		HoldPolicy:       string(ev.Result.HoldPolicy),
		Floor:            string(ev.Config.Floor),
		ValidationStatus: auditlog.Status(ev.Result.HoldingTimeMet),
		Gaps:             []int{},
		ReportURL:        "/report/" + ev.ID,
	}
	if ex := ev.Extraction; ex != nil {
		resp.Series = ex.Series
		resp.TemperatureColumn = ex.TemperatureColumn
		resp.UsedFallback = ex.UsedFallback
		if ex.PressureColumn >= 0 {
			pc := ex.PressureColumn
			resp.Pressure = ex.Pressure
			resp.PressureColumn = &pc
		}
		if ex.Gaps != nil {
			resp.Gaps = ex.Gaps
		}
	}
	return resp
}
