// calculations.go
package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"retortweb/internal/auditlog"
	"retortweb/internal/config"
	"retortweb/internal/extract"
	"retortweb/internal/lethality"
	"retortweb/internal/results"
)

// Failure reasons, used as the metrics label and in logs.
const (
	reasonAnchorNotFound = "anchor_not_found"
	reasonColumnNotFound = "temperature_column_not_found"
	reasonEmptySeries    = "empty_series"
	reasonInvalidConfig  = "invalid_config"
	reasonUnreadableFile = "unreadable_file"
	reasonTooManyRows    = "too_many_rows"
	reasonInvalidRequest = "invalid_request"
)

// evalError is a failure that produced no evaluation. Reason is a stable
// machine-readable label; Err carries the human-readable explanation.
type evalError struct {
	Reason string
	Err    error
}

func (e *evalError) Error() string { return e.Err.Error() }
func (e *evalError) Unwrap() error { return e.Err }

// failureReason maps core errors to their label.
func failureReason(err error) string {
	var ee *evalError
	switch {
	case errors.As(err, &ee):
		return ee.Reason
	case errors.Is(err, extract.ErrAnchorNotFound):
		return reasonAnchorNotFound
	case errors.Is(err, extract.ErrTemperatureColumnNotFound):
		return reasonColumnNotFound
	case errors.Is(err, extract.ErrEmptySeries), errors.Is(err, lethality.ErrEmptySeries):
		return reasonEmptySeries
	case errors.Is(err, lethality.ErrInvalidConfig):
		return reasonInvalidConfig
	default:
		return reasonInvalidRequest
	}
}

// applyOverrides returns base with any per-request fields from form applied.
// Blank fields keep the configured value.
func applyOverrides(base lethality.Config, form url.Values) (lethality.Config, error) {
	cfg := base
	if v := strings.TrimSpace(form.Get("floor")); v != "" {
		cfg.Floor = lethality.FloorPolicy(v)
	}
	if v := strings.TrimSpace(form.Get("hold_policy")); v != "" {
		cfg.HoldPolicy = lethality.HoldPolicy(v)
	}
	if v := strings.TrimSpace(form.Get("min_hold_temp")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: min_hold_temp %q is not a number", lethality.ErrInvalidConfig, v)
		}
		cfg.MinHoldTemp = f
	}
	if v := strings.TrimSpace(form.Get("min_hold_minutes")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: min_hold_minutes %q is not an integer", lethality.ErrInvalidConfig, v)
		}
		cfg.MinHoldMinutes = n
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// performEvaluation runs extraction and the lethality calculation over a
// raw table. It does no I/O.
func performEvaluation(table extract.Table, name string, cfg *config.Config, calc lethality.Config, now time.Time) (*results.Evaluation, error) {
	if len(table) > cfg.Server.MaxRows {
		return nil, &evalError{Reason: reasonTooManyRows, Err: fmt.Errorf("too many rows (> %d)", cfg.Server.MaxRows)}
	}
	ex, err := extract.Extract(table, cfg.Extraction.Options())
	if err != nil {
		return nil, err
	}
	res, err := lethality.Evaluate(ex.Series, calc)
	if err != nil {
		return nil, err
	}
	return &results.Evaluation{
		ID:         results.NewID(),
		SourceName: name,
		CreatedAt:  now,
		Config:     calc,
		Extraction: ex,
		Result:     res,
	}, nil
}

// logRecord is the audit log entry for ev.
func logRecord(ev *results.Evaluation) auditlog.Record {
	return auditlog.Record{
		Timestamp:        ev.CreatedAt,
		SourceName:       ev.SourceName,
		F0Total:          ev.Result.F0Total,
		ValidationStatus: auditlog.Status(ev.Result.HoldingTimeMet),
		HoldingMinutes:   ev.Result.HoldingMinutes,
	}
}

// minuteRows builds the per-minute table shown on the result page.
func minuteRows(ev *results.Evaluation) []MinuteRow {
	rows := make([]MinuteRow, len(ev.Result.F0Curve))
	for i, f0 := range ev.Result.F0Curve {
		t := ev.Extraction.Series[i]
		rows[i] = MinuteRow{
			Minute:      i + 1,
			Temperature: t,
			F0:          f0,
			Holding:     t >= ev.Config.MinHoldTemp,
		}
	}
	return rows
}
