package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retortweb/internal/auditlog"
	"retortweb/internal/config"
	"retortweb/internal/metrics"
	"retortweb/internal/results"
)

// memSink records appended entries in memory.
type memSink struct {
	mu      sync.Mutex
	records []auditlog.Record
	err     error
}

func (m *memSink) Append(r auditlog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

var fixedNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func testServer(t *testing.T, yaml string, sink auditlog.Sink) *server {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	store, err := results.NewStore(16)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	s := &server{
		store:   store,
		metrics: metrics.New(),
		now:     func() time.Time { return fixedNow },
		sinkFor: func(*config.Config) auditlog.Sink { return sink },
	}
	s.setConfig(cfg)
	return s
}

const practicalYAML = "lethality:\n  floor: practical\n"

// retortWorkbook builds a logger export with a title block above the
// "DATA PANTAUAN" marker.
func retortWorkbook(t *testing.T, temps []float64) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"
	require.NoError(t, f.SetCellValue(sheet, "A1", "PT Rumah Retort Bersama"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "DATA PANTAUAN"))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"Menit", "Suhu", "Tekanan"}))
	for i, temp := range temps {
		cell, err := excelize.CoordinatesToCellName(1, i+5)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &[]interface{}{i + 1, temp, 1.1}))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeEvaluation(t *testing.T, rec *httptest.ResponseRecorder) (APIResponse, EvaluationResponse) {
	t.Helper()
	var raw struct {
		APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	var ev EvaluationResponse
	if len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, &ev))
	}
	return raw.APIResponse, ev
}

func TestAPIEvaluate_ValidRun(t *testing.T) {
	sink := &memSink{}
	s := testServer(t, practicalYAML, sink)
	temps := []float64{85, 100, 118, 121.1, 121.1, 121.1, 110, 95}

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", "batch-12.xlsx", retortWorkbook(t, temps), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp, ev := decodeEvaluation(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, temps, ev.Series)
	assert.Len(t, ev.F0Curve, len(temps))
	assert.Equal(t, ev.F0Curve[len(ev.F0Curve)-1], ev.F0Total)
	assert.True(t, ev.HoldingTimeMet)
	assert.Equal(t, 3, ev.HoldingMinutes)
	assert.Equal(t, "VALID", ev.ValidationStatus)
	assert.Equal(t, 1, ev.TemperatureColumn)
	assert.Equal(t, 0, len(ev.Gaps))
	assert.Equal(t, "/report/"+ev.ID, ev.ReportURL)

	require.Len(t, sink.records, 1)
	assert.Equal(t, auditlog.Record{
		Timestamp:        fixedNow,
		SourceName:       "batch-12.xlsx",
		F0Total:          ev.F0Total,
		ValidationStatus: "VALID",
		HoldingMinutes:   3,
	}, sink.records[0])
}

func TestAPIEvaluate_HoldPolicyOverride(t *testing.T) {
	s := testServer(t, practicalYAML, &memSink{})
	temps := []float64{122, 122, 100, 122, 122}

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", "dip.xlsx", retortWorkbook(t, temps), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, ev := decodeEvaluation(t, rec)
	assert.False(t, ev.HoldingTimeMet)
	assert.Equal(t, "INVALID", ev.ValidationStatus)

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", "dip.xlsx", retortWorkbook(t, temps),
		map[string]string{"hold_policy": "total", "min_hold_temp": "121"}))
	require.Equal(t, http.StatusOK, rec.Code)
	_, ev = decodeEvaluation(t, rec)
	assert.True(t, ev.HoldingTimeMet)
	assert.Equal(t, 4, ev.HoldingMinutes)
	assert.Equal(t, "total", ev.HoldPolicy)
}

func TestAPIEvaluate_Failures(t *testing.T) {
	noMarker := []byte("Menit,Suhu\n1,120\n2,121\n3,122\n")
	coldRun := []byte("DATA PANTAUAN\n1,60\n2,70\n3,95\n")

	tests := []struct {
		name     string
		filename string
		content  []byte
		fields   map[string]string
		status   int
		contains string
	}{
		{"anchor missing", "run.csv", noMarker, nil, http.StatusUnprocessableEntity, "anchor row not found"},
		{"no temperature column", "run.csv", coldRun, nil, http.StatusUnprocessableEntity, "temperature column not found"},
		{"bad override", "run.csv", noMarker, map[string]string{"min_hold_minutes": "-2"}, http.StatusBadRequest, "min_hold_minutes"},
		{"unsupported type", "run.txt", noMarker, nil, http.StatusBadRequest, "unsupported file type"},
		{"no file", "", nil, nil, http.StatusBadRequest, "no file uploaded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := &memSink{}
			s := testServer(t, practicalYAML, sink)
			rec := httptest.NewRecorder()
			s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", tc.filename, tc.content, tc.fields))

			assert.Equal(t, tc.status, rec.Code)
			resp, _ := decodeEvaluation(t, rec)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tc.contains)
			assert.Empty(t, sink.records)
		})
	}
}

func TestAPIEvaluate_CSVGapsAreReported(t *testing.T) {
	s := testServer(t, practicalYAML, &memSink{})
	csv := []byte("DATA PANTAUAN\nMenit,Suhu\n1,100\n2,\n3,121.5\n4,122\n5,122\n")

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", "gap.csv", csv, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, ev := decodeEvaluation(t, rec)
	assert.Equal(t, []float64{100, 121.5, 122, 122}, ev.Series)
	assert.Equal(t, []int{3}, ev.Gaps)
}

func TestAPIEvaluate_LogFailureStillReturnsResult(t *testing.T) {
	s := testServer(t, practicalYAML, &memSink{err: errors.New("disk full")})

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", "b.xlsx", retortWorkbook(t, []float64{121.1, 121.1, 121.1}), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, ev := decodeEvaluation(t, rec)
	assert.Equal(t, "disk full", ev.LogError)

	metricsRec := httptest.NewRecorder()
	s.routes().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), "retort_audit_log_errors_total 1")
}

func TestEvaluateHandler_RendersResultAndReport(t *testing.T) {
	s := testServer(t, practicalYAML, &memSink{})
	h := s.routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/evaluate", "batch.xlsx", retortWorkbook(t, []float64{120, 121.2, 121.3, 121.4}), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "VALID: sterilization process met the holding requirement")
	assert.Contains(t, body, "batch.xlsx")

	i := strings.Index(body, `href="/report/`)
	require.NotEqual(t, -1, i)
	link := body[i+len(`href="`):]
	link = link[:strings.Index(link, `"`)]

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, link, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	src, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "batch.xlsx", src)
}

func TestEvaluateHandler_ErrorRerendersForm(t *testing.T) {
	s := testServer(t, practicalYAML, &memSink{})
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/evaluate", "run.csv", []byte("a,b\n1,2\n"), nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "anchor row not found")
	assert.Contains(t, rec.Body.String(), `name="file"`)
}

func TestReportHandler_Unknown(t *testing.T) {
	s := testServer(t, practicalYAML, &memSink{})
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadHandler_ShowsActivePolicy(t *testing.T) {
	s := testServer(t, "lethality:\n  floor: canonical\n  hold_policy: total\n", &memSink{})
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="canonical" selected>`)
	assert.Contains(t, rec.Body.String(), `<option value="total" selected>`)
}

func TestSetConfig_SwapsPolicy(t *testing.T) {
	s := testServer(t, practicalYAML, &memSink{})
	csv := []byte("DATA PANTAUAN\n1,85\n2,91\n3,92\n4,93\n")

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", "a.csv", csv, nil))
	_, practical := decodeEvaluation(t, rec)

	cfg, err := config.Parse([]byte("lethality:\n  floor: canonical\n"))
	require.NoError(t, err)
	s.setConfig(cfg)

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, multipartRequest(t, "/api/v1/evaluate", "a.csv", csv, nil))
	_, canonical := decodeEvaluation(t, rec)

	assert.Equal(t, "canonical", canonical.Floor)
	assert.Greater(t, canonical.F0Total, practical.F0Total)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}
