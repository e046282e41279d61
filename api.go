// api.go
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const version = "1.0.0"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode failed", "err", err)
	}
}

func (s *server) apiEvaluateHandler(w http.ResponseWriter, r *http.Request) {
	out, err := s.evaluateUpload(w, r)
	if err != nil {
		writeJSON(w, s.fail(r, err), APIResponse{Success: false, Error: err.Error()})
		return
	}
	resp := toEvaluationResponse(out.ev)
	resp.LogError = out.logError
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}
