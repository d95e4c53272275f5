package serving

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/skyler-myers-db/data-api-serving/internal/page"
)

// Handler serves the scoring-protocol HTTP surface for a Service.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type predictionsResponse struct {
	Predictions []page.Page `json:"predictions"`
}

// HandleInvocations answers POST /invocations.
func (h *Handler) HandleInvocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	record, err := decodeRecord(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Query(r.Context(), record)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, predictionsResponse{Predictions: []page.Page{p}})
}

// HandleHealth answers GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","version":"0.1.0"}`))
}

// decodeRecord unwraps the scoring envelope: dataframe_records takes the
// first record, dataframe_split zips columns with the first data row, and a
// bare object is the record itself. Malformed inner shapes degrade to an
// empty record; only an undecodable envelope is an error.
func decodeRecord(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	if v, ok := envelope["dataframe_records"]; ok {
		return firstRecord(v), nil
	}
	if v, ok := envelope["dataframe_split"]; ok {
		return splitRecord(v), nil
	}
	return envelope, nil
}

func firstRecord(v any) map[string]any {
	records, ok := v.([]any)
	if !ok || len(records) == 0 {
		return map[string]any{}
	}
	record, ok := records[0].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return record
}

func splitRecord(v any) map[string]any {
	split, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	cols, _ := split["columns"].([]any)
	data, _ := split["data"].([]any)
	if len(cols) == 0 || len(data) == 0 {
		return map[string]any{}
	}
	row, ok := data[0].([]any)
	if !ok {
		return map[string]any{}
	}
	record := make(map[string]any, len(cols))
	for i, c := range cols {
		name, ok := c.(string)
		if !ok || i >= len(row) {
			continue
		}
		record[name] = row[i]
	}
	return record
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
