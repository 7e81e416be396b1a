package httpingest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/internal/ports"
)

// flushTimeout bounds the synchronous flush endpoint.
const flushTimeout = 30 * time.Second

// maxBodyBytes caps a single ingest request body.
const maxBodyBytes = 16 << 20

// ingestRequest is the JSON body of POST /v1/ingest/{table}.
// Columns may be omitted to let the server infer the column list.
type ingestRequest struct {
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows"`
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
}

type statusResponse struct {
	Pending int    `json:"pending"`
	Evicted uint64 `json:"evicted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	ingester Ingester
	logger   ports.Logger
}

// ingest buffers the posted rows and acknowledges with 202. The rows are not
// on the server yet when the response is written.
func (h *handler) ingest(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if table == "" {
		writeError(w, http.StatusBadRequest, "missing table name")
		return
	}

	var req ingestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows must not be empty")
		return
	}

	cols := domain.Wildcard()
	if len(req.Columns) > 0 {
		cols = domain.Columns(req.Columns...)
		for i, row := range req.Rows {
			if len(row) != len(req.Columns) {
				h.logger.Warn("row width mismatch",
					ports.String("table", table),
					ports.Int("row", i),
					ports.Int("want", len(req.Columns)),
					ports.Int("got", len(row)))
				writeError(w, http.StatusBadRequest, "row width does not match columns")
				return
			}
		}
	}

	rows := make([]domain.Row, len(req.Rows))
	for i, r := range req.Rows {
		rows[i] = domain.Row(r)
	}
	h.ingester.Append(table, rows, cols)

	writeJSON(w, http.StatusAccepted, ingestResponse{Accepted: len(rows)})
}

// flush runs a synchronous flush and reports its outcome.
func (h *handler) flush(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), flushTimeout)
	defer cancel()

	if err := h.ingester.ForceFlushSync(ctx); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Pending: h.ingester.Pending(),
		Evicted: h.ingester.Evicted(),
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
