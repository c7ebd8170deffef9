package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/mchmarny/varsig/pkg/data"
	"github.com/mchmarny/varsig/pkg/lookup"
	"github.com/mchmarny/varsig/pkg/variant"
)

const (
	runListLimitMax  = 500
	checkBodyMaxSize = 1 << 16
)

func makeRouter(db *sql.DB, c lookup.Classifier) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/runs", runsAPIHandler(db))
	mux.HandleFunc("GET /api/runs/{id}", runAPIHandler(db))
	mux.HandleFunc("GET /api/runs/{id}/results", runResultsAPIHandler(db))
	mux.HandleFunc("POST /api/check", checkAPIHandler(c))

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Error("error converting query string to int", "value", v, "error", err)
		return def
	}

	if i < 1 || i > runListLimitMax {
		return def
	}

	return i
}

func runsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryParamInt(r, "limit", data.RunListLimitDefault)
		list, err := data.ListRuns(db, limit)
		if err != nil {
			slog.Error("failed to list runs", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list runs")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func runAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := data.GetRun(db, r.PathValue("id"))
		if err != nil {
			writeStoreError(w, err, "failed to get run")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func runResultsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := data.GetRunResults(db, r.PathValue("id"))
		if err != nil {
			writeStoreError(w, err, "failed to get run results")
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func writeStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, data.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

// checkAPIHandler classifies one posted mutation. Lookups are serialized
// so concurrent requests keep to the registry request rate.
func checkAPIHandler(c lookup.Classifier) http.HandlerFunc {
	var mu sync.Mutex

	return func(w http.ResponseWriter, r *http.Request) {
		var m variant.Mutation
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, checkBodyMaxSize))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			writeError(w, http.StatusBadRequest, "invalid mutation: "+err.Error())
			return
		}
		if err := validateMutation(m); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		mu.Lock()
		res := c.Classify(r.Context(), m)
		mu.Unlock()

		writeJSON(w, http.StatusOK, res.Row(m))
	}
}
