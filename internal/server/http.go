package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"powerapi-backend/internal/packager"
	"powerapi-backend/internal/store"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type transcriptResponse struct {
	Username   string              `json:"username"`
	FetchedAt  time.Time           `json:"fetched_at"`
	Transcript packager.Transcript `json:"transcript"`
}

type snapshotsResponse struct {
	Username string                `json:"username"`
	Series   []store.SectionSeries `json:"series"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJson(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	writeJson(w, status, errorResponse{Error: err.Error()})
}

// NewHandler exposes the store read only.
//
//	GET /healthz
//	GET /students/{username}/transcript
//	GET /students/{username}/snapshots
func NewHandler(st store.Store) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /students/{username}/transcript", func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		transcript, fetchedAt, err := st.Latest(r.Context(), username)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJson(w, http.StatusOK, transcriptResponse{
			Username:   username,
			FetchedAt:  fetchedAt,
			Transcript: transcript,
		})
	})

	mux.HandleFunc("GET /students/{username}/snapshots", func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		series, err := st.Pull(r.Context(), username)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		if series == nil {
			series = []store.SectionSeries{}
		}
		writeJson(w, http.StatusOK, snapshotsResponse{
			Username: username,
			Series:   series,
		})
	})

	return mux
}
