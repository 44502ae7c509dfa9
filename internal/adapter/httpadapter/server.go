package httpadapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/pipeline"
)

// maxBodyBytes caps one POST /v1/reports body. A full-network hourly
// response is well under 1 MiB.
const maxBodyBytes = 16 << 20

// Response headers carrying extraction counters alongside the report.
const (
	HeaderRowsExtracted = "X-Rows-Extracted"
	HeaderRowsRejected  = "X-Rows-Rejected"
	HeaderIgnoredTokens = "X-Ignored-Missing-Values"
)

const missingValuesParam = "missing_values"

// BodyCleaner runs the cleaning core on a raw body held in memory.
type BodyCleaner interface {
	CleanBody(ctx context.Context, body, missingValues string) (pipeline.BodyResult, error)
}

// Server exposes health, readiness, metrics and the report API.
type Server struct {
	httpServer *http.Server
	cleaner    BodyCleaner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/reports routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, cleaner BodyCleaner, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		cleaner: cleaner,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/reports", s.handleReport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleReport cleans a raw sfctm2 body and answers with its run report.
// Nothing is written to disk.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "text/plain") {
		writeError(w, http.StatusUnsupportedMediaType, "want a text/plain body")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if strings.TrimSpace(string(data)) == "" {
		writeError(w, http.StatusBadRequest, "empty body")
		return
	}

	res, err := s.cleaner.CleanBody(r.Context(), string(data), r.URL.Query().Get(missingValuesParam))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrMissingColumn) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Error("report request failed", "error", err)
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set(HeaderRowsExtracted, strconv.Itoa(len(res.Extraction.Records)))
	w.Header().Set(HeaderRowsRejected, strconv.Itoa(res.Extraction.MalformedLines))
	if len(res.DroppedTokens) > 0 {
		w.Header().Set(HeaderIgnoredTokens, strings.Join(res.DroppedTokens, ","))
	}
	sharedobs.WriteJSON(w, http.StatusOK, res.Report)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
