package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherlab/sfc-etl/internal/adapter/httpadapter"
	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
	"github.com/weatherlab/sfc-etl/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type failingCleaner struct{ err error }

func (f failingCleaner) CleanBody(context.Context, string, string) (pipeline.BodyResult, error) {
	return pipeline.BodyResult{}, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error) *httpadapter.Server {
	cleaner := pipeline.NewCleaner(pipeline.CleanOptions{}, nil, nil, discardLogger(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, cleaner, discardLogger())
}

// rawBody renders a response body with one line per station, every
// measurement set to value.
func rawBody(value string, stations ...int) string {
	var b strings.Builder
	b.WriteString("#START7777\n")
	schema := domain.DefaultSchema()
	for _, stn := range stations {
		tokens := make([]string, schema.Width())
		for i, name := range schema.Names() {
			switch name {
			case domain.ColTM:
				tokens[i] = "202211300900"
			case domain.ColSTN:
				tokens[i] = fmt.Sprint(stn)
			default:
				tokens[i] = value
			}
		}
		b.WriteString(strings.Join(tokens, " ") + "\n")
	}
	b.WriteString("202211300900 999 1.0\n#7777END\n")
	return b.String()
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(errors.New("no scheduled run has completed yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no scheduled run has completed yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPostReport(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(rawBody("-9", 108, 112)))
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get(httpadapter.HeaderRowsExtracted))
	assert.Equal(t, "1", rec.Header().Get(httpadapter.HeaderRowsRejected))

	var report domain.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.RowsRaw)
	assert.Equal(t, 2, report.NStations)
	ta, ok := report.MissingCount.Get("TA")
	require.True(t, ok)
	assert.Equal(t, 2, ta)
	assert.Empty(t, report.InputFile)
}

func TestPostReport_MissingValuesOverride(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports?missing_values=-99,abc", strings.NewReader(rawBody("-9", 108)))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get(httpadapter.HeaderIgnoredTokens))

	var report domain.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, []string{"-99"}, report.MissingValuesTokens)
	ta, _ := report.MissingCount.Get("TA")
	assert.Equal(t, 0, ta)
}

func TestPostReport_BadRequests(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{name: "empty body", body: "  \n", want: http.StatusBadRequest},
		{name: "json body", body: `{"tm":"202211300900"}`, contentType: "application/json", want: http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPostReport_CleanerError(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{},
		failingCleaner{err: fmt.Errorf("coerce: %w", domain.ErrMissingColumn)}, discardLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(rawBody("1.0", 108)))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetReportNotAllowed(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
