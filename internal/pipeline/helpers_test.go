package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
)

// --- mocks ---

type mockSource struct {
	body string
	err  error

	mu   sync.Mutex
	reqs []domain.FetchRequest
}

func (m *mockSource) Fetch(_ context.Context, req domain.FetchRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return m.body, m.err
}

func (m *mockSource) requests() []domain.FetchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.FetchRequest(nil), m.reqs...)
}

type failingSink struct{}

func (failingSink) Commit(context.Context, string, domain.Frame, string, domain.RunReport) error {
	return errors.New("disk full")
}

type mockPublisher struct {
	err       error
	published []domain.RunReport
}

func (m *mockPublisher) PublishReport(_ context.Context, r domain.RunReport) error {
	m.published = append(m.published, r)
	return m.err
}

type mockDatasetWriter struct {
	path  string
	frame domain.Frame
}

func (m *mockDatasetWriter) WriteDataset(_ context.Context, path string, f domain.Frame) error {
	m.path = path
	m.frame = f
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use unregistered metrics to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// freezeClock pins domain.Now for the duration of the test.
func freezeClock(t *testing.T, at time.Time) *clockwork.FakeClock {
	t.Helper()
	fc := clockwork.NewFakeClockAt(at)
	domain.SetClock(fc)
	t.Cleanup(func() { domain.SetClock(nil) })
	return fc
}

// --- fixtures ---

// obsLine renders a 45-token line with the given measurements; every other
// field gets a neutral value.
func obsLine(tm string, stn int, values map[string]string) string {
	schema := domain.DefaultSchema()
	tokens := make([]string, schema.Width())
	for i, name := range schema.Names() {
		switch {
		case values[name] != "":
			tokens[i] = values[name]
		case name == domain.ColTM:
			tokens[i] = tm
		case name == domain.ColSTN:
			tokens[i] = strconv.Itoa(stn)
		case name == domain.ColCT || name == domain.ColWW:
			tokens[i] = "-"
		default:
			tokens[i] = "0.0"
		}
	}
	return strings.Join(tokens, " ")
}

func obsBody(lines ...string) string {
	var b strings.Builder
	b.WriteString("#START7777\n# YYMMDDHHMI STN WD WS ...\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("#7777END\n")
	return b.String()
}
