package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherlab/sfc-etl/internal/adapter/filestore"
	"github.com/weatherlab/sfc-etl/internal/domain"
	"github.com/weatherlab/sfc-etl/internal/observability"
	"github.com/weatherlab/sfc-etl/internal/pipeline"
)

func line(tm string, stn int, ta string) string {
	schema := domain.DefaultSchema()
	tokens := make([]string, schema.Width())
	for i, name := range schema.Names() {
		switch name {
		case domain.ColTM:
			tokens[i] = tm
		case domain.ColSTN:
			tokens[i] = strconv.Itoa(stn)
		case "TA":
			tokens[i] = ta
		default:
			tokens[i] = "1.0"
		}
	}
	return strings.Join(tokens, " ")
}

// cleanFixture runs a real cleaning pass and returns the artifact paths.
func cleanFixture(t *testing.T) pipeline.CleanResult {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "x.csv")
	body := "#START7777\n" + line("202211300900", 108, "-9") + "\n" + line("202211301000", 112, "3.5") + "\n#7777END\n"
	f, _ := domain.ParseBody(body, domain.DefaultSchema(), domain.DropMalformed)
	require.NoError(t, filestore.WriteFrameFile(input, f))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := pipeline.NewCleaner(pipeline.CleanOptions{
		CleanDir:  filepath.Join(root, "clean"),
		ReportDir: filepath.Join(root, "reports"),
	}, filestore.Sink{}, nil, logger, observability.NewMetricsForTesting())
	res, err := c.Run(context.Background(), pipeline.CleanRequest{InputFile: input})
	require.NoError(t, err)
	return res
}

func TestAudit_CleanRunPasses(t *testing.T) {
	res := cleanFixture(t)

	table, err := filestore.ReadFrameFile(res.TablePath)
	require.NoError(t, err)
	report, err := loadReport(res.ReportPath)
	require.NoError(t, err)

	for _, p := range audit(table, report) {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
	assert.Equal(t, res.ReportPath, pairedReport(res.TablePath, filepath.Dir(res.ReportPath)))
}

func TestAudit_DetectsTampering(t *testing.T) {
	res := cleanFixture(t)
	table, err := filestore.ReadFrameFile(res.TablePath)
	require.NoError(t, err)
	report, err := loadReport(res.ReportPath)
	require.NoError(t, err)

	ta := table.ColumnIndex("TA")
	table.Rows[0][ta] = domain.Text("-99")
	report.NStations = 5

	failed := map[string]bool{}
	for _, p := range audit(table, report) {
		failed[p.name] = !p.passed()
	}
	assert.True(t, failed["No sentinel values in numeric columns"])
	assert.True(t, failed["Null counts agree with missing_count"])
	assert.True(t, failed["Time range and station count"])
	assert.False(t, failed["Row counts and columns"])
}
