package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/weatherlab/sfc-etl/internal/domain"
)

// Artifact is one output file of a run.
type Artifact struct {
	Path  string
	Write func(io.Writer) error
}

// FrameArtifact writes f as CSV to path.
func FrameArtifact(path string, f domain.Frame) Artifact {
	return Artifact{Path: path, Write: func(w io.Writer) error { return WriteFrame(w, f) }}
}

// JSONArtifact writes v as indented JSON to path.
func JSONArtifact(path string, v any) Artifact {
	return Artifact{Path: path, Write: func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}}
}

// Commit writes every artifact to a temporary file beside its destination,
// then renames them all into place. On failure nothing new is left behind:
// temporaries are removed and destinations already renamed are deleted.
func Commit(artifacts ...Artifact) (err error) {
	temps := make([]string, 0, len(artifacts))
	defer func() {
		if err != nil {
			for _, t := range temps {
				os.Remove(t)
			}
		}
	}()

	for _, a := range artifacts {
		dir := filepath.Dir(a.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		tmp, err := writeTemp(a)
		if err != nil {
			return err
		}
		temps = append(temps, tmp)
	}

	var renamed []string
	for i, a := range artifacts {
		if rerr := os.Rename(temps[i], a.Path); rerr != nil {
			for _, p := range renamed {
				os.Remove(p)
			}
			return fmt.Errorf("commit %s: %w", a.Path, rerr)
		}
		renamed = append(renamed, a.Path)
	}
	return nil
}

func writeTemp(a Artifact) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(a.Path), "."+filepath.Base(a.Path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", a.Path, err)
	}
	name := f.Name()
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}

	w, err := wrapWriter(f, a.Path)
	if err != nil {
		os.Remove(name)
		return "", err
	}
	if err := a.Write(w); err != nil {
		w.Close()
		os.Remove(name)
		return "", fmt.Errorf("write %s: %w", a.Path, err)
	}
	if err := w.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close %s: %w", a.Path, err)
	}
	return name, nil
}

// Sink commits a cleaned table and its run report together.
// It implements pipeline.CleanSink.
type Sink struct{}

// Commit writes the table as CSV and the report as indented JSON, both or
// neither.
func (Sink) Commit(ctx context.Context, tablePath string, table domain.Frame, reportPath string, report domain.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Commit(FrameArtifact(tablePath, table), JSONArtifact(reportPath, report))
}
