package filestore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/weatherlab/sfc-etl/internal/domain"
)

const utf8BOM = "\ufeff"

// WriteFrame writes a header row then one record per row. Null cells are
// written as empty fields.
func WriteFrame(w io.Writer, f domain.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(f.StringRows()); err != nil {
		return err
	}
	return cw.Error()
}

// ReadFrame reads a CSV table with a header row into an uncoerced text frame.
// Empty fields become null. Short rows are padded with nulls; long rows are
// an error.
func ReadFrame(r io.Reader) (domain.Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Frame{}, errors.New("csv: missing header row")
	}
	if err != nil {
		return domain.Frame{}, fmt.Errorf("csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Frame{}, fmt.Errorf("csv: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return domain.Frame{}, fmt.Errorf("csv line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		rows = append(rows, rec)
	}
	return domain.NewTextFrame(header, rows), nil
}

// WriteFrameFile writes f to path, compressing by extension.
func WriteFrameFile(path string, f domain.Frame) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := WriteFrame(w, f); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

// ReadFrameFile reads a CSV artifact, decompressing by extension.
func ReadFrameFile(path string) (domain.Frame, error) {
	r, err := Open(path)
	if err != nil {
		return domain.Frame{}, err
	}
	defer r.Close()
	f, err := ReadFrame(r)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}
