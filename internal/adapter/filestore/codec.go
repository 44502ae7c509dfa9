package filestore

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// Compression suffixes recognised on artifact paths.
const (
	gzipExt = ".gz"
	zstdExt = ".zst"
)

// CompressionExt returns the file suffix for a RAW_COMPRESSION value
// ("none", "gzip" or "zstd").
func CompressionExt(compression string) string {
	switch compression {
	case "gzip":
		return gzipExt
	case "zstd":
		return zstdExt
	default:
		return ""
	}
}

// stripCompressionExt removes a trailing .gz or .zst.
func stripCompressionExt(path string) string {
	for _, ext := range []string{gzipExt, zstdExt} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

// Open opens path for reading, transparently decompressing .gz and .zst files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, gzipExt):
		gz, err := pgzip.NewReaderN(f, 256*1024, runtime.NumCPU())
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return &stackedReader{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case strings.HasSuffix(path, zstdExt):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd %s: %w", path, err)
		}
		rc := dec.IOReadCloser()
		return &stackedReader{Reader: rc, closers: []io.Closer{rc, f}}, nil
	default:
		return f, nil
	}
}

// Create creates path for writing, compressing by its extension. Close must
// be called to flush the compressor.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return wrapWriter(f, path)
}

// wrapWriter layers the compressor implied by name's extension over f.
func wrapWriter(f *os.File, name string) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, gzipExt):
		gz := pgzip.NewWriter(f)
		return &stackedWriter{Writer: gz, closers: []io.Closer{gz, f}}, nil
	case strings.HasSuffix(name, zstdExt):
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create zstd %s: %w", name, err)
		}
		return &stackedWriter{Writer: enc, closers: []io.Closer{enc, f}}, nil
	default:
		return f, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error { return closeAll(s.closers) }

type stackedWriter struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriter) Close() error { return closeAll(s.closers) }

// closeAll closes inner layers first and returns the first error.
func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteText writes body to path, compressing by extension.
func WriteText(path, body string) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

// ReadText reads a whole text artifact.
func ReadText(path string) (string, error) {
	r, err := Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
