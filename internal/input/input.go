// Package input opens report inputs: local files, stdin, or http(s) URLs,
// optionally gzip, tar.gz or zip compressed. Archives are streamed and no
// temporary files are created.
package input

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// Stdin is the name that selects standard input.
const Stdin = "-"

var ErrNoMember = errors.New("no matching file in archive")

// maxRemoteZip bounds how much of a remote zip is buffered in memory.
const maxRemoteZip = 512 << 20

var httpClient = &http.Client{Timeout: 5 * time.Minute}

// Reader is an opened input. Close releases every underlying handle.
type Reader struct {
	io.Reader
	Name    string
	closers []io.Closer
}

func (r *Reader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Open opens name for reading. For archives, member selects the entry by
// base name; an empty member selects the first regular file.
func Open(ctx context.Context, name, member string) (*Reader, error) {
	if name == Stdin {
		return &Reader{Reader: os.Stdin, Name: "stdin"}, nil
	}

	r := &Reader{Name: name}
	raw, err := openRaw(ctx, name)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, raw)

	if err := r.unwrap(raw, name, member); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return r, nil
}

func isRemote(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

func openRaw(ctx context.Context, name string) (io.ReadCloser, error) {
	if !isRemote(name) {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	slog.Info("Fetching input", "url", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, name, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (r *Reader) unwrap(raw io.ReadCloser, name, member string) error {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gzr, err := gzip.NewReader(raw)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, gzr)
		tr, err := findTarMember(tar.NewReader(gzr), member)
		if err != nil {
			return err
		}
		r.Reader = tr
	case strings.HasSuffix(lower, ".gz"):
		gzr, err := gzip.NewReader(raw)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, gzr)
		r.Reader = gzr
	case strings.HasSuffix(lower, ".zip"):
		zr, err := openZip(raw, name)
		if err != nil {
			return err
		}
		f, err := findZipMember(zr, member)
		if err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		r.closers = append(r.closers, rc)
		r.Reader = rc
	default:
		r.Reader = raw
	}
	return nil
}

func openZip(raw io.ReadCloser, name string) (*zip.Reader, error) {
	if f, ok := raw.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return zip.NewReader(f, info.Size())
	}
	data, err := io.ReadAll(io.LimitReader(raw, maxRemoteZip+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxRemoteZip {
		return nil, fmt.Errorf("remote zip %s exceeds %d bytes", name, maxRemoteZip)
	}
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

func matches(entry, member string) bool {
	return member == "" || path.Base(entry) == member
}

func findTarMember(tr *tar.Reader, member string) (io.Reader, error) {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, ErrNoMember
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag == tar.TypeReg && matches(header.Name, member) {
			return tr, nil
		}
	}
}

func findZipMember(zr *zip.Reader, member string) (*zip.File, error) {
	for _, f := range zr.File {
		if !f.FileInfo().Mode().IsRegular() {
			continue
		}
		if matches(f.Name, member) {
			return f, nil
		}
	}
	return nil, ErrNoMember
}
