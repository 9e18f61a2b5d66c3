package archive_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"

	"github.com/JaimeStill/strongbox/internal/archive"
)

type trackedReader struct {
	io.Reader
	closed *int
}

func (r trackedReader) Close() error {
	*r.closed++
	return nil
}

func entry(name, mimeType, body string, closed *int) archive.Entry {
	return archive.Entry{
		Name:     name,
		MimeType: mimeType,
		Open: func(context.Context) (io.ReadCloser, error) {
			return trackedReader{Reader: strings.NewReader(body), closed: closed}, nil
		},
	}
}

func TestStream(t *testing.T) {
	closed := 0
	entries := []archive.Entry{
		entry("report.pdf", "application/pdf", "pdf bytes", &closed),
		entry("report.pdf", "application/pdf", "second copy", &closed),
		entry("", "image/png", "png bytes", &closed),
	}

	var buf bytes.Buffer
	if err := archive.Stream(context.Background(), &buf, entries); err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if closed != len(entries) {
		t.Errorf("closed = %d, want %d", closed, len(entries))
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}

	got := map[string]string{}
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		got[f.Name] = string(data)
		names = append(names, f.Name)
	}

	wantNames := []string{"0-report.pdf", "1-report.pdf", "2-2.png"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if got["1-report.pdf"] != "second copy" {
		t.Errorf("entry 1 = %q, want %q", got["1-report.pdf"], "second copy")
	}
}

func TestStreamAbortsOnFailure(t *testing.T) {
	closed := 0
	failure := errors.New("authentication failed")
	opened := 0

	entries := []archive.Entry{
		entry("a.txt", "text/plain", "alpha", &closed),
		{
			Name: "b.txt",
			Open: func(context.Context) (io.ReadCloser, error) {
				return nil, failure
			},
		},
		{
			Name: "c.txt",
			Open: func(context.Context) (io.ReadCloser, error) {
				opened++
				return io.NopCloser(strings.NewReader("charlie")), nil
			},
		},
	}

	var buf bytes.Buffer
	err := archive.Stream(context.Background(), &buf, entries)
	if !errors.Is(err, failure) {
		t.Fatalf("err = %v, want %v", err, failure)
	}
	if opened != 0 {
		t.Error("entries after the failure were opened")
	}
	if closed != 1 {
		t.Errorf("closed = %d, want 1", closed)
	}
	if _, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Error("aborted stream produced a readable archive")
	}
}

func TestStreamReadFailure(t *testing.T) {
	failure := errors.New("chunk 3: message authentication failed")
	entries := []archive.Entry{{
		Name: "a.bin",
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(io.MultiReader(strings.NewReader("partial"), &errReader{failure})), nil
		},
	}}

	if err := archive.Stream(context.Background(), io.Discard, entries); !errors.Is(err, failure) {
		t.Errorf("err = %v, want %v", err, failure)
	}
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

func TestStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	closed := 0
	err := archive.Stream(ctx, io.Discard, []archive.Entry{entry("a", "", "x", &closed)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want %v", err, context.Canceled)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		fallback string
		mimeType string
		want     string
	}{
		{"named", "scan.pdf", "0", "application/pdf", "scan.pdf"},
		{"unnamed pdf", "", "3", "application/pdf", "3.pdf"},
		{"unnamed jpeg", "", "data", "image/jpeg", "data.jpg"},
		{"unnamed text with charset", "", "2", "text/plain; charset=utf-8", "2.txt"},
		{"unknown type", "", "4", "application/x-unknown-thing", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := archive.DisplayName(tt.fileName, tt.fallback, tt.mimeType); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quarterly Report", "Quarterly_Report"},
		{"a -- b", "a_b"},
		{"plain", "plain"},
		{"2024/Q1: sales!", "2024_Q1_sales_"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := archive.SafeName(tt.in); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
