// Package archive streams zip exports of decrypted files.
package archive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Entry is one file of an archive. Open is called only when the entry is
// written, so at most one entry is open at a time.
type Entry struct {
	Name     string
	MimeType string
	Modified time.Time
	Open     func(ctx context.Context) (io.ReadCloser, error)
}

// Stream writes entries to w as a zip archive named {index}-{displayName}.
// On any failure the central directory is not written and the error is
// returned; the archive left in w is unusable and the caller must abort
// the transport.
func Stream(ctx context.Context, w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeEntry(ctx, zw, i, e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	return zw.Close()
}

func writeEntry(ctx context.Context, zw *zip.Writer, i int, e Entry) error {
	src, err := e.Open(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	header := &zip.FileHeader{
		Name:     strconv.Itoa(i) + "-" + DisplayName(e.Name, strconv.Itoa(i), e.MimeType),
		Method:   zip.Deflate,
		Modified: e.Modified,
	}

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	return err
}

// DisplayName returns name, or {fallback}.{ext} with the extension derived
// from the MIME type when name is empty.
func DisplayName(name, fallback, mimeType string) string {
	if name != "" {
		return name
	}
	name = fallback
	if ext := Extension(mimeType); ext != "" {
		name += "." + ext
	}
	return name
}

var commonExtensions = map[string]string{
	"application/pdf":  "pdf",
	"application/zip":  "zip",
	"image/jpeg":       "jpg",
	"image/png":        "png",
	"image/gif":        "gif",
	"text/plain":       "txt",
	"text/csv":         "csv",
	"application/json": "json",
}

// Extension returns the usual file extension for mimeType, without the dot.
func Extension(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	if ext, ok := commonExtensions[mt]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return ""
}

var nonWord = regexp.MustCompile(`\W+`)

// SafeName replaces runs of non-word characters with underscores.
func SafeName(name string) string {
	return nonWord.ReplaceAllString(name, "_")
}
