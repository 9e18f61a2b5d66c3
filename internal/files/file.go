// Package files implements the file domain: encrypted uploads organized in
// version chains, attached to documents or held as orphans by their owner.
// It covers upload, ordering, renditions, zip export and translation.
package files

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/internal/archive"
	"github.com/JaimeStill/strongbox/internal/blobs"
)

// File is one version of a logical file. Records sharing VersionID form a
// chain numbered 0..N-1; only the highest-numbered record is Latest.
type File struct {
	ID            uuid.UUID  `json:"id"`
	DocumentID    *uuid.UUID `json:"document_id"`
	VersionID     uuid.UUID  `json:"version_id"`
	VersionNumber int        `json:"version"`
	Order         int        `json:"order"`
	Name          string     `json:"name"`
	MimeType      string     `json:"mimetype"`
	Size          int64      `json:"size"`
	OwnerID       string     `json:"owner"`
	CreateDate    time.Time  `json:"create_date"`
	Latest        bool       `json:"latest"`
	Processing    bool       `json:"processing"`
}

// Orphan reports whether the file is not attached to a document.
func (f *File) Orphan() bool {
	return f.DocumentID == nil
}

// Handle locates the file's blobs under its owner's key.
func (f *File) Handle() blobs.Handle {
	return blobs.Handle{ID: f.ID, Owner: f.OwnerID}
}

// CreateCommand carries an upload. DocumentID attaches the new file to a
// document; PreviousFileID makes it the next version of an existing chain
// and takes precedence over DocumentID.
type CreateCommand struct {
	Name           string
	MimeType       string
	Body           io.Reader
	DocumentID     *uuid.UUID
	PreviousFileID *uuid.UUID
}

// Data is a readable rendition of a file. The caller closes Rendition.Body.
type Data struct {
	File      *File
	Rendition *blobs.Rendition
}

// Export is a named set of archive entries ready to be streamed.
type Export struct {
	Name    string
	Entries []archive.Entry
}

// Tracker reports files whose change processing is still running.
type Tracker interface {
	Processing(id uuid.UUID) bool
}
