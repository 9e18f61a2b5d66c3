// Package documents provides read access to the documents files attach to.
// Documents are owned elsewhere; only the title and language are consumed here.
package documents

import "github.com/google/uuid"

// Document is the projection of a document the file domain needs.
type Document struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Language string    `json:"language"`
}
