package files

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/strongbox/pkg/query"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "files", "f").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("version_id", "VersionID").
	Project("version_number", "VersionNumber").
	Project("sort_order", "Order").
	Project("name", "Name").
	Project("mime_type", "MimeType").
	Project("size", "Size").
	Project("owner_id", "OwnerID").
	Project("create_date", "CreateDate").
	Project("latest", "Latest")

var (
	byOrder   = query.SortField{Field: "Order"}
	byCreated = query.SortField{Field: "CreateDate"}
	byVersion = query.SortField{Field: "VersionNumber"}
)

func scanFile(s repository.Scanner) (File, error) {
	var f File
	var documentID uuid.NullUUID
	err := s.Scan(
		&f.ID,
		&documentID,
		&f.VersionID,
		&f.VersionNumber,
		&f.Order,
		&f.Name,
		&f.MimeType,
		&f.Size,
		&f.OwnerID,
		&f.CreateDate,
		&f.Latest,
	)
	if documentID.Valid {
		f.DocumentID = &documentID.UUID
	}
	return f, err
}

func nullable(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
