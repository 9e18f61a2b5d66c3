package documents

import (
	"github.com/JaimeStill/strongbox/pkg/query"
	"github.com/JaimeStill/strongbox/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("title", "Title").
	Project("language", "Language").
	SoftDelete("deleted_at")

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(&d.ID, &d.Title, &d.Language)
	return d, err
}
