package files

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength is the longest file name accepted, in characters.
const MaxNameLength = 200

// NextVersion returns next as the successor of prev: it joins prev's chain
// one number higher and inherits the document, order and owner.
func NextVersion(prev File, next File) File {
	next.VersionID = prev.VersionID
	next.VersionNumber = prev.VersionNumber + 1
	next.DocumentID = prev.DocumentID
	next.Order = prev.Order
	next.OwnerID = prev.OwnerID
	next.Latest = true
	return next
}

// ReorderPlan returns the new order of every file whose id appears in ids:
// its last index in ids. Files absent from ids are omitted and keep their
// order.
func ReorderPlan(files []File, ids []uuid.UUID) map[uuid.UUID]int {
	last := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		last[id] = i
	}

	plan := make(map[uuid.UUID]int)
	for _, f := range files {
		if order, ok := last[f.ID]; ok {
			plan[f.ID] = order
		}
	}
	return plan
}

// Contiguous reports whether versions, sorted ascending, are numbered 0..N-1
// with only the last marked latest.
func Contiguous(versions []File) bool {
	for i, v := range versions {
		if v.VersionNumber != i {
			return false
		}
		if v.Latest != (i == len(versions)-1) {
			return false
		}
	}
	return true
}

// ValidateName trims name and checks its length. Empty names are accepted
// only when required is false.
func ValidateName(name string, required bool) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if required && n == 0 {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	if n > MaxNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrValidation, MaxNameLength)
	}
	return name, nil
}
