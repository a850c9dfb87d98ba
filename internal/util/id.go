package util

import (
	"strings"

	"github.com/google/uuid"
)

// DraftIDPrefix marks locally-generated ids so they can never be confused
// with server-assigned ones.
const DraftIDPrefix = "tmp-"

func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// NewDraftID returns a temporary id for a not-yet-saved entity.
func NewDraftID() string {
	return DraftIDPrefix + uuid.NewString()
}

// IsDraftID reports whether id was generated locally.
func IsDraftID(id string) bool {
	return strings.HasPrefix(id, DraftIDPrefix)
}
