// Package prefixed_uuid generates UUIDs with a readable prefix, used
// for request-scoped session identifiers.
package prefixed_uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PrefixedUUID is a UUID tagged with a prefix, rendered "prefix-uuid".
type PrefixedUUID struct {
	Prefix string
	UUID   uuid.UUID
}

// New creates a PrefixedUUID with a freshly generated UUID.
func New(prefix string) PrefixedUUID {
	return PrefixedUUID{Prefix: prefix, UUID: uuid.New()}
}

// FromString parses a "prefix-uuid" string.
func FromString(s string) (PrefixedUUID, error) {
	idx := strings.Index(s, "-")
	if idx == -1 {
		return PrefixedUUID{}, fmt.Errorf("invalid prefixed UUID format: %s", s)
	}

	parsed, err := uuid.Parse(s[idx+1:])
	if err != nil {
		return PrefixedUUID{}, fmt.Errorf("invalid UUID: %w", err)
	}

	return PrefixedUUID{Prefix: s[:idx], UUID: parsed}, nil
}

func (p PrefixedUUID) String() string {
	return p.Prefix + "-" + p.UUID.String()
}
