package core

import (
	"fmt"
	"strings"
	"weak"

	"github.com/google/uuid"
)

// Handle identifies a started task. The zero Handle refers to no task.
type Handle struct {
	id uuid.UUID
}

// NewHandle returns a fresh, never before issued handle.
func NewHandle() Handle {
	return Handle{id: uuid.New()}
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.id == uuid.Nil }

func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return h.id.String()
}

// Owner is a non-owning identity of an object that tasks are attached to.
//
// Owners compare by identity: two Owners are equal only if they were built
// from the same pointer (OwnerOf) or the same identifier (OwnerID). Holding an
// Owner never keeps the underlying object alive. The zero Owner means "no owner".
type Owner struct {
	key   any
	label string
}

type ownerIDKey string

// OwnerOf returns the Owner identity of p. Only a weak pointer to p is kept.
// A nil p yields the zero Owner.
func OwnerOf[T any](p *T) Owner {
	if p == nil {
		return Owner{}
	}
	return Owner{
		key:   weak.Make(p),
		label: fmt.Sprintf("%T", p),
	}
}

// OwnerID returns an Owner for a host-level identifier such as an entity ID.
// Whitespace-only identifiers yield the zero Owner.
func OwnerID(id string) Owner {
	id = strings.TrimSpace(id)
	if id == "" {
		return Owner{}
	}
	return Owner{key: ownerIDKey(id), label: id}
}

// IsZero reports whether o is the zero Owner.
func (o Owner) IsZero() bool { return o.key == nil }

// Equal reports whether o and other are the same identity.
func (o Owner) Equal(other Owner) bool {
	return o.key != nil && o.key == other.key
}

func (o Owner) String() string {
	if o.IsZero() {
		return "none"
	}
	return o.label
}

// normalizeTag trims whitespace. An empty result means "no tag".
func normalizeTag(tag string) string {
	return strings.TrimSpace(tag)
}

func tagMatches(stored, query string) bool {
	return stored != "" && strings.EqualFold(stored, query)
}
