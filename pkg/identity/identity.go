// Package identity manages canonical identities across the two record
// populations this system carries: the externally supplied provider feed
// (numeric provider IDs, read-only) and the internally authored records
// (separately sequenced IDs). A canonical ID is a namespace tag plus a
// namespace-local integer; the two integer spaces are independent, so the
// tag is what keeps them from ever colliding.
package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Namespace identifies which record population produced an identity.
type Namespace string

// The two coexisting namespaces.
const (
	// External is the externally supplied, read-only provider feed.
	External Namespace = "external"
	// Internal is the internally authored population.
	Internal Namespace = "internal"
)

// Valid reports whether ns is one of the two known namespaces.
func (ns Namespace) Valid() bool {
	return ns == External || ns == Internal
}

// CanonicalID is the single collision-free identifier a resolved entity is
// known by outside this package.
type CanonicalID struct {
	Namespace Namespace
	Local     int64
}

// String encodes the canonical ID as "<namespace>:<local>". This is the
// form used everywhere outside this package, including audit output.
func (id CanonicalID) String() string {
	return string(id.Namespace) + ":" + strconv.FormatInt(id.Local, 10)
}

// IsZero reports whether id is the zero value.
func (id CanonicalID) IsZero() bool {
	return id.Namespace == "" && id.Local == 0
}

// ExternalID builds a canonical ID in the external namespace.
func ExternalID(local int64) CanonicalID {
	return CanonicalID{Namespace: External, Local: local}
}

// InternalID builds a canonical ID in the internal namespace.
func InternalID(local int64) CanonicalID {
	return CanonicalID{Namespace: Internal, Local: local}
}

// Parse decodes a canonical identifier produced by String. Parse(id.String())
// round-trips for every valid id.
func Parse(s string) (CanonicalID, error) {
	ns, localStr, ok := strings.Cut(s, ":")
	if !ok {
		return CanonicalID{}, fmt.Errorf("invalid canonical id %q: missing namespace separator", s)
	}

	namespace := Namespace(ns)
	if !namespace.Valid() {
		return CanonicalID{}, fmt.Errorf("invalid canonical id %q: unknown namespace %q", s, ns)
	}

	local, err := strconv.ParseInt(localStr, 10, 64)
	if err != nil {
		return CanonicalID{}, fmt.Errorf("invalid canonical id %q: %w", s, err)
	}
	if local <= 0 {
		return CanonicalID{}, fmt.Errorf("invalid canonical id %q: local id must be positive", s)
	}

	return CanonicalID{Namespace: namespace, Local: local}, nil
}

// MustParse is Parse that panics on error, for tests and literals.
func MustParse(s string) CanonicalID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}
