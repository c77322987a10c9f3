package identity

import (
	"context"

	"github.com/pitchside/pitchside/pkg/errors"
)

// Population answers existence queries against one stored record
// population. The store layer implements this per entity kind.
type Population interface {
	// Exists reports whether a record with the given namespace-local
	// integer exists in the given namespace.
	Exists(ctx context.Context, kind string, ns Namespace, local int64) (bool, error)
}

// Resolver decodes bare integers whose namespace is unknown. Report
// references store a single integer column with no source tag; its meaning
// is recovered by probing the external population first, then the internal
// one.
type Resolver struct {
	pop Population
}

// NewResolver creates a resolver over the given population.
func NewResolver(pop Population) *Resolver {
	return &Resolver{pop: pop}
}

// Lookup resolves a bare integer to a canonical ID. The external namespace
// is checked first. A value present in both namespaces is ambiguous and
// returns a fatal CollisionError; a value present in neither returns
// ErrNotFound.
func (r *Resolver) Lookup(ctx context.Context, kind string, bare int64) (CanonicalID, error) {
	inExternal, err := r.pop.Exists(ctx, kind, External, bare)
	if err != nil {
		return CanonicalID{}, err
	}

	inInternal, err := r.pop.Exists(ctx, kind, Internal, bare)
	if err != nil {
		return CanonicalID{}, err
	}

	switch {
	case inExternal && inInternal:
		return CanonicalID{}, &errors.CollisionError{
			Kind:    kind,
			LocalID: bare,
			Detail:  "bare reference matches a record in both namespaces",
		}
	case inExternal:
		return ExternalID(bare), nil
	case inInternal:
		return InternalID(bare), nil
	default:
		return CanonicalID{}, &errors.NotFoundError{Kind: kind, ID: bare}
	}
}
