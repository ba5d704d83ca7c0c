package ports

import (
	"context"

	"github.com/aretw0/formtree/pkg/domain"
)

// Catalog resolves control types to their definitions.
type Catalog interface {
	// GetDefinition returns the definition for a control type.
	// An empty groupID matches when exactly one definition has the controlID.
	// Returns a *domain.UnknownControlTypeError when nothing matches.
	GetDefinition(controlID, groupID string) (domain.ControlDefinition, error)

	// List returns every definition, ordered by group then control id.
	List() []domain.ControlDefinition
}

// Watchable defines an interface for catalogs that can notify about backend changes.
// This is typically used for hot-reload of a catalog directory.
type Watchable interface {
	// Watch returns a channel that receives the ID of every changed definition document.
	Watch(ctx context.Context) (<-chan string, error)
}
