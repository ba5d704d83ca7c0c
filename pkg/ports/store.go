package ports

import (
	"context"

	"github.com/aretw0/formtree/pkg/domain"
)

// FormStore defines the interface for persisting form documents.
type FormStore interface {
	// Save persists the document under the given form ID.
	Save(ctx context.Context, formID string, doc domain.Document) error

	// Load retrieves the document for a form ID.
	// Returns domain.ErrFormNotFound if the form does not exist.
	Load(ctx context.Context, formID string) (domain.Document, error)

	// Delete removes a form. Deleting an unknown form is not an error.
	Delete(ctx context.Context, formID string) error

	// List returns the IDs of all stored forms.
	List(ctx context.Context) ([]string, error)
}
