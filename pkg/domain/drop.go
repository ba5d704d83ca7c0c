package domain

import "fmt"

// DropSource tells where a dragged item comes from.
type DropSource string

const (
	// SourceCatalog is a palette item: ItemID is a controlId.
	SourceCatalog DropSource = "catalog"
	// SourceCanvas is an existing node: ItemID is its runtime id.
	SourceCanvas DropSource = "canvas"
)

// DropEvent is what a drag-and-drop adapter hands to the editor once a drop
// completes. Exactly one primitive (insert or move) results from it.
type DropEvent struct {
	SourceKind     DropSource `json:"sourceKind"`
	ItemID         string     `json:"itemId"`
	GroupID        string     `json:"groupId,omitempty"`
	TargetParentID string     `json:"targetParentId"`
	TargetIndex    int        `json:"targetIndex"`
}

// Validate checks the event is well formed.
func (e DropEvent) Validate() error {
	switch e.SourceKind {
	case SourceCatalog, SourceCanvas:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidDrop, e.SourceKind)
	}
	if e.ItemID == "" {
		return fmt.Errorf("%w: missing item id", ErrInvalidDrop)
	}
	return nil
}
