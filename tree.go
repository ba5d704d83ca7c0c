package formtree

import (
	"github.com/aretw0/formtree/pkg/domain"
)

// InsertFromCatalog creates a node of the given control type under parentID
// (domain.Root for the top level) at index, with the catalog's default properties.
func (e *Editor) InsertFromCatalog(controlID, groupID, parentID string, index int) (string, error) {
	def, err := e.catalog.GetDefinition(controlID, groupID)
	if err != nil {
		return "", e.reject(domain.OpInsert, err)
	}
	return e.InsertDefinition(def, parentID, index)
}

// InsertDefinition creates a node from an explicit definition.
func (e *Editor) InsertDefinition(def domain.ControlDefinition, parentID string, index int) (string, error) {
	id, err := e.store.Insert(def, parentID, index)
	if err != nil {
		return "", e.reject(domain.OpInsert, err)
	}
	return id, nil
}

// MoveExisting relocates a node and its subtree. index is interpreted after the
// node is detached from its current position.
func (e *Editor) MoveExisting(id, parentID string, index int) error {
	if err := e.store.Move(id, parentID, index); err != nil {
		return e.reject(domain.OpMove, err)
	}
	return nil
}

// Remove destroys a node and its subtree.
func (e *Editor) Remove(id string) error {
	if err := e.store.Remove(id); err != nil {
		return e.reject(domain.OpRemove, err)
	}
	return nil
}

// Clear removes every node and returns how many were destroyed.
func (e *Editor) Clear() int {
	n := e.store.Clear()
	e.sel.Forget()
	return n
}

// Drop applies a completed drag-and-drop gesture: a palette item becomes an
// insert, a canvas item becomes a move. It returns the id of the affected node.
// On error the tree is unchanged and the caller should restore its visual state.
func (e *Editor) Drop(ev domain.DropEvent) (string, error) {
	if err := ev.Validate(); err != nil {
		op := domain.OpInsert
		if ev.SourceKind == domain.SourceCanvas {
			op = domain.OpMove
		}
		return "", e.reject(op, err)
	}
	if ev.SourceKind == domain.SourceCatalog {
		return e.InsertFromCatalog(ev.ItemID, ev.GroupID, ev.TargetParentID, ev.TargetIndex)
	}
	if err := e.MoveExisting(ev.ItemID, ev.TargetParentID, ev.TargetIndex); err != nil {
		return "", err
	}
	return ev.ItemID, nil
}

// Batch runs fn so that all primitives it performs emit a single tree-changed notification.
func (e *Editor) Batch(fn func() error) error {
	return e.store.Batch("", fn)
}

// Find returns a snapshot of a node and its ancestor breadcrumb.
func (e *Editor) Find(id string) (Lookup, bool) {
	return e.store.Find(id)
}

// Roots returns the top-level node ids in order.
func (e *Editor) Roots() []string {
	return e.store.Roots()
}

// Children returns the ordered child ids of a container, or the roots for domain.Root.
func (e *Editor) Children(id string) ([]string, error) {
	return e.store.Children(id)
}

// Len returns the number of nodes in the form.
func (e *Editor) Len() int {
	return e.store.Len()
}

// Walk visits a snapshot of every node depth-first in render order.
func (e *Editor) Walk(fn func(n domain.Node, depth int) error) error {
	return e.store.Walk(func(n *domain.Node, depth int) error {
		return fn(n.Snapshot(), depth)
	})
}
