// Package selection implements the property panel state machine of an editor.
//
//	Idle ──SelectLeaf──▶ LeafSelected ──SelectLeaf(other)──▶ LeafSelected
//	  ▲                     │
//	  └──Deselect/Forget────┘
//	Idle ──ActivateContainer──▶ ContainerActive
//
// Preview mode forces Idle and refuses every selection until it is exited.
package selection

import (
	"github.com/aretw0/formtree/pkg/domain"
)

// Machine tracks the selected node, the preview flag and a staged property edit.
type Machine struct {
	mode    domain.SelectionMode
	nodeID  string
	preview bool
	pending *domain.PendingEdit

	onChange func(domain.Selection)
}

// New returns a machine in the Idle state. onChange, if set, receives every
// state that differs from the previous one.
func New(onChange func(domain.Selection)) *Machine {
	return &Machine{mode: domain.SelectionIdle, onChange: onChange}
}

// Current returns a snapshot of the state.
func (m *Machine) Current() domain.Selection {
	return domain.Selection{Mode: m.mode, NodeID: m.nodeID, Preview: m.preview}
}

// SelectLeaf makes id the leaf whose properties are shown.
// Selecting another leaf drops any staged edit of the previous one.
func (m *Machine) SelectLeaf(id string) error {
	if m.preview {
		return domain.ErrPreviewActive
	}
	if m.pending != nil && m.pending.NodeID != id {
		m.pending = nil
	}
	m.set(domain.SelectionLeaf, id)
	return nil
}

// ActivateContainer marks id as the active container. The property panel is hidden.
func (m *Machine) ActivateContainer(id string) error {
	if m.preview {
		return domain.ErrPreviewActive
	}
	m.pending = nil
	m.set(domain.SelectionContainer, id)
	return nil
}

// Deselect returns to Idle.
func (m *Machine) Deselect() {
	m.pending = nil
	m.set(domain.SelectionIdle, "")
}

// Forget returns to Idle when the selected node is among the destroyed ids.
// Called with no ids it always resets, which is what clearing the tree needs.
func (m *Machine) Forget(ids ...string) {
	if len(ids) == 0 {
		m.Deselect()
		return
	}
	for _, id := range ids {
		if m.pending != nil && m.pending.NodeID == id {
			m.pending = nil
		}
		if id == m.nodeID {
			m.Deselect()
			return
		}
	}
}

// EnterPreview forces Idle and blocks selection. It is refused while an edit is staged.
func (m *Machine) EnterPreview() error {
	if m.pending != nil {
		return domain.ErrEditPending
	}
	if m.preview {
		return nil
	}
	m.preview = true
	m.mode, m.nodeID = domain.SelectionIdle, ""
	m.notify()
	return nil
}

// ExitPreview leaves preview mode in the Idle state.
func (m *Machine) ExitPreview() {
	if !m.preview {
		return
	}
	m.preview = false
	m.notify()
}

// Stage records an edit awaiting validation. Only the selected leaf can be edited.
func (m *Machine) Stage(edit domain.PendingEdit) error {
	if m.preview {
		return domain.ErrPreviewActive
	}
	if m.mode != domain.SelectionLeaf || m.nodeID != edit.NodeID {
		return domain.ErrNotLeaf
	}
	m.pending = &edit
	return nil
}

// Pending returns the staged edit, if any.
func (m *Machine) Pending() (domain.PendingEdit, bool) {
	if m.pending == nil {
		return domain.PendingEdit{}, false
	}
	return *m.pending, true
}

// Clear drops the staged edit.
func (m *Machine) Clear() {
	m.pending = nil
}

func (m *Machine) set(mode domain.SelectionMode, id string) {
	if m.mode == mode && m.nodeID == id {
		return
	}
	m.mode, m.nodeID = mode, id
	m.notify()
}

func (m *Machine) notify() {
	if m.onChange != nil {
		m.onChange(m.Current())
	}
}
