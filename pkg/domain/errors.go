package domain

import (
	"errors"
	"fmt"
)

var (
	ErrParentNotFound     = errors.New("parent not found")
	ErrNodeNotFound       = errors.New("node not found")
	ErrInvalidTarget      = errors.New("invalid move target")
	ErrUnknownControlType = errors.New("unknown control type")
	ErrNotLeaf            = errors.New("node is not a leaf")
	ErrNotContainer       = errors.New("node is not a container")
	ErrPreviewActive      = errors.New("preview mode is active")
	ErrEditPending        = errors.New("a property edit is pending validation")
	ErrNoPendingEdit      = errors.New("no pending property edit")
	ErrUnknownProperty    = errors.New("unknown property")
	ErrUnknownOption      = errors.New("unknown list option")
	ErrInvalidDrop        = errors.New("invalid drop event")
	ErrFormNotFound       = errors.New("form not found")
	ErrMalformedChildren  = errors.New("children is not an array")
)

// ParentNotFoundError is returned when an insert or move targets a parent that
// does not exist or cannot hold children.
type ParentNotFoundError struct {
	ParentID string
	// IsLeaf is set when the parent exists but is a leaf.
	IsLeaf bool
}

func (e *ParentNotFoundError) Error() string {
	if e.IsLeaf {
		return fmt.Sprintf("parent %q is a leaf and cannot hold children", e.ParentID)
	}
	return fmt.Sprintf("parent %q not found", e.ParentID)
}

func (e *ParentNotFoundError) Unwrap() error { return ErrParentNotFound }

// NodeNotFoundError is returned when an operation names an absent node.
type NodeNotFoundError struct {
	NodeID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q not found", e.NodeID)
}

func (e *NodeNotFoundError) Unwrap() error { return ErrNodeNotFound }

// InvalidTargetError is returned when a move would put a node inside itself.
type InvalidTargetError struct {
	NodeID   string
	TargetID string
}

func (e *InvalidTargetError) Error() string {
	if e.NodeID == e.TargetID {
		return fmt.Sprintf("cannot move node %q into itself", e.NodeID)
	}
	return fmt.Sprintf("cannot move node %q into its descendant %q", e.NodeID, e.TargetID)
}

func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

// UnknownControlTypeError is returned when the catalog has no definition for
// a (controlId, groupId) pair.
type UnknownControlTypeError struct {
	ControlID string
	GroupID   string
}

func (e *UnknownControlTypeError) Error() string {
	return fmt.Sprintf("unknown control type %q in group %q", e.ControlID, e.GroupID)
}

func (e *UnknownControlTypeError) Unwrap() error { return ErrUnknownControlType }
