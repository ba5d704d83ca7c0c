package domain

// NodeKind is the variant tag of a node.
type NodeKind string

const (
	// KindLeaf is a single interactive or display control. Leaves own properties and never children.
	KindLeaf NodeKind = "leaf"
	// KindContainer is a layout box holding an ordered list of leaves and containers.
	KindContainer NodeKind = "container"
)

// Node is a single entry of the form tree.
//
// ID is the runtime identity: generated when the node is created, stable for its
// lifetime and never persisted. ControlID is the catalog type and is not unique.
type Node struct {
	ID        string   `json:"id"`
	ControlID string   `json:"controlId"`
	GroupID   string   `json:"groupId,omitempty"`
	Kind      NodeKind `json:"kind"`

	// ParentID is Root for top-level nodes.
	ParentID string `json:"parentId"`

	// Children holds the ordered child ids of a container.
	Children []string `json:"children,omitempty"`

	// Properties is only set on leaves.
	Properties *PropertyBag `json:"properties,omitempty"`
}

// IsContainer reports whether the node is a container.
func (n *Node) IsContainer() bool {
	return n.Kind == KindContainer
}

// Snapshot returns a deep copy of the node that the caller may retain or modify.
func (n *Node) Snapshot() Node {
	cp := *n
	if n.Children != nil {
		cp.Children = append([]string(nil), n.Children...)
	}
	cp.Properties = n.Properties.Clone()
	return cp
}
