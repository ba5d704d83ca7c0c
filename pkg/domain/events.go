package domain

// ChangeOp names the structural operation behind a TreeChangedEvent.
type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpMove   ChangeOp = "move"
	OpRemove ChangeOp = "remove"
	OpClear  ChangeOp = "clear"
	OpLoad   ChangeOp = "load"
	OpBatch  ChangeOp = "batch"
	// OpProperty is used for rejection reporting only; property edits do not change the tree.
	OpProperty ChangeOp = "property"
	OpSelect   ChangeOp = "select"
)

// MountEvent asks the visual layer to create (or relocate) the visual for a node.
type MountEvent struct {
	NodeID    string `json:"nodeId"`
	ControlID string `json:"controlId"`
	ParentID  string `json:"parentId"`
	Index     int    `json:"index"`
	Moved     bool   `json:"moved,omitempty"`
}

// UnmountEvent asks the visual layer to destroy the visual for a node.
type UnmountEvent struct {
	NodeID    string `json:"nodeId"`
	ControlID string `json:"controlId"`
}

// TreeChangedEvent is emitted once per completed structural operation.
type TreeChangedEvent struct {
	Op ChangeOp `json:"op"`
	// Nodes is the number of nodes in the tree after the operation.
	Nodes int `json:"nodes"`
}

// RejectedEvent reports an operation that failed without touching the tree.
type RejectedEvent struct {
	Op  ChangeOp
	Err error
}

// MigrationEvent reports the rename rules applied to one loaded node.
type MigrationEvent struct {
	ControlID string   `json:"controlId"`
	Rules     []string `json:"rules"`
}

// LifecycleHooks receives editor notifications. Every field is optional.
type LifecycleHooks struct {
	OnMount            func(MountEvent)
	OnUnmount          func(UnmountEvent)
	OnTreeChanged      func(TreeChangedEvent)
	OnDirty            func()
	OnRejected         func(RejectedEvent)
	OnMigrated         func(MigrationEvent)
	OnSelectionChanged func(Selection)
}

// ComposeHooks merges several hook sets; each callback runs in argument order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		out.OnMount = chain(out.OnMount, h.OnMount)
		out.OnUnmount = chain(out.OnUnmount, h.OnUnmount)
		out.OnTreeChanged = chain(out.OnTreeChanged, h.OnTreeChanged)
		out.OnRejected = chain(out.OnRejected, h.OnRejected)
		out.OnMigrated = chain(out.OnMigrated, h.OnMigrated)
		out.OnSelectionChanged = chain(out.OnSelectionChanged, h.OnSelectionChanged)
		if h.OnDirty != nil {
			prev, next := out.OnDirty, h.OnDirty
			if prev == nil {
				out.OnDirty = next
			} else {
				out.OnDirty = func() { prev(); next() }
			}
		}
	}
	return out
}

func chain[E any](a, b func(E)) func(E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
