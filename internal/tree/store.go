// Package tree holds the form node store: an arena of nodes keyed by runtime id
// plus an ordered root sequence. It is synchronous and performs no I/O.
package tree

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/google/uuid"
)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the default uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithHooks registers mount, unmount and tree-changed callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = h
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is the node arena. It is not safe for concurrent use.
type Store struct {
	nodes  map[string]*domain.Node
	roots  []string
	newID  func() string
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	batchDepth int
	pending    []func()
	ops        []domain.ChangeOp
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nodes:  make(map[string]*domain.Node),
		roots:  []string{},
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup is the result of Find.
type Lookup struct {
	Node domain.Node
	// Ancestors lists the enclosing containers, outermost first.
	Ancestors []domain.Node
	// Index is the position of the node inside its parent.
	Index int
}

// Insert creates a node from def under parentID at index and returns its runtime id.
// The index is clamped into [0, len(children)].
func (s *Store) Insert(def domain.ControlDefinition, parentID string, index int) (string, error) {
	return s.InsertWithProperties(def, def.NewProperties(), parentID, index)
}

// InsertWithProperties is Insert with an explicit property bag, used when loading
// documents whose stored values were overlaid onto the catalog defaults.
func (s *Store) InsertWithProperties(def domain.ControlDefinition, props *domain.PropertyBag, parentID string, index int) (string, error) {
	list, err := s.childList(parentID)
	if err != nil {
		return "", err
	}

	id := s.newID()
	if _, exists := s.nodes[id]; exists || id == domain.Root {
		return "", fmt.Errorf("id generator returned a duplicate id %q", id)
	}

	node := &domain.Node{
		ID:        id,
		ControlID: def.ControlID,
		GroupID:   def.GroupID,
		Kind:      def.Kind(),
		ParentID:  parentID,
	}
	if node.IsContainer() {
		node.Children = []string{}
	} else {
		if props == nil {
			props = domain.NewPropertyBag()
		}
		node.Properties = props
	}

	at := splice(list, id, index)
	s.nodes[id] = node

	s.logger.Debug("node inserted", "id", id, "control", def.ControlID, "parent", parentID, "index", at)
	s.queueMount(node, at, false)
	s.commit(domain.OpInsert)
	return id, nil
}

// Move relocates an existing node and its subtree. newIndex is interpreted after
// the node has been detached from its current position. Every check runs before
// the tree is touched, so a rejected move leaves it unchanged.
func (s *Store) Move(id, newParentID string, newIndex int) error {
	node, ok := s.nodes[id]
	if !ok {
		return &domain.NodeNotFoundError{NodeID: id}
	}
	if newParentID == id || s.isAncestor(id, newParentID) {
		return &domain.InvalidTargetError{NodeID: id, TargetID: newParentID}
	}
	if _, err := s.childList(newParentID); err != nil {
		return err
	}

	oldParentID := node.ParentID
	oldList, err := s.childList(oldParentID)
	if err != nil {
		return fmt.Errorf("node %q has a dangling parent: %w", id, err)
	}
	oldIndex := remove(oldList, id)

	newList, err := s.childList(newParentID)
	if err != nil {
		splice(oldList, id, oldIndex)
		return err
	}
	at := splice(newList, id, newIndex)
	node.ParentID = newParentID

	s.logger.Debug("node moved", "id", id, "from", oldParentID, "to", newParentID, "index", at)
	s.queueMount(node, at, true)
	s.commit(domain.OpMove)
	return nil
}

// Remove destroys a node and its whole subtree.
func (s *Store) Remove(id string) error {
	node, ok := s.nodes[id]
	if !ok {
		return &domain.NodeNotFoundError{NodeID: id}
	}
	if list, err := s.childList(node.ParentID); err == nil {
		remove(list, id)
	}

	var removed []*domain.Node
	s.postOrder(id, func(n *domain.Node) {
		removed = append(removed, n)
	})
	for _, n := range removed {
		delete(s.nodes, n.ID)
		s.queueUnmount(n)
	}

	s.logger.Debug("node removed", "id", id, "subtree", len(removed))
	s.commit(domain.OpRemove)
	return nil
}

// Clear removes every node and returns how many were destroyed.
func (s *Store) Clear() int {
	count := len(s.nodes)
	for _, rootID := range s.roots {
		s.postOrder(rootID, s.queueUnmount)
	}
	s.nodes = make(map[string]*domain.Node)
	s.roots = []string{}

	s.logger.Debug("tree cleared", "nodes", count)
	s.commit(domain.OpClear)
	return count
}

// Batch runs fn with change notifications held back, then emits a single
// TreeChanged event for everything fn did. op names the event; when empty it
// is derived from the primitives that ran. Primitives that succeeded before fn
// returned an error stay applied.
func (s *Store) Batch(op domain.ChangeOp, fn func() error) error {
	s.batchDepth++
	err := fn()
	s.batchDepth--
	if s.batchDepth == 0 && len(s.ops) > 0 {
		if op == "" {
			op = s.ops[0]
			for _, o := range s.ops[1:] {
				if o != op {
					op = domain.OpBatch
					break
				}
			}
		}
		s.flush(op)
	}
	return err
}

// Get returns the live node. Callers outside the editor should prefer Find.
func (s *Store) Get(id string) (*domain.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Find returns a snapshot of the node together with its ancestor breadcrumb.
func (s *Store) Find(id string) (Lookup, bool) {
	node, ok := s.nodes[id]
	if !ok {
		return Lookup{}, false
	}
	look := Lookup{Node: node.Snapshot()}
	if list, err := s.childList(node.ParentID); err == nil {
		look.Index = indexOf(*list, id)
	}
	for p := node.ParentID; p != domain.Root; {
		parent, ok := s.nodes[p]
		if !ok {
			break
		}
		look.Ancestors = append([]domain.Node{parent.Snapshot()}, look.Ancestors...)
		p = parent.ParentID
	}
	return look, true
}

// Roots returns the ids of the top-level nodes in order.
func (s *Store) Roots() []string {
	return append([]string(nil), s.roots...)
}

// Children returns the ordered child ids of a container, or of the root when id is Root.
func (s *Store) Children(id string) ([]string, error) {
	list, err := s.childList(id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), (*list)...), nil
}

// Len returns the number of nodes in the tree.
func (s *Store) Len() int {
	return len(s.nodes)
}

// Walk visits every node depth-first in render order. fn must not modify the tree.
// Returning a non-nil error stops the walk.
func (s *Store) Walk(fn func(n *domain.Node, depth int) error) error {
	var visit func(ids []string, depth int) error
	visit = func(ids []string, depth int) error {
		for _, id := range ids {
			n := s.nodes[id]
			if err := fn(n, depth); err != nil {
				return err
			}
			if n.IsContainer() {
				if err := visit(n.Children, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return visit(s.roots, 0)
}

// Validate checks the structural invariants: every node is reachable from the
// root exactly once, parent links agree with child lists, and only containers
// hold children.
func (s *Store) Validate() error {
	seen := make(map[string]bool, len(s.nodes))
	var check func(parentID string, ids []string) error
	check = func(parentID string, ids []string) error {
		for _, id := range ids {
			n, ok := s.nodes[id]
			if !ok {
				return fmt.Errorf("child %q of %q is not in the arena", id, parentID)
			}
			if seen[id] {
				return fmt.Errorf("node %q is reachable more than once", id)
			}
			seen[id] = true
			if n.ParentID != parentID {
				return fmt.Errorf("node %q records parent %q but is listed under %q", id, n.ParentID, parentID)
			}
			if !n.IsContainer() {
				if len(n.Children) > 0 {
					return fmt.Errorf("leaf %q has children", id)
				}
				continue
			}
			if n.Properties != nil {
				return fmt.Errorf("container %q has properties", id)
			}
			if err := check(id, n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(domain.Root, s.roots); err != nil {
		return err
	}
	if len(seen) != len(s.nodes) {
		return fmt.Errorf("%d nodes are unreachable from the root", len(s.nodes)-len(seen))
	}
	return nil
}

func (s *Store) childList(parentID string) (*[]string, error) {
	if parentID == domain.Root {
		return &s.roots, nil
	}
	parent, ok := s.nodes[parentID]
	if !ok {
		return nil, &domain.ParentNotFoundError{ParentID: parentID}
	}
	if !parent.IsContainer() {
		return nil, &domain.ParentNotFoundError{ParentID: parentID, IsLeaf: true}
	}
	return &parent.Children, nil
}

// isAncestor reports whether ancestorID encloses id.
func (s *Store) isAncestor(ancestorID, id string) bool {
	n, ok := s.nodes[id]
	for ok && n.ParentID != domain.Root {
		if n.ParentID == ancestorID {
			return true
		}
		n, ok = s.nodes[n.ParentID]
	}
	return false
}

func (s *Store) postOrder(id string, fn func(*domain.Node)) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	for _, child := range n.Children {
		s.postOrder(child, fn)
	}
	fn(n)
}

func (s *Store) queueMount(n *domain.Node, index int, moved bool) {
	if s.hooks.OnMount == nil {
		return
	}
	ev := domain.MountEvent{
		NodeID:    n.ID,
		ControlID: n.ControlID,
		ParentID:  n.ParentID,
		Index:     index,
		Moved:     moved,
	}
	s.pending = append(s.pending, func() { s.hooks.OnMount(ev) })
}

func (s *Store) queueUnmount(n *domain.Node) {
	if s.hooks.OnUnmount == nil {
		return
	}
	ev := domain.UnmountEvent{NodeID: n.ID, ControlID: n.ControlID}
	s.pending = append(s.pending, func() { s.hooks.OnUnmount(ev) })
}

func (s *Store) commit(op domain.ChangeOp) {
	s.ops = append(s.ops, op)
	if s.batchDepth > 0 {
		return
	}
	s.flush(op)
}

func (s *Store) flush(op domain.ChangeOp) {
	pending := s.pending
	s.pending = nil
	s.ops = nil
	for _, fire := range pending {
		fire()
	}
	if s.hooks.OnTreeChanged != nil {
		s.hooks.OnTreeChanged(domain.TreeChangedEvent{Op: op, Nodes: len(s.nodes)})
	}
}
