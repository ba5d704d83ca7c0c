package formtree

import (
	"errors"
	"fmt"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/schema"
)

// SelectLeaf shows the properties of a leaf in the panel.
func (e *Editor) SelectLeaf(id string) error {
	n, ok := e.store.Get(id)
	if !ok {
		return e.reject(domain.OpSelect, &domain.NodeNotFoundError{NodeID: id})
	}
	if n.IsContainer() {
		return e.reject(domain.OpSelect, fmt.Errorf("%w: %q", domain.ErrNotLeaf, id))
	}
	if err := e.sel.SelectLeaf(id); err != nil {
		return e.reject(domain.OpSelect, err)
	}
	return nil
}

// ActivateContainer marks a container as the active drop area and hides the panel.
func (e *Editor) ActivateContainer(id string) error {
	n, ok := e.store.Get(id)
	if !ok {
		return e.reject(domain.OpSelect, &domain.NodeNotFoundError{NodeID: id})
	}
	if !n.IsContainer() {
		return e.reject(domain.OpSelect, fmt.Errorf("%w: %q", domain.ErrNotContainer, id))
	}
	if err := e.sel.ActivateContainer(id); err != nil {
		return e.reject(domain.OpSelect, err)
	}
	return nil
}

// Deselect returns the panel to Idle and drops any staged edit.
func (e *Editor) Deselect() {
	e.sel.Deselect()
}

// Selection returns the panel state.
func (e *Editor) Selection() domain.Selection {
	return e.sel.Current()
}

// SelectedProperties returns the properties the panel shows for the selected
// leaf: enabled and in catalog order. It is empty unless a leaf is selected.
func (e *Editor) SelectedProperties() []domain.Property {
	cur := e.sel.Current()
	if cur.Mode != domain.SelectionLeaf {
		return nil
	}
	n, ok := e.store.Get(cur.NodeID)
	if !ok {
		return nil
	}
	props := n.Properties.Visible()
	for i := range props {
		props[i] = props[i].Clone()
	}
	return props
}

// Properties returns a copy of every property of a leaf, hidden ones included.
func (e *Editor) Properties(id string) (*domain.PropertyBag, error) {
	n, err := e.leaf(id)
	if err != nil {
		return nil, err
	}
	return n.Properties.Clone(), nil
}

// SetProperty validates raw against the property's kind and stores it on the leaf.
// A list keeps its current default when that option is still present; use
// SetListDefault to change it.
func (e *Editor) SetProperty(id, name string, raw any) error {
	if err := e.setProperty(id, name, raw); err != nil {
		return e.reject(domain.OpProperty, err)
	}
	return nil
}

func (e *Editor) setProperty(id, name string, raw any) error {
	if e.sel.Current().Preview {
		return domain.ErrPreviewActive
	}
	n, err := e.leaf(id)
	if err != nil {
		return err
	}
	p, ok := n.Properties.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProperty, name)
	}
	v, err := schema.Decode(p, raw)
	if err != nil {
		return err
	}
	if next, ok := v.(domain.List); ok {
		v = keepDefault(p.Value.(domain.List), next)
	}
	if err := n.Properties.SetValue(name, v); err != nil {
		return err
	}
	e.logger.Debug("property set", "node", id, "property", name)
	e.markDirty()
	return nil
}

// keepDefault carries the default flag of prev over to next, ignoring the flags next brings.
func keepDefault(prev, next domain.List) domain.List {
	cleared := domain.List{Options: make([]domain.ListOption, len(next.Options))}
	for i, o := range next.Options {
		o.Default = false
		cleared.Options[i] = o
	}
	def, ok := prev.DefaultValue()
	if !ok {
		return cleared
	}
	if flagged, err := cleared.WithDefault(def); err == nil {
		return flagged
	}
	return cleared
}

// SetListDefault flags exactly one option of a list property as its default.
func (e *Editor) SetListDefault(id, name, value string) error {
	if err := e.setListDefault(id, name, value); err != nil {
		return e.reject(domain.OpProperty, err)
	}
	return nil
}

func (e *Editor) setListDefault(id, name, value string) error {
	if e.sel.Current().Preview {
		return domain.ErrPreviewActive
	}
	n, err := e.leaf(id)
	if err != nil {
		return err
	}
	p, ok := n.Properties.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProperty, name)
	}
	list, ok := p.Value.(domain.List)
	if !ok {
		return &schema.ValidationError{Key: name, Reason: fmt.Sprintf("%s property has no options", p.Type())}
	}
	next, err := list.WithDefault(value)
	if err != nil {
		return err
	}
	if err := n.Properties.SetValue(name, next); err != nil {
		return err
	}
	e.markDirty()
	return nil
}

// StageEdit records a value for a property of the selected leaf without applying it.
func (e *Editor) StageEdit(name string, raw any) error {
	cur := e.sel.Current()
	if err := e.sel.Stage(domain.PendingEdit{NodeID: cur.NodeID, Property: name, Value: raw}); err != nil {
		return e.reject(domain.OpProperty, err)
	}
	return nil
}

// PendingEdit returns the staged edit, if any.
func (e *Editor) PendingEdit() (domain.PendingEdit, bool) {
	return e.sel.Pending()
}

// CommitEdit validates and applies the staged edit. On a validation error the
// edit stays staged so the panel can show the message next to the input.
func (e *Editor) CommitEdit() error {
	edit, ok := e.sel.Pending()
	if !ok {
		return e.reject(domain.OpProperty, domain.ErrNoPendingEdit)
	}
	if err := e.setProperty(edit.NodeID, edit.Property, edit.Value); err != nil {
		return e.reject(domain.OpProperty, err)
	}
	e.sel.Clear()
	return nil
}

// CancelEdit drops the staged edit.
func (e *Editor) CancelEdit() {
	e.sel.Clear()
}

// EnterPreview hides the panel and blocks selection until ExitPreview.
func (e *Editor) EnterPreview() error {
	if err := e.sel.EnterPreview(); err != nil {
		return e.reject(domain.OpSelect, err)
	}
	return nil
}

// ExitPreview returns to editing with nothing selected.
func (e *Editor) ExitPreview() {
	e.sel.ExitPreview()
}

// Validate checks the tree invariants and that every enabled required property has a value.
func (e *Editor) Validate() error {
	if err := e.store.Validate(); err != nil {
		return err
	}
	var errs []error
	_ = e.store.Walk(func(n *domain.Node, _ int) error {
		if n.IsContainer() {
			return nil
		}
		if err := schema.ValidateBag(n.Properties); err != nil {
			errs = append(errs, fmt.Errorf("node %s (%s): %w", n.ID, n.ControlID, err))
		}
		return nil
	})
	return errors.Join(errs...)
}

func (e *Editor) leaf(id string) (*domain.Node, error) {
	n, ok := e.store.Get(id)
	if !ok {
		return nil, &domain.NodeNotFoundError{NodeID: id}
	}
	if n.IsContainer() {
		return nil, fmt.Errorf("%w: %q", domain.ErrNotLeaf, id)
	}
	return n, nil
}
