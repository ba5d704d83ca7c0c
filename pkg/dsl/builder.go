package dsl

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
)

// Builder manages the document construction.
type Builder struct {
	doc  domain.Document
	root *ContainerBuilder
	errs []error
}

// New creates a new document builder.
func New() *Builder {
	return &Builder{doc: domain.NewDocument(), root: &ContainerBuilder{}}
}

// Add appends a leaf control at the top level.
func (b *Builder) Add(controlID, groupID string) *NodeBuilder {
	return b.root.Add(controlID, groupID)
}

// Container appends a container at the top level.
func (b *Builder) Container(controlID, groupID string) *ContainerBuilder {
	return b.root.Container(controlID, groupID)
}

// Code sets the document's script code.
func (b *Builder) Code(code string) *Builder {
	b.doc.Code = code
	return b
}

// Feed appends a data feed definition. It must marshal to JSON.
func (b *Builder) Feed(feed any) *Builder {
	if raw, ok := b.marshal("feed", feed); ok {
		b.doc.Feeds = append(b.doc.Feeds, raw)
	}
	return b
}

// Script appends a script definition. It must marshal to JSON.
func (b *Builder) Script(script any) *Builder {
	if raw, ok := b.marshal("script", script); ok {
		b.doc.Scripts = append(b.doc.Scripts, raw)
	}
	return b
}

func (b *Builder) marshal(what string, v any) (json.RawMessage, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", what, err))
		return nil, false
	}
	return raw, true
}

// Build compiles the document.
func (b *Builder) Build() (domain.Document, error) {
	if len(b.errs) > 0 {
		return domain.Document{}, errors.Join(b.errs...)
	}
	doc := b.doc
	doc.Form = b.root.raw()
	return doc, nil
}

// BuildFor compiles the document and checks that every control exists in the
// catalog and that every value names a property of its control.
func (b *Builder) BuildFor(catalog ports.Catalog) (domain.Document, error) {
	doc, err := b.Build()
	if err != nil {
		return doc, err
	}
	var errs []error
	var check func(nodes []domain.RawNode, path string)
	check = func(nodes []domain.RawNode, path string) {
		for i, n := range nodes {
			at := fmt.Sprintf("%s[%d]", path, i)
			def, err := catalog.GetDefinition(n.ControlID(), n.GroupID())
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", at, err))
				continue
			}
			if children, ok := n.Children(); ok {
				check(children, at+".children")
				continue
			}
			for key := range n {
				if key == domain.KeyControlID || key == domain.KeyGroupID {
					continue
				}
				if !def.Properties.Has(key) {
					errs = append(errs, fmt.Errorf("%s: %w: %q", at, domain.ErrUnknownProperty, key))
				}
			}
		}
	}
	check(doc.Form, "form")
	if len(errs) > 0 {
		return domain.Document{}, errors.Join(errs...)
	}
	return doc, nil
}

// ContainerBuilder provides a fluent API for the children of a container.
type ContainerBuilder struct {
	controlID string
	groupID   string
	children  []child
}

type child interface {
	raw() domain.RawNode
}

// Add appends a leaf control to the container.
func (c *ContainerBuilder) Add(controlID, groupID string) *NodeBuilder {
	nb := &NodeBuilder{
		node: domain.RawNode{
			domain.KeyControlID: controlID,
			domain.KeyGroupID:   groupID,
		},
	}
	c.children = append(c.children, nb)
	return nb
}

// Container appends a nested container.
func (c *ContainerBuilder) Container(controlID, groupID string) *ContainerBuilder {
	cb := &ContainerBuilder{controlID: controlID, groupID: groupID}
	c.children = append(c.children, containerChild{cb})
	return cb
}

func (c *ContainerBuilder) raw() []domain.RawNode {
	out := make([]domain.RawNode, 0, len(c.children))
	for _, ch := range c.children {
		out = append(out, ch.raw())
	}
	return out
}

type containerChild struct{ c *ContainerBuilder }

func (cc containerChild) raw() domain.RawNode {
	return domain.RawNode{
		domain.KeyControlID: cc.c.controlID,
		domain.KeyGroupID:   cc.c.groupID,
		domain.KeyChildren:  cc.c.raw(),
	}
}

// NodeBuilder provides a fluent API for configuring a leaf.
type NodeBuilder struct {
	node domain.RawNode
}

// Set stores a property value. Reserved keys are ignored.
func (n *NodeBuilder) Set(name string, value any) *NodeBuilder {
	switch name {
	case domain.KeyControlID, domain.KeyGroupID, domain.KeyChildren:
		return n
	}
	n.node[name] = value
	return n
}

// Options stores a list property, flagging def as the default option.
func (n *NodeBuilder) Options(name, def string, values ...string) *NodeBuilder {
	opts := make([]domain.ListOption, len(values))
	for i, v := range values {
		opts[i] = domain.ListOption{Label: v, Value: v, Default: v == def}
	}
	return n.Set(name, opts)
}

func (n *NodeBuilder) raw() domain.RawNode {
	return n.node.Clone()
}
