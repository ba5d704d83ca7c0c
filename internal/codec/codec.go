// Package codec converts between a node store and the persisted form array.
// Both directions are pure and synchronous; persistence mechanics live in the
// FormStore adapters.
package codec

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/aretw0/formtree/internal/tree"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
	"github.com/aretw0/formtree/pkg/schema"
)

// Migrator upgrades a stored node to the current field names and reports the rules it applied.
type Migrator interface {
	Migrate(raw domain.RawNode) (domain.RawNode, []string)
}

// Serialize renders the store as the form array of a document. It never fails:
// every node in a valid store has a representation.
func Serialize(s *tree.Store) []domain.RawNode {
	return encodeList(s, s.Roots())
}

func encodeList(s *tree.Store, ids []string) []domain.RawNode {
	out := make([]domain.RawNode, 0, len(ids))
	for _, id := range ids {
		n, ok := s.Get(id)
		if !ok {
			continue
		}
		out = append(out, encode(s, n))
	}
	return out
}

func encode(s *tree.Store, n *domain.Node) domain.RawNode {
	raw := domain.RawNode{
		domain.KeyControlID: n.ControlID,
		domain.KeyGroupID:   n.GroupID,
	}
	if n.IsContainer() {
		raw[domain.KeyChildren] = encodeList(s, n.Children)
		return raw
	}
	for _, p := range n.Properties.Visible() {
		raw[p.Name] = p.Value.Raw()
	}
	return raw
}

// Skipped describes a stored node that could not be loaded. Its subtree is skipped with it.
type Skipped struct {
	Path      string
	ControlID string
	GroupID   string
	Err       error
}

// Diagnostic describes a stored value that was ignored while the node itself loaded.
type Diagnostic struct {
	Path     string
	NodeID   string
	Property string
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Path, d.Err)
}

// Report summarizes a Deserialize run.
type Report struct {
	Loaded      int
	Skipped     []Skipped
	Diagnostics []Diagnostic
	Migrations  []domain.MigrationEvent
}

// Migrated reports whether any stored node had to be upgraded.
func (r Report) Migrated() bool {
	return len(r.Migrations) > 0
}

// Clean reports whether every stored node and value loaded as is.
func (r Report) Clean() bool {
	return len(r.Skipped) == 0 && len(r.Diagnostics) == 0
}

// Deserialize appends the nodes of form to the root of s. Every node receives a
// fresh runtime id. Stored values are migrated, then overlaid onto a copy of the
// catalog defaults. A node whose control type is unknown is skipped together
// with its subtree while its siblings still load. migrator may be nil.
func Deserialize(s *tree.Store, form []domain.RawNode, catalog ports.Catalog, migrator Migrator) Report {
	d := &decoder{store: s, catalog: catalog, migrator: migrator}
	_ = s.Batch(domain.OpLoad, func() error {
		for i, raw := range form {
			d.load(raw, domain.Root, fmt.Sprintf("form[%d]", i))
		}
		return nil
	})
	return d.report
}

type decoder struct {
	store    *tree.Store
	catalog  ports.Catalog
	migrator Migrator
	report   Report
}

func (d *decoder) load(raw domain.RawNode, parentID, path string) {
	if d.migrator != nil {
		migrated, applied := d.migrator.Migrate(raw)
		if len(applied) > 0 {
			raw = migrated
			d.report.Migrations = append(d.report.Migrations, domain.MigrationEvent{
				ControlID: raw.ControlID(),
				Rules:     applied,
			})
		}
	}

	def, err := d.catalog.GetDefinition(raw.ControlID(), raw.GroupID())
	if err != nil {
		d.skip(raw, path, err)
		return
	}

	if def.IsContainer {
		id, err := d.store.InsertWithProperties(def, nil, parentID, math.MaxInt)
		if err != nil {
			d.skip(raw, path, err)
			return
		}
		d.report.Loaded++
		children, err := raw.ChildEntries()
		if err != nil {
			d.report.Diagnostics = append(d.report.Diagnostics, Diagnostic{
				Path: path, NodeID: id, Property: domain.KeyChildren, Err: err,
			})
			return
		}
		for i, child := range children {
			childPath := fmt.Sprintf("%s.children[%d]", path, i)
			if child == nil {
				d.report.Diagnostics = append(d.report.Diagnostics, Diagnostic{
					Path: childPath, NodeID: id, Property: domain.KeyChildren,
					Err: errors.New("child entry is not an object and was dropped"),
				})
				continue
			}
			d.load(child, id, childPath)
		}
		return
	}

	props := def.NewProperties()
	var diags []Diagnostic
	for _, field := range slices.Sorted(maps.Keys(raw)) {
		value := raw[field]
		switch field {
		case domain.KeyControlID, domain.KeyGroupID:
			continue
		}
		p, ok := props.Get(field)
		if !ok || p.Type() == domain.PropertyInfo {
			diags = append(diags, Diagnostic{Path: path, Property: field, Err: fmt.Errorf("field %q is not a property of %q and was dropped", field, def.ControlID)})
			continue
		}
		v, err := schema.Decode(p, value)
		if err != nil {
			diags = append(diags, Diagnostic{Path: path, Property: field, Err: err})
			continue
		}
		_ = props.SetValue(field, v)
	}

	id, err := d.store.InsertWithProperties(def, props, parentID, math.MaxInt)
	if err != nil {
		d.skip(raw, path, err)
		return
	}
	d.report.Loaded++
	for i := range diags {
		diags[i].NodeID = id
	}
	d.report.Diagnostics = append(d.report.Diagnostics, diags...)
}

func (d *decoder) skip(raw domain.RawNode, path string, err error) {
	d.report.Skipped = append(d.report.Skipped, Skipped{
		Path:      path,
		ControlID: raw.ControlID(),
		GroupID:   raw.GroupID(),
		Err:       err,
	})
}
