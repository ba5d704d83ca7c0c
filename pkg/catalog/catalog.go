package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/formtree/pkg/domain"
)

type key struct {
	controlID string
	groupID   string
}

// Catalog is an in-memory index of control definitions. It is safe for concurrent use.
type Catalog struct {
	mu   sync.RWMutex
	defs map[key]domain.ControlDefinition
}

// New creates a catalog holding defs.
func New(defs ...domain.ControlDefinition) *Catalog {
	c := &Catalog{defs: make(map[key]domain.ControlDefinition, len(defs))}
	for _, d := range defs {
		c.Register(d)
	}
	return c
}

// Register adds or replaces a definition.
func (c *Catalog) Register(def domain.ControlDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[key{def.ControlID, def.GroupID}] = copyDefinition(def)
}

// Replace swaps the whole content of the catalog.
func (c *Catalog) Replace(defs []domain.ControlDefinition) {
	next := make(map[key]domain.ControlDefinition, len(defs))
	for _, d := range defs {
		next[key{d.ControlID, d.GroupID}] = copyDefinition(d)
	}
	c.mu.Lock()
	c.defs = next
	c.mu.Unlock()
}

// GetDefinition implements ports.Catalog.
func (c *Catalog) GetDefinition(controlID, groupID string) (domain.ControlDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if groupID != "" {
		def, ok := c.defs[key{controlID, groupID}]
		if !ok {
			return domain.ControlDefinition{}, &domain.UnknownControlTypeError{ControlID: controlID, GroupID: groupID}
		}
		return copyDefinition(def), nil
	}

	var match *domain.ControlDefinition
	for k, def := range c.defs {
		if k.controlID != controlID {
			continue
		}
		if match != nil {
			return domain.ControlDefinition{}, fmt.Errorf("control %q exists in several groups: %w",
				controlID, &domain.UnknownControlTypeError{ControlID: controlID})
		}
		d := def
		match = &d
	}
	if match == nil {
		return domain.ControlDefinition{}, &domain.UnknownControlTypeError{ControlID: controlID}
	}
	return copyDefinition(*match), nil
}

// List implements ports.Catalog.
func (c *Catalog) List() []domain.ControlDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ControlDefinition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, copyDefinition(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].ControlID < out[j].ControlID
	})
	return out
}

func copyDefinition(d domain.ControlDefinition) domain.ControlDefinition {
	d.Properties = d.Properties.Clone()
	return d
}
