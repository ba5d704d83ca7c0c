package domain

import (
	"encoding/json"
	"fmt"
)

// PropertyBag is an ordered mapping from property name to Property.
// A nil bag behaves as an empty one for reads.
type PropertyBag struct {
	order []string
	props map[string]*Property
}

// NewPropertyBag builds a bag keeping the given order.
func NewPropertyBag(props ...Property) *PropertyBag {
	b := &PropertyBag{props: make(map[string]*Property, len(props))}
	for _, p := range props {
		b.Set(p)
	}
	return b
}

// Set adds the property, or replaces it in place when the name already exists.
func (b *PropertyBag) Set(p Property) {
	if b.props == nil {
		b.props = make(map[string]*Property)
	}
	if _, ok := b.props[p.Name]; !ok {
		b.order = append(b.order, p.Name)
	}
	cp := p
	b.props[p.Name] = &cp
}

// Get returns the property with the given name.
func (b *PropertyBag) Get(name string) (Property, bool) {
	if b == nil {
		return Property{}, false
	}
	p, ok := b.props[name]
	if !ok {
		return Property{}, false
	}
	return *p, true
}

// Has reports whether the bag holds a property with the given name.
func (b *PropertyBag) Has(name string) bool {
	_, ok := b.Get(name)
	return ok
}

// SetValue replaces the value of an existing property. The value kind must match.
func (b *PropertyBag) SetValue(name string, v Value) error {
	if b == nil {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	p, ok := b.props[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	if v == nil || p.Type() != v.Type() {
		return fmt.Errorf("property %q: cannot assign %T to %s", name, v, p.Type())
	}
	p.Value = v
	return nil
}

// Names returns the property names in order.
func (b *PropertyBag) Names() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.order...)
}

// Len returns the number of properties.
func (b *PropertyBag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.order)
}

// Properties returns copies of all properties in order.
func (b *PropertyBag) Properties() []Property {
	if b == nil {
		return nil
	}
	out := make([]Property, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.props[name])
	}
	return out
}

// Visible returns the properties that are serialized: enabled and not editor-only.
func (b *PropertyBag) Visible() []Property {
	var out []Property
	for _, p := range b.Properties() {
		if p.Type() == PropertyInfo || !IsEnabled(p, b) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Values returns the raw value of every non-info property, hidden ones included.
func (b *PropertyBag) Values() map[string]any {
	out := make(map[string]any, b.Len())
	for _, p := range b.Properties() {
		if p.Type() == PropertyInfo {
			continue
		}
		out[p.Name] = p.Value.Raw()
	}
	return out
}

// Clone returns a deep copy of the bag.
func (b *PropertyBag) Clone() *PropertyBag {
	if b == nil {
		return nil
	}
	next := &PropertyBag{
		order: append([]string(nil), b.order...),
		props: make(map[string]*Property, len(b.props)),
	}
	for name, p := range b.props {
		cp := p.Clone()
		next.props[name] = &cp
	}
	return next
}

type propertyJSON struct {
	Name      string       `json:"name"`
	Label     string       `json:"label,omitempty"`
	Type      PropertyType `json:"type"`
	Value     any          `json:"value"`
	Choices   []string     `json:"choices,omitempty"`
	Default   string       `json:"defaultValue,omitempty"`
	Required  bool         `json:"required,omitempty"`
	EnabledOn *EnabledOn   `json:"enabledOn,omitempty"`
	Enabled   bool         `json:"enabled"`
}

// MarshalJSON renders the bag as the ordered descriptor list shown by a property panel.
func (b *PropertyBag) MarshalJSON() ([]byte, error) {
	props := b.Properties()
	out := make([]propertyJSON, 0, len(props))
	for _, p := range props {
		d := propertyJSON{
			Name:      p.Name,
			Label:     p.Label,
			Type:      p.Type(),
			Value:     p.Value.Raw(),
			Required:  p.Required,
			EnabledOn: p.EnabledOn,
			Enabled:   IsEnabled(p, b),
		}
		switch v := p.Value.(type) {
		case Dropdown:
			d.Choices = v.Choices
		case List:
			d.Default, _ = v.DefaultValue()
		}
		out = append(out, d)
	}
	return json.Marshal(out)
}
