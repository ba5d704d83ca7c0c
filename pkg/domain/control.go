package domain

// ControlDefinition is a catalog entry: the template a node is created from.
type ControlDefinition struct {
	ControlID   string       `json:"controlId"`
	GroupID     string       `json:"groupId"`
	Label       string       `json:"label,omitempty"`
	IsContainer bool         `json:"isContainer,omitempty"`
	Properties  *PropertyBag `json:"properties,omitempty"`
}

// Kind returns the node kind created from this definition.
func (d ControlDefinition) Kind() NodeKind {
	if d.IsContainer {
		return KindContainer
	}
	return KindLeaf
}

// NewProperties returns a fresh copy of the default property bag.
// Containers have no properties.
func (d ControlDefinition) NewProperties() *PropertyBag {
	if d.IsContainer {
		return nil
	}
	if d.Properties == nil {
		return NewPropertyBag()
	}
	return d.Properties.Clone()
}
