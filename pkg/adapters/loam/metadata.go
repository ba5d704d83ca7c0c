package loam

import (
	"github.com/aretw0/formtree/pkg/catalog"
)

// ControlMetadata is the front matter of a control definition document.
// The markdown body, if any, is kept as the control description.
type ControlMetadata struct {
	ControlID  string                 `json:"controlId" mapstructure:"controlId"`
	GroupID    string                 `json:"groupId" mapstructure:"groupId"`
	Label      string                 `json:"label" mapstructure:"label"`
	Container  bool                   `json:"container" mapstructure:"container"`
	Properties []catalog.PropertySpec `json:"properties" mapstructure:"properties"`
}

func (m ControlMetadata) spec(docID string) catalog.ControlSpec {
	id := m.ControlID
	if id == "" {
		id = trimExtension(docID)
	}
	return catalog.ControlSpec{
		ControlID:  id,
		GroupID:    m.GroupID,
		Label:      m.Label,
		Container:  m.Container,
		Properties: m.Properties,
	}
}
