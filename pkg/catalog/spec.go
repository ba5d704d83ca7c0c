package catalog

import (
	"fmt"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// PropertySpec declares one property of a control and its default value.
type PropertySpec struct {
	Name      string              `json:"name" yaml:"name" mapstructure:"name"`
	Label     string              `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Type      string              `json:"type" yaml:"type" mapstructure:"type"`
	Default   any                 `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	Choices   []string            `json:"choices,omitempty" yaml:"choices,omitempty" mapstructure:"choices"`
	Options   []domain.ListOption `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Required  bool                `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	EnabledOn *domain.EnabledOn   `json:"enabledOn,omitempty" yaml:"enabledOn,omitempty" mapstructure:"enabledOn"`
}

// ControlSpec declares a control type.
type ControlSpec struct {
	ControlID  string         `json:"controlId" yaml:"controlId" mapstructure:"controlId"`
	GroupID    string         `json:"groupId" yaml:"groupId" mapstructure:"groupId"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Container  bool           `json:"container,omitempty" yaml:"container,omitempty" mapstructure:"container"`
	Properties []PropertySpec `json:"properties,omitempty" yaml:"properties,omitempty" mapstructure:"properties"`
}

// DecodeSpec converts loosely typed data (YAML front matter, JSON) into a ControlSpec.
func DecodeSpec(data map[string]any) (ControlSpec, error) {
	var spec ControlSpec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &spec,
	})
	if err != nil {
		return spec, err
	}
	if err := dec.Decode(data); err != nil {
		return spec, fmt.Errorf("failed to decode control spec: %w", err)
	}
	return spec, nil
}

// Build turns a spec into a definition, validating default values.
func Build(spec ControlSpec) (domain.ControlDefinition, error) {
	if spec.ControlID == "" {
		return domain.ControlDefinition{}, fmt.Errorf("control spec without controlId")
	}
	def := domain.ControlDefinition{
		ControlID:   spec.ControlID,
		GroupID:     spec.GroupID,
		Label:       spec.Label,
		IsContainer: spec.Container,
	}
	if spec.Container {
		if len(spec.Properties) > 0 {
			return def, fmt.Errorf("container %q cannot declare properties", spec.ControlID)
		}
		return def, nil
	}

	bag := domain.NewPropertyBag()
	for _, ps := range spec.Properties {
		p, err := buildProperty(ps)
		if err != nil {
			return def, fmt.Errorf("control %q: %w", spec.ControlID, err)
		}
		switch p.Name {
		case "", domain.KeyControlID, domain.KeyGroupID, domain.KeyChildren:
			return def, fmt.Errorf("control %q: invalid property name %q", spec.ControlID, p.Name)
		}
		if bag.Has(p.Name) {
			return def, fmt.Errorf("control %q: duplicate property %q", spec.ControlID, p.Name)
		}
		bag.Set(p)
	}
	for _, p := range bag.Properties() {
		if p.EnabledOn != nil && !bag.Has(p.EnabledOn.Key) {
			return def, fmt.Errorf("control %q: property %q depends on unknown property %q", spec.ControlID, p.Name, p.EnabledOn.Key)
		}
	}
	def.Properties = bag
	return def, nil
}

func buildProperty(ps PropertySpec) (domain.Property, error) {
	kind, err := schema.ParsePropertyType(ps.Type)
	if err != nil {
		return domain.Property{}, fmt.Errorf("property %q: %w", ps.Name, err)
	}
	p := domain.Property{
		Name:      ps.Name,
		Label:     ps.Label,
		Required:  ps.Required,
		EnabledOn: ps.EnabledOn,
	}

	switch kind {
	case domain.PropertyText:
		p.Value = domain.Text("")
	case domain.PropertyNumber:
		p.Value = domain.Number(0)
	case domain.PropertyCheckbox:
		p.Value = domain.Checkbox(false)
	case domain.PropertyInfo:
		p.Value = domain.Info(fmt.Sprint(orEmpty(ps.Default)))
		return p, nil
	case domain.PropertyDropdown:
		dd := domain.Dropdown{Choices: ps.Choices}
		if len(ps.Choices) > 0 {
			dd.Selected = ps.Choices[0]
		}
		p.Value = dd
	case domain.PropertyList:
		p.Value = domain.List{Options: append([]domain.ListOption{}, ps.Options...)}.Normalized()
		return p, nil
	}

	if ps.Default != nil {
		v, err := schema.Decode(p, ps.Default)
		if err != nil {
			return p, fmt.Errorf("default: %w", err)
		}
		p.Value = v
	}
	return p, nil
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
