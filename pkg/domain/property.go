package domain

import "fmt"

// PropertyType is the editor kind of a property.
type PropertyType string

const (
	PropertyText     PropertyType = "text"
	PropertyNumber   PropertyType = "number"
	PropertyCheckbox PropertyType = "checkbox"
	PropertyDropdown PropertyType = "dropdown"
	PropertyList     PropertyType = "list"
	// PropertyInfo is editor-only help text. It is never serialized.
	PropertyInfo PropertyType = "info"
)

// Value is the typed value of a property. The set of implementations is closed:
// Text, Number, Checkbox, Dropdown, List and Info.
type Value interface {
	Type() PropertyType
	// Raw returns the JSON-compatible representation stored in documents.
	Raw() any
	clone() Value
}

// Text is a free-form string value.
type Text string

func (Text) Type() PropertyType { return PropertyText }
func (v Text) Raw() any         { return string(v) }
func (v Text) clone() Value     { return v }

// Number is a numeric value. Documents store it as a JSON number.
type Number float64

func (Number) Type() PropertyType { return PropertyNumber }
func (v Number) Raw() any         { return float64(v) }
func (v Number) clone() Value     { return v }

// Checkbox is a boolean flag.
type Checkbox bool

func (Checkbox) Type() PropertyType { return PropertyCheckbox }
func (v Checkbox) Raw() any         { return bool(v) }
func (v Checkbox) clone() Value     { return v }

// Info is help text shown in the property panel only.
type Info string

func (Info) Type() PropertyType { return PropertyInfo }
func (v Info) Raw() any         { return string(v) }
func (v Info) clone() Value     { return v }

// Dropdown is a single choice among a fixed set.
type Dropdown struct {
	Selected string
	Choices  []string
}

func (Dropdown) Type() PropertyType { return PropertyDropdown }
func (v Dropdown) Raw() any         { return v.Selected }
func (v Dropdown) clone() Value {
	v.Choices = append([]string(nil), v.Choices...)
	return v
}

// Allows reports whether choice is one of the dropdown choices.
// A dropdown without choices accepts anything.
func (v Dropdown) Allows(choice string) bool {
	if len(v.Choices) == 0 {
		return true
	}
	for _, c := range v.Choices {
		if c == choice {
			return true
		}
	}
	return false
}

// ListOption is one entry of a list property.
type ListOption struct {
	Label   string `json:"label" yaml:"label" mapstructure:"label"`
	Value   string `json:"value" yaml:"value" mapstructure:"value"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
}

// List is an ordered set of options where at most one is flagged as default.
type List struct {
	Options []ListOption
}

func (List) Type() PropertyType { return PropertyList }

// Raw returns the full option array, default flag included.
func (v List) Raw() any {
	return append([]ListOption{}, v.Options...)
}

func (v List) clone() Value {
	v.Options = append([]ListOption(nil), v.Options...)
	return v
}

// DefaultValue returns the value of the option flagged as default.
func (v List) DefaultValue() (string, bool) {
	for _, o := range v.Options {
		if o.Default {
			return o.Value, true
		}
	}
	return "", false
}

// WithDefault returns a copy of the list where exactly the option with the given value is flagged.
func (v List) WithDefault(value string) (List, error) {
	found := false
	next := List{Options: make([]ListOption, len(v.Options))}
	for i, o := range v.Options {
		o.Default = o.Value == value && !found
		if o.Default {
			found = true
		}
		next.Options[i] = o
	}
	if !found {
		return v, fmt.Errorf("%w: %q", ErrUnknownOption, value)
	}
	return next, nil
}

// Normalized returns a copy of the list keeping only the first default flag.
func (v List) Normalized() List {
	seen := false
	next := List{Options: make([]ListOption, len(v.Options))}
	for i, o := range v.Options {
		if o.Default {
			if seen {
				o.Default = false
			}
			seen = true
		}
		next.Options[i] = o
	}
	return next
}

// EnabledOn makes a property meaningful only while the sibling Key equals Value.
type EnabledOn struct {
	Key   string `json:"key" yaml:"key" mapstructure:"key"`
	Value any    `json:"value" yaml:"value" mapstructure:"value"`
}

// Property is one editable attribute of a leaf node.
type Property struct {
	Name      string     `json:"name"`
	Label     string     `json:"label,omitempty"`
	Value     Value      `json:"-"`
	Required  bool       `json:"required,omitempty"`
	EnabledOn *EnabledOn `json:"enabledOn,omitempty"`
}

// Type returns the kind of the property value.
func (p Property) Type() PropertyType {
	if p.Value == nil {
		return ""
	}
	return p.Value.Type()
}

// Clone returns a deep copy of the property.
func (p Property) Clone() Property {
	if p.Value != nil {
		p.Value = p.Value.clone()
	}
	if p.EnabledOn != nil {
		cond := *p.EnabledOn
		p.EnabledOn = &cond
	}
	return p
}
