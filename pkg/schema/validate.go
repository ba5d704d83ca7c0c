package schema

import "github.com/aretw0/formtree/pkg/domain"

// Schema is a map of property names to their expected types.
type Schema map[string]Type

// FromBag derives a schema from the properties of a bag. Info properties are skipped.
func FromBag(bag *domain.PropertyBag) Schema {
	s := make(Schema, bag.Len())
	for _, p := range bag.Properties() {
		if p.Type() == domain.PropertyInfo {
			continue
		}
		s[p.Name] = For(p)
	}
	return s
}

// Validate checks the fields present in data against the schema.
// Fields unknown to the schema are reported; absent fields are not.
func Validate(schema Schema, data map[string]any) error {
	var errs []error
	for key, value := range data {
		typ, ok := schema[key]
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: "not defined in schema"})
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateBag checks that every enabled required property carries a value:
// non-empty text, a selected choice, or at least one list option.
func ValidateBag(bag *domain.PropertyBag) error {
	var errs []error
	for _, p := range bag.Properties() {
		if !p.Required || !domain.IsEnabled(p, bag) {
			continue
		}
		empty := false
		switch v := p.Value.(type) {
		case domain.Text:
			empty = v == ""
		case domain.Dropdown:
			empty = v.Selected == ""
		case domain.List:
			empty = len(v.Options) == 0
		}
		if empty {
			errs = append(errs, &ValidationError{Key: p.Name, Reason: "required"})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
