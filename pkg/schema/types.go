package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/aretw0/formtree/pkg/domain"
)

// Type defines the contract for raw value validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "text", "number").
	Name() string
	// Validate checks if a raw value conforms to this type.
	Validate(value any) error
}

// TextType accepts strings.
type TextType struct{}

func (t *TextType) Name() string { return string(domain.PropertyText) }

func (t *TextType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType accepts every numeric kind and numeric strings.
type NumberType struct{}

func (t *NumberType) Name() string { return string(domain.PropertyNumber) }

func (t *NumberType) Validate(value any) error {
	_, err := toNumber(value)
	return err
}

// BoolType accepts booleans and "true"/"false".
type BoolType struct{}

func (t *BoolType) Name() string { return string(domain.PropertyCheckbox) }

func (t *BoolType) Validate(value any) error {
	_, err := toBool(value)
	return err
}

// ChoiceType accepts one string out of a fixed set. An empty set accepts any string.
type ChoiceType struct {
	choices []string
}

func (t *ChoiceType) Name() string { return string(domain.PropertyDropdown) }

func (t *ChoiceType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if len(t.choices) > 0 && !slices.Contains(t.choices, s) {
		return fmt.Errorf("%q is not one of %v", s, t.choices)
	}
	return nil
}

// OptionsType accepts an array of list options.
type OptionsType struct{}

func (t *OptionsType) Name() string { return string(domain.PropertyList) }

func (t *OptionsType) Validate(value any) error {
	_, err := toOptions(value)
	return err
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// Text creates a text validator.
func Text() Type { return &TextType{} }

// Number creates a numeric validator.
func Number() Type { return &NumberType{} }

// Bool creates a checkbox validator.
func Bool() Type { return &BoolType{} }

// Choice creates a dropdown validator for the given choices.
func Choice(choices ...string) Type { return &ChoiceType{choices: choices} }

// Options creates a list validator.
func Options() Type { return &OptionsType{} }

// Custom creates a custom validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParsePropertyType converts a catalog type name into a property kind.
func ParsePropertyType(s string) (domain.PropertyType, error) {
	switch pt := domain.PropertyType(s); pt {
	case domain.PropertyText, domain.PropertyNumber, domain.PropertyCheckbox,
		domain.PropertyDropdown, domain.PropertyList, domain.PropertyInfo:
		return pt, nil
	}
	return "", fmt.Errorf("unsupported property type: %s", s)
}

// toNumber only accepts finite values; NaN and infinities have no JSON encoding.
func toNumber(value any) (float64, error) {
	f, err := parseNumber(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected finite number, got %v", f)
	}
	return f, nil
}

func parseNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected number, got %T", value)
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("expected bool, got %q", v)
		}
		return b, nil
	}
	return false, fmt.Errorf("expected bool, got %T", value)
}

func isSlice(value any) bool {
	if value == nil {
		return false
	}
	k := reflect.TypeOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}
