package schema

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// For returns the validator matching a property.
func For(p domain.Property) Type {
	switch v := p.Value.(type) {
	case domain.Text:
		return Text()
	case domain.Number:
		return Number()
	case domain.Checkbox:
		return Bool()
	case domain.Dropdown:
		return Choice(v.Choices...)
	case domain.List:
		return Options()
	}
	return Custom(string(p.Type()), func(any) error { return nil })
}

// Decode converts raw into a value of the same kind as p.Value.
// Info properties are editor-only, so their current value is returned unchanged.
func Decode(p domain.Property, raw any) (domain.Value, error) {
	fail := func(err error) (domain.Value, error) {
		return nil, &ValidationError{Key: p.Name, Reason: err.Error(), Value: raw}
	}
	if raw == nil && p.Type() != domain.PropertyInfo {
		return nil, &ValidationError{Key: p.Name, Reason: "value is missing"}
	}

	switch v := p.Value.(type) {
	case domain.Text:
		switch r := raw.(type) {
		case string:
			return domain.Text(r), nil
		case json.Number:
			return domain.Text(r.String()), nil
		case float64, int, bool:
			return domain.Text(fmt.Sprint(r)), nil
		}
		return fail(Text().Validate(raw))
	case domain.Number:
		n, err := toNumber(raw)
		if err != nil {
			return fail(err)
		}
		return domain.Number(n), nil
	case domain.Checkbox:
		b, err := toBool(raw)
		if err != nil {
			return fail(err)
		}
		return domain.Checkbox(b), nil
	case domain.Dropdown:
		if err := Choice(v.Choices...).Validate(raw); err != nil {
			return fail(err)
		}
		return domain.Dropdown{Selected: raw.(string), Choices: append([]string(nil), v.Choices...)}, nil
	case domain.List:
		opts, err := toOptions(raw)
		if err != nil {
			return fail(err)
		}
		return domain.List{Options: opts}.Normalized(), nil
	case domain.Info:
		return v, nil
	}
	return fail(fmt.Errorf("property has no value kind"))
}

// toOptions accepts typed options, decoded JSON objects, or bare strings used
// by older documents as both label and value.
func toOptions(raw any) ([]domain.ListOption, error) {
	switch r := raw.(type) {
	case []domain.ListOption:
		return append([]domain.ListOption{}, r...), nil
	case []string:
		opts := make([]domain.ListOption, len(r))
		for i, s := range r {
			opts[i] = domain.ListOption{Label: s, Value: s}
		}
		return opts, nil
	}
	if !isSlice(raw) {
		return nil, fmt.Errorf("expected option list, got %T", raw)
	}

	if items, ok := raw.([]any); ok {
		allStrings := len(items) > 0
		for _, item := range items {
			if _, isString := item.(string); !isString {
				allStrings = false
				break
			}
		}
		if allStrings {
			strs := make([]string, len(items))
			for i, item := range items {
				strs[i] = item.(string)
			}
			return toOptions(strs)
		}
	}

	opts := []domain.ListOption{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid option list: %w", err)
	}
	return opts, nil
}
