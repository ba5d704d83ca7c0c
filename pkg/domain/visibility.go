package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// IsEnabled reports whether p is meaningful given its siblings in bag.
// A property without an EnabledOn condition is always enabled. A condition is
// satisfied only while the sibling it names is itself enabled and holds the
// expected value, so a chain of conditions hides everything below a hidden
// link. A condition that names a missing sibling, or that leads back into its
// own chain, is never satisfied.
func IsEnabled(p Property, bag *PropertyBag) bool {
	return enabled(p, bag, map[string]bool{p.Name: true})
}

func enabled(p Property, bag *PropertyBag, seen map[string]bool) bool {
	if p.EnabledOn == nil {
		return true
	}
	key := p.EnabledOn.Key
	if seen[key] {
		return false
	}
	sibling, ok := bag.Get(key)
	if !ok || sibling.Value == nil {
		return false
	}
	if !valuesEqual(sibling.Value.Raw(), p.EnabledOn.Value) {
		return false
	}
	seen[key] = true
	return enabled(sibling, bag, seen)
}

// valuesEqual compares raw values, treating every numeric kind as float64.
func valuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	// Conditions written in YAML or query strings may carry "false" for a checkbox.
	if _, isBool := a.(bool); isBool {
		if s, ok := b.(string); ok {
			return fmt.Sprint(a) == s
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
