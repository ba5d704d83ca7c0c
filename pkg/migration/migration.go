// Package migration upgrades stored form nodes written by older versions of the
// designer. Each rule is a pure field rename scoped to a set of control types.
package migration

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/formtree/pkg/domain"
)

var (
	// ErrConflict is returned when a rule would make the outcome depend on rule order.
	ErrConflict = errors.New("migration rules conflict")
	// ErrInvalidRule is returned for malformed rules.
	ErrInvalidRule = errors.New("invalid migration rule")
)

// Rule renames the field From to To on nodes whose controlId is in Controls.
// An empty Controls list applies to every control type.
type Rule struct {
	Name     string
	From     string
	To       string
	Controls []string
	// Unless skips the rule when the stored node already has this field.
	Unless string
}

func (r Rule) appliesTo(controlID string) bool {
	return len(r.Controls) == 0 || slices.Contains(r.Controls, controlID)
}

// Apply returns the migrated copy of raw and whether the rule changed anything.
// raw itself is never modified. When both fields are present the newer one wins
// and the legacy field is dropped.
func (r Rule) Apply(raw domain.RawNode) (domain.RawNode, bool) {
	if !r.appliesTo(raw.ControlID()) {
		return raw, false
	}
	v, ok := raw[r.From]
	if !ok {
		return raw, false
	}
	if r.Unless != "" {
		if _, present := raw[r.Unless]; present {
			return raw, false
		}
	}
	out := raw.Clone()
	delete(out, r.From)
	if _, exists := out[r.To]; !exists {
		out[r.To] = v
	}
	return out, true
}

func (r Rule) validate() error {
	if r.From == "" || r.To == "" || r.From == r.To {
		return fmt.Errorf("%w %q: from %q to %q", ErrInvalidRule, r.Name, r.From, r.To)
	}
	for _, reserved := range []string{domain.KeyControlID, domain.KeyGroupID, domain.KeyChildren} {
		if r.From == reserved || r.To == reserved || r.Unless == reserved {
			return fmt.Errorf("%w %q: %q is a structural field", ErrInvalidRule, r.Name, reserved)
		}
	}
	return nil
}

func overlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, c := range a {
		if slices.Contains(b, c) {
			return true
		}
	}
	return false
}

// Chain is an ordered set of rules whose result does not depend on their order:
// no rule reads a field another rule writes for the same control type.
type Chain struct {
	rules []Rule
}

// New builds a chain from rules, rejecting conflicting ones.
func New(rules ...Rule) (*Chain, error) {
	c := &Chain{}
	for _, r := range rules {
		if err := c.Add(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns the rules for every legacy format the designer has shipped.
func Default() *Chain {
	c, err := New(
		Rule{Name: "title-to-label", From: "title", To: "label"},
		Rule{Name: "error-state-to-message", From: "errorState", To: "errorMessage"},
		Rule{Name: "header-size", From: "size", To: "headerSize", Controls: []string{"header"}},
		Rule{Name: "radio-static-options", From: "options", To: "staticOptions", Controls: []string{"radio"}, Unless: "staticData"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Add appends a rule after checking it against the existing ones.
func (c *Chain) Add(r Rule) error {
	if err := r.validate(); err != nil {
		return err
	}
	for _, existing := range c.rules {
		if !overlap(r.Controls, existing.Controls) {
			continue
		}
		switch {
		case r.From == existing.From:
			return fmt.Errorf("%w: %q and %q both rename %q", ErrConflict, existing.Name, r.Name, r.From)
		case r.From == existing.To, r.Unless != "" && r.Unless == existing.To:
			return fmt.Errorf("%w: %q reads %q written by %q", ErrConflict, r.Name, existing.To, existing.Name)
		case existing.From == r.To, existing.Unless != "" && existing.Unless == r.To:
			return fmt.Errorf("%w: %q writes %q read by %q", ErrConflict, r.Name, r.To, existing.Name)
		}
	}
	c.rules = append(c.rules, r)
	return nil
}

// Rules returns a copy of the registered rules.
func (c *Chain) Rules() []Rule {
	return slices.Clone(c.rules)
}

// Migrate applies every rule to raw and returns the result together with the
// names of the rules that changed it. Migrating an already migrated node is a no-op.
func (c *Chain) Migrate(raw domain.RawNode) (domain.RawNode, []string) {
	var applied []string
	for _, r := range c.rules {
		next, changed := r.Apply(raw)
		if changed {
			raw = next
			applied = append(applied, r.Name)
		}
	}
	return raw, applied
}
