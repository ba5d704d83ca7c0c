package domain_test

import (
	"testing"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_WithDefault(t *testing.T) {
	list := domain.List{Options: []domain.ListOption{
		{Label: "One", Value: "1", Default: true},
		{Label: "Two", Value: "2"},
		{Label: "Three", Value: "3"},
	}}

	next, err := list.WithDefault("3")
	require.NoError(t, err)

	def, ok := next.DefaultValue()
	require.True(t, ok)
	assert.Equal(t, "3", def)

	flagged := 0
	for _, o := range next.Options {
		if o.Default {
			flagged++
		}
	}
	assert.Equal(t, 1, flagged)

	// The original is untouched.
	def, _ = list.DefaultValue()
	assert.Equal(t, "1", def)

	_, err = list.WithDefault("9")
	assert.ErrorIs(t, err, domain.ErrUnknownOption)
}

func TestList_Normalized(t *testing.T) {
	list := domain.List{Options: []domain.ListOption{
		{Value: "a"},
		{Value: "b", Default: true},
		{Value: "c", Default: true},
	}}
	def, ok := list.Normalized().DefaultValue()
	require.True(t, ok)
	assert.Equal(t, "b", def)
	assert.False(t, list.Normalized().Options[2].Default)
}

func TestList_NoDefault(t *testing.T) {
	_, ok := domain.List{}.DefaultValue()
	assert.False(t, ok)
}

func TestDropdown_Allows(t *testing.T) {
	d := domain.Dropdown{Selected: "primary", Choices: []string{"primary", "secondary"}}
	assert.True(t, d.Allows("secondary"))
	assert.False(t, d.Allows("danger"))
	assert.True(t, domain.Dropdown{}.Allows("anything"))
}

func TestValue_Raw(t *testing.T) {
	assert.Equal(t, "x", domain.Text("x").Raw())
	assert.Equal(t, 2.0, domain.Number(2).Raw())
	assert.Equal(t, true, domain.Checkbox(true).Raw())
	assert.Equal(t, "primary", domain.Dropdown{Selected: "primary"}.Raw())
	assert.Equal(t, []domain.ListOption{{Value: "a"}}, domain.List{Options: []domain.ListOption{{Value: "a"}}}.Raw())
}

func TestIsEnabled(t *testing.T) {
	bag := domain.NewPropertyBag(
		domain.Property{Name: "staticData", Value: domain.Checkbox(true)},
		domain.Property{Name: "size", Value: domain.Number(2)},
		domain.Property{Name: "mode", Value: domain.Dropdown{Selected: "advanced"}},
	)

	tests := []struct {
		name string
		cond *domain.EnabledOn
		want bool
	}{
		{"no condition", nil, true},
		{"bool match", &domain.EnabledOn{Key: "staticData", Value: true}, true},
		{"bool mismatch", &domain.EnabledOn{Key: "staticData", Value: false}, false},
		{"bool as string", &domain.EnabledOn{Key: "staticData", Value: "true"}, true},
		{"int matches float", &domain.EnabledOn{Key: "size", Value: 2}, true},
		{"dropdown selection", &domain.EnabledOn{Key: "mode", Value: "advanced"}, true},
		{"missing sibling", &domain.EnabledOn{Key: "nope", Value: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Property{Name: "p", Value: domain.Text(""), EnabledOn: tt.cond}
			assert.Equal(t, tt.want, domain.IsEnabled(p, bag))
		})
	}
}

func TestIsEnabled_Chained(t *testing.T) {
	advanced := domain.Property{Name: "advanced", Value: domain.Checkbox(false)}
	mode := domain.Property{
		Name:      "mode",
		Value:     domain.Dropdown{Selected: "custom", Choices: []string{"auto", "custom"}},
		EnabledOn: &domain.EnabledOn{Key: "advanced", Value: true},
	}
	pattern := domain.Property{
		Name:      "pattern",
		Value:     domain.Text(""),
		EnabledOn: &domain.EnabledOn{Key: "mode", Value: "custom"},
	}
	bag := domain.NewPropertyBag(advanced, mode, pattern)

	assert.False(t, domain.IsEnabled(mode, bag))
	assert.False(t, domain.IsEnabled(pattern, bag), "hidden link hides the rest of the chain")
	assert.Equal(t, []string{"advanced"}, visibleNames(bag))

	require.NoError(t, bag.SetValue("advanced", domain.Checkbox(true)))
	assert.True(t, domain.IsEnabled(mode, bag))
	assert.True(t, domain.IsEnabled(pattern, bag))
	assert.Equal(t, []string{"advanced", "mode", "pattern"}, visibleNames(bag))
}

func visibleNames(bag *domain.PropertyBag) []string {
	var names []string
	for _, p := range bag.Visible() {
		names = append(names, p.Name)
	}
	return names
}

func TestIsEnabled_Cycle(t *testing.T) {
	a := domain.Property{Name: "a", Value: domain.Checkbox(true), EnabledOn: &domain.EnabledOn{Key: "b", Value: true}}
	b := domain.Property{Name: "b", Value: domain.Checkbox(true), EnabledOn: &domain.EnabledOn{Key: "a", Value: true}}
	self := domain.Property{Name: "self", Value: domain.Checkbox(true), EnabledOn: &domain.EnabledOn{Key: "self", Value: true}}
	bag := domain.NewPropertyBag(a, b, self)

	assert.False(t, domain.IsEnabled(a, bag))
	assert.False(t, domain.IsEnabled(b, bag))
	assert.False(t, domain.IsEnabled(self, bag))
}
