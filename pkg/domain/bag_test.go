package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func radioBag() *domain.PropertyBag {
	return domain.NewPropertyBag(
		domain.Property{Name: "label", Value: domain.Text("Radio")},
		domain.Property{Name: "staticData", Value: domain.Checkbox(true)},
		domain.Property{
			Name:      "staticOptions",
			Value:     domain.List{Options: []domain.ListOption{{Label: "A", Value: "a", Default: true}, {Label: "B", Value: "b"}}},
			EnabledOn: &domain.EnabledOn{Key: "staticData", Value: true},
		},
		domain.Property{
			Name:      "optionsSource",
			Value:     domain.Text(""),
			EnabledOn: &domain.EnabledOn{Key: "staticData", Value: false},
		},
		domain.Property{Name: "hint", Value: domain.Info("Pick one")},
	)
}

func TestPropertyBag_KeepsOrder(t *testing.T) {
	bag := radioBag()
	assert.Equal(t, []string{"label", "staticData", "staticOptions", "optionsSource", "hint"}, bag.Names())

	bag.Set(domain.Property{Name: "label", Value: domain.Text("Other")})
	assert.Equal(t, 5, bag.Len())
	assert.Equal(t, "label", bag.Names()[0])

	p, ok := bag.Get("label")
	require.True(t, ok)
	assert.Equal(t, domain.Text("Other"), p.Value)
}

func TestPropertyBag_SetValue(t *testing.T) {
	bag := radioBag()

	require.NoError(t, bag.SetValue("label", domain.Text("Size")))
	p, _ := bag.Get("label")
	assert.Equal(t, domain.Text("Size"), p.Value)

	err := bag.SetValue("missing", domain.Text("x"))
	assert.ErrorIs(t, err, domain.ErrUnknownProperty)

	err = bag.SetValue("label", domain.Number(3))
	assert.Error(t, err)
}

func TestPropertyBag_CloneIsDeep(t *testing.T) {
	bag := radioBag()
	clone := bag.Clone()

	require.NoError(t, clone.SetValue("label", domain.Text("Changed")))
	p, _ := bag.Get("label")
	assert.Equal(t, domain.Text("Radio"), p.Value)

	prop, _ := clone.Get("staticOptions")
	list := prop.Value.(domain.List)
	list.Options[0].Label = "Mutated"
	orig, _ := bag.Get("staticOptions")
	assert.Equal(t, "A", orig.Value.(domain.List).Options[0].Label)
}

func TestPropertyBag_VisibleSkipsHiddenAndInfo(t *testing.T) {
	bag := radioBag()

	var names []string
	for _, p := range bag.Visible() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"label", "staticData", "staticOptions"}, names)

	require.NoError(t, bag.SetValue("staticData", domain.Checkbox(false)))
	names = nil
	for _, p := range bag.Visible() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"label", "staticData", "optionsSource"}, names)

	// Hidden values stay in memory.
	values := bag.Values()
	assert.Contains(t, values, "staticOptions")
	assert.NotContains(t, values, "hint")
}

func TestPropertyBag_NilIsEmpty(t *testing.T) {
	var bag *domain.PropertyBag
	assert.Equal(t, 0, bag.Len())
	assert.Nil(t, bag.Names())
	assert.Nil(t, bag.Clone())
	_, ok := bag.Get("label")
	assert.False(t, ok)
	assert.ErrorIs(t, bag.SetValue("label", domain.Text("x")), domain.ErrUnknownProperty)
}

func TestPropertyBag_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(radioBag())
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 5)
	assert.Equal(t, "staticOptions", out[2]["name"])
	assert.Equal(t, "a", out[2]["defaultValue"])
	assert.Equal(t, true, out[2]["enabled"])
	assert.Equal(t, false, out[3]["enabled"])
}
