package domain_test

import (
	"testing"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	data := []byte(`{
		"feeds": [{"name": "orders"}],
		"code": "console.log(1)",
		"form": [
			{"controlId": "vbox", "groupId": "layout", "children": [
				{"controlId": "button", "groupId": "basic", "label": "Go"}
			]}
		]
	}`)

	doc, err := domain.ParseDocument(data)
	require.NoError(t, err)
	assert.Len(t, doc.Feeds, 1)
	assert.JSONEq(t, `{"name": "orders"}`, string(doc.Feeds[0]))
	assert.NotNil(t, doc.Scripts)
	assert.Equal(t, "console.log(1)", doc.Code)

	require.Len(t, doc.Form, 1)
	assert.Equal(t, "vbox", doc.Form[0].ControlID())
	assert.Equal(t, "layout", doc.Form[0].GroupID())

	children, ok := doc.Form[0].Children()
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, "Go", children[0]["label"])

	_, ok = children[0].Children()
	assert.False(t, ok)
}

func TestRawNode_ChildEntries(t *testing.T) {
	doc, err := domain.ParseDocument([]byte(`{"form": [
		{"controlId": "vbox", "children": [7, {"controlId": "button"}, null]},
		{"controlId": "hbox", "children": {"controlId": "button"}},
		{"controlId": "hbox", "children": []}
	]}`))
	require.NoError(t, err)

	entries, err := doc.Form[0].ChildEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Nil(t, entries[0])
	assert.Equal(t, "button", entries[1].ControlID())
	assert.Nil(t, entries[2])

	children, ok := doc.Form[0].Children()
	require.True(t, ok)
	assert.Len(t, children, 1)

	_, err = doc.Form[1].ChildEntries()
	assert.ErrorIs(t, err, domain.ErrMalformedChildren)
	_, ok = doc.Form[1].Children()
	assert.False(t, ok)

	children, ok = doc.Form[2].Children()
	assert.True(t, ok)
	assert.Empty(t, children)
}

func TestParseDocument_Invalid(t *testing.T) {
	_, err := domain.ParseDocument([]byte(`{"form": 3}`))
	assert.Error(t, err)
}
