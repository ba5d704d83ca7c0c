package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDocument() domain.Document {
	doc := domain.NewDocument()
	doc.Feeds = []json.RawMessage{json.RawMessage(`{"name":"orders"}`)}
	doc.Code = "return 1"
	doc.Form = []domain.RawNode{
		{"controlId": "vbox", "groupId": "layout", "children": []any{
			map[string]any{"controlId": "button", "groupId": "basic", "label": "Go"},
		}},
	}
	return doc
}

// RunFormStoreContract runs a suite of tests to verify that a FormStore implementation
// adheres to the defined interface contract.
func RunFormStoreContract(t *testing.T, store FormStore) {
	ctx := context.Background()
	formID := "contract-form-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument()

		err := store.Save(ctx, formID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, formID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc.Code, loaded.Code)
		require.Len(t, loaded.Feeds, 1)
		assert.JSONEq(t, `{"name":"orders"}`, string(loaded.Feeds[0]))
		require.Len(t, loaded.Form, 1)
		assert.Equal(t, "vbox", loaded.Form[0].ControlID())

		children, ok := loaded.Form[0].Children()
		require.True(t, ok)
		require.Len(t, children, 1)
		assert.Equal(t, "Go", children[0]["label"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+formID)
		assert.ErrorIs(t, err, domain.ErrFormNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		doc := contractDocument()
		doc.Form = []domain.RawNode{}
		require.NoError(t, store.Save(ctx, formID, doc))

		loaded, err := store.Load(ctx, formID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Form)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, formID, contractDocument()))

		err := store.Delete(ctx, formID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, formID)
		assert.ErrorIs(t, err, domain.ErrFormNotFound, "Load after Delete should return ErrFormNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := formID + "-1"
		id2 := formID + "-2"
		_ = store.Save(ctx, id1, contractDocument())
		_ = store.Save(ctx, id2, contractDocument())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		forms, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, forms, id1)
		assert.Contains(t, forms, id2)
	})
}
