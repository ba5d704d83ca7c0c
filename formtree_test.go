package formtree_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/internal/testutils"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mounts   []domain.MountEvent
	unmounts []domain.UnmountEvent
	changes  []domain.TreeChangedEvent
	rejected []domain.RejectedEvent
	migrated []domain.MigrationEvent
	dirty    int
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMount:       func(ev domain.MountEvent) { r.mounts = append(r.mounts, ev) },
		OnUnmount:     func(ev domain.UnmountEvent) { r.unmounts = append(r.unmounts, ev) },
		OnTreeChanged: func(ev domain.TreeChangedEvent) { r.changes = append(r.changes, ev) },
		OnRejected:    func(ev domain.RejectedEvent) { r.rejected = append(r.rejected, ev) },
		OnMigrated:    func(ev domain.MigrationEvent) { r.migrated = append(r.migrated, ev) },
		OnDirty:       func() { r.dirty++ },
	}
}

func newEditor(t *testing.T) (*formtree.Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	ed, err := formtree.New("",
		formtree.WithIDGenerator(testutils.SequentialIDs("n")),
		formtree.WithLifecycleHooks(rec.hooks()),
	)
	require.NoError(t, err)
	return ed, rec
}

func TestEditor_InsertIntoContainer(t *testing.T) {
	ed, rec := newEditor(t)

	box, err := ed.InsertFromCatalog("vbox", "layout", domain.Root, 0)
	require.NoError(t, err)
	field, err := ed.InsertFromCatalog("textfield", "basic", box, 0)
	require.NoError(t, err)

	look, ok := ed.Find(field)
	require.True(t, ok)
	assert.Equal(t, box, look.Node.ParentID)
	require.Len(t, look.Ancestors, 1)
	assert.Equal(t, box, look.Ancestors[0].ID)

	require.Len(t, rec.mounts, 2)
	assert.Equal(t, domain.MountEvent{NodeID: field, ControlID: "textfield", ParentID: box, Index: 0}, rec.mounts[1])
	assert.Len(t, rec.changes, 2)
	assert.True(t, ed.Dirty())
	assert.Equal(t, 1, rec.dirty, "OnDirty fires on the clean to dirty edge only")

	doc := ed.Serialize()
	require.Len(t, doc.Form, 1)
	children, ok := doc.Form[0].Children()
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, "textfield", children[0].ControlID())
	assert.Equal(t, "Text Field", children[0]["label"])
}

func TestEditor_MoveIntoOwnDescendantIsRejected(t *testing.T) {
	ed, rec := newEditor(t)

	outer, _ := ed.InsertFromCatalog("vbox", "layout", domain.Root, 0)
	inner, _ := ed.InsertFromCatalog("hbox", "layout", outer, 0)
	before := ed.Serialize()
	changes := len(rec.changes)

	err := ed.MoveExisting(outer, inner, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	var target *domain.InvalidTargetError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, outer, target.NodeID)

	assert.Equal(t, before, ed.Serialize())
	assert.Len(t, rec.changes, changes)
	require.Len(t, rec.rejected, 1)
	assert.Equal(t, domain.OpMove, rec.rejected[0].Op)
}

func TestEditor_LoadLegacyDocument(t *testing.T) {
	ed, rec := newEditor(t)

	report, err := ed.Load([]byte(`{
		"feeds": [{"id": "f1"}],
		"scripts": [],
		"code": "console.log(1)",
		"form": [{"controlId": "header", "groupId": "basic", "title": "Hi", "size": 2}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Loaded)
	assert.True(t, report.Migrated())
	require.Len(t, rec.migrated, 1)
	assert.Equal(t, "header", rec.migrated[0].ControlID)
	assert.True(t, ed.Dirty(), "a migrated form must be saved again")

	doc := ed.Serialize()
	require.Len(t, doc.Form, 1)
	assert.Equal(t, "Hi", doc.Form[0]["label"])
	assert.EqualValues(t, 2, doc.Form[0]["headerSize"])
	assert.NotContains(t, doc.Form[0], "title")
	assert.NotContains(t, doc.Form[0], "size")
	assert.Equal(t, "console.log(1)", doc.Code)
	require.Len(t, doc.Feeds, 1)
	assert.JSONEq(t, `{"id":"f1"}`, string(doc.Feeds[0]))
}

func TestEditor_LoadSkipsUnknownControl(t *testing.T) {
	ed, _ := newEditor(t)

	report := ed.Deserialize(domain.Document{Form: []domain.RawNode{
		{"controlId": "textfield", "groupId": "basic", "label": "A"},
		{"controlId": "sparkline", "groupId": "charts"},
		{"controlId": "checkbox", "groupId": "basic", "label": "B"},
	}})

	assert.Equal(t, 2, report.Loaded)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Err, domain.ErrUnknownControlType)
	assert.Equal(t, "sparkline", report.Skipped[0].ControlID)
	assert.False(t, ed.Dirty())

	doc := ed.Serialize()
	require.Len(t, doc.Form, 2)
	assert.Equal(t, "textfield", doc.Form[0].ControlID())
	assert.Equal(t, "checkbox", doc.Form[1].ControlID())
}

func TestEditor_RoundTrip(t *testing.T) {
	ed, _ := newEditor(t)

	box, _ := ed.InsertFromCatalog("hbox", "layout", domain.Root, 0)
	field, _ := ed.InsertFromCatalog("textfield", "basic", box, 0)
	radio, _ := ed.InsertFromCatalog("radio", "basic", box, 1)
	_, _ = ed.InsertFromCatalog("button", "basic", domain.Root, 1)
	require.NoError(t, ed.SetProperty(field, "label", "Name"))
	require.NoError(t, ed.SetProperty(field, "required", true))
	require.NoError(t, ed.SetProperty(field, "errorMessage", "Name is required"))
	require.NoError(t, ed.SetListDefault(radio, "staticOptions", "option2"))

	first, err := ed.Encode()
	require.NoError(t, err)

	other, _ := newEditor(t)
	report, err := other.Load(first)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.False(t, report.Migrated())

	second, err := other.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestEditor_Drop(t *testing.T) {
	ed, rec := newEditor(t)

	box, err := ed.Drop(domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "vbox", GroupID: "layout"})
	require.NoError(t, err)
	btn, err := ed.Drop(domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "button", GroupID: "basic", TargetIndex: 1})
	require.NoError(t, err)

	moved, err := ed.Drop(domain.DropEvent{SourceKind: domain.SourceCanvas, ItemID: btn, TargetParentID: box})
	require.NoError(t, err)
	assert.Equal(t, btn, moved)
	children, err := ed.Children(box)
	require.NoError(t, err)
	assert.Equal(t, []string{btn}, children)
	assert.True(t, rec.mounts[len(rec.mounts)-1].Moved)

	_, err = ed.Drop(domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "nope", GroupID: "basic"})
	assert.ErrorIs(t, err, domain.ErrUnknownControlType)

	_, err = ed.Drop(domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "button", GroupID: "basic", TargetParentID: btn})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
	assert.Equal(t, 2, ed.Len())
}

func TestEditor_DropRejectionOp(t *testing.T) {
	ed, rec := newEditor(t)

	_, err := ed.Drop(domain.DropEvent{SourceKind: domain.SourceCanvas, TargetParentID: domain.Root})
	assert.ErrorIs(t, err, domain.ErrInvalidDrop)
	_, err = ed.Drop(domain.DropEvent{SourceKind: domain.SourceCatalog, GroupID: "basic"})
	assert.ErrorIs(t, err, domain.ErrInvalidDrop)
	_, err = ed.Drop(domain.DropEvent{SourceKind: "toolbar", ItemID: "button"})
	assert.ErrorIs(t, err, domain.ErrInvalidDrop)

	require.Len(t, rec.rejected, 3)
	assert.Equal(t, domain.OpMove, rec.rejected[0].Op)
	assert.Equal(t, domain.OpInsert, rec.rejected[1].Op)
	assert.Equal(t, domain.OpInsert, rec.rejected[2].Op)
	assert.Zero(t, ed.Len())
}

func TestEditor_SelectionFollowsRemoval(t *testing.T) {
	ed, _ := newEditor(t)
	box, _ := ed.InsertFromCatalog("vbox", "layout", domain.Root, 0)
	field, _ := ed.InsertFromCatalog("textfield", "basic", box, 0)

	require.NoError(t, ed.SelectLeaf(field))
	assert.Equal(t, domain.SelectionLeaf, ed.Selection().Mode)
	assert.NotEmpty(t, ed.SelectedProperties())

	assert.ErrorIs(t, ed.SelectLeaf(box), domain.ErrNotLeaf)
	assert.ErrorIs(t, ed.ActivateContainer(field), domain.ErrNotContainer)

	require.NoError(t, ed.Remove(box))
	assert.Equal(t, domain.SelectionIdle, ed.Selection().Mode)
	assert.Empty(t, ed.SelectedProperties())
	assert.ErrorIs(t, ed.SelectLeaf(field), domain.ErrNodeNotFound)
}

func TestEditor_PreviewMode(t *testing.T) {
	ed, _ := newEditor(t)
	field, _ := ed.InsertFromCatalog("textfield", "basic", domain.Root, 0)
	require.NoError(t, ed.SelectLeaf(field))

	require.NoError(t, ed.EnterPreview())
	assert.Equal(t, domain.Selection{Mode: domain.SelectionIdle, Preview: true}, ed.Selection())
	assert.ErrorIs(t, ed.SelectLeaf(field), domain.ErrPreviewActive)
	assert.ErrorIs(t, ed.SetProperty(field, "label", "x"), domain.ErrPreviewActive)

	ed.ExitPreview()
	assert.NoError(t, ed.SelectLeaf(field))
}

func TestEditor_StagedEdits(t *testing.T) {
	ed, _ := newEditor(t)
	btn, _ := ed.InsertFromCatalog("button", "basic", domain.Root, 0)
	ed.MarkClean()

	assert.ErrorIs(t, ed.StageEdit("variant", "secondary"), domain.ErrNotLeaf)
	assert.ErrorIs(t, ed.CommitEdit(), domain.ErrNoPendingEdit)

	require.NoError(t, ed.SelectLeaf(btn))
	require.NoError(t, ed.StageEdit("variant", "fancy"))
	assert.ErrorIs(t, ed.EnterPreview(), domain.ErrEditPending)

	err := ed.CommitEdit()
	require.Error(t, err)
	_, stillPending := ed.PendingEdit()
	assert.True(t, stillPending)
	assert.False(t, ed.Dirty())

	require.NoError(t, ed.StageEdit("variant", "secondary"))
	require.NoError(t, ed.CommitEdit())
	_, stillPending = ed.PendingEdit()
	assert.False(t, stillPending)
	assert.True(t, ed.Dirty())

	props, err := ed.Properties(btn)
	require.NoError(t, err)
	p, _ := props.Get("variant")
	assert.Equal(t, "secondary", p.Value.Raw())
	assert.Equal(t, domain.SelectionLeaf, ed.Selection().Mode, "edits never change the selection")
}

func TestEditor_HiddenValuesSurviveToggle(t *testing.T) {
	ed, _ := newEditor(t)
	field, _ := ed.InsertFromCatalog("textfield", "basic", domain.Root, 0)

	require.NoError(t, ed.SetProperty(field, "required", true))
	require.NoError(t, ed.SetProperty(field, "errorMessage", "Required!"))
	require.NoError(t, ed.SetProperty(field, "required", false))

	doc := ed.Serialize()
	assert.NotContains(t, doc.Form[0], "errorMessage")

	require.NoError(t, ed.SetProperty(field, "required", true))
	doc = ed.Serialize()
	assert.Equal(t, "Required!", doc.Form[0]["errorMessage"])
}

func TestEditor_SetPropertyKeepsListDefault(t *testing.T) {
	ed, _ := newEditor(t)
	radio, _ := ed.InsertFromCatalog("radio", "basic", domain.Root, 0)
	require.NoError(t, ed.SetListDefault(radio, "staticOptions", "option2"))

	require.NoError(t, ed.SetProperty(radio, "staticOptions", []any{
		map[string]any{"label": "One", "value": "option1", "default": true},
		map[string]any{"label": "Two", "value": "option2"},
		map[string]any{"label": "Three", "value": "option3"},
	}))

	props, _ := ed.Properties(radio)
	p, _ := props.Get("staticOptions")
	list := p.Value.(domain.List)
	def, ok := list.DefaultValue()
	require.True(t, ok)
	assert.Equal(t, "option2", def)
	assert.Len(t, list.Options, 3)

	assert.ErrorIs(t, ed.SetListDefault(radio, "staticOptions", "missing"), domain.ErrUnknownOption)
	assert.ErrorIs(t, ed.SetProperty(radio, "nope", 1), domain.ErrUnknownProperty)
}

func TestEditor_NonFiniteNumbersRejected(t *testing.T) {
	ed, rec := newEditor(t)
	header, _ := ed.InsertFromCatalog("header", "basic", domain.Root, 0)
	ed.MarkClean()

	for _, raw := range []any{"NaN", "+Inf", "-Inf", math.NaN(), math.Inf(-1)} {
		err := ed.SetProperty(header, "headerSize", raw)
		var verr *schema.ValidationError
		require.ErrorAs(t, err, &verr, "value %v", raw)
		assert.Equal(t, "headerSize", verr.Key)
	}
	assert.False(t, ed.Dirty())
	assert.Len(t, rec.rejected, 5)

	props, _ := ed.Properties(header)
	size, _ := props.Get("headerSize")
	assert.Equal(t, domain.Number(1), size.Value)

	data, err := ed.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"headerSize": 1`)
}

func TestEditor_LoadNonFiniteNumberKeepsDefault(t *testing.T) {
	ed, _ := newEditor(t)

	report, err := ed.Load([]byte(`{"form":[{"controlId":"header","groupId":"basic","label":"Title","headerSize":"NaN"}]}`))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Loaded)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "headerSize", report.Diagnostics[0].Property)
	assert.Equal(t, "form[0]", report.Diagnostics[0].Path)

	props, err := ed.Properties(ed.Roots()[0])
	require.NoError(t, err)
	size, _ := props.Get("headerSize")
	assert.Equal(t, domain.Number(1), size.Value)

	_, err = ed.Encode()
	require.NoError(t, err)
}

func TestEditor_DirtyLifecycle(t *testing.T) {
	ed, rec := newEditor(t)

	_, err := ed.Load([]byte(`{"form":[{"controlId":"checkbox","groupId":"basic","label":"ok"}]}`))
	require.NoError(t, err)
	assert.False(t, ed.Dirty())
	assert.Zero(t, rec.dirty)

	ed.Clear()
	assert.True(t, ed.Dirty())
	ed.MarkClean()
	assert.False(t, ed.Dirty())

	err = ed.Batch(func() error {
		_, err := ed.InsertFromCatalog("vbox", "layout", domain.Root, 0)
		if err != nil {
			return err
		}
		_, err = ed.InsertFromCatalog("button", "basic", domain.Root, 0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.dirty)
	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, domain.TreeChangedEvent{Op: domain.OpInsert, Nodes: 2}, last)
}

func TestEditor_Validate(t *testing.T) {
	ed, _ := newEditor(t)
	field, _ := ed.InsertFromCatalog("textfield", "basic", domain.Root, 0)
	require.NoError(t, ed.Validate())

	require.NoError(t, ed.SetProperty(field, "label", ""))
	assert.Error(t, ed.Validate())
}

func TestEditor_EncodeIsJSON(t *testing.T) {
	ed, _ := newEditor(t)
	_, _ = ed.InsertFromCatalog("header", "basic", domain.Root, 0)

	data, err := ed.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "feeds")
	assert.Contains(t, decoded, "scripts")
	assert.Contains(t, decoded, "code")
	assert.Contains(t, decoded, "form")
}
