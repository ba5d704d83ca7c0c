package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/internal/testutils"
	"github.com/aretw0/formtree/pkg/adapters/memory"
	"github.com/aretw0/formtree/pkg/catalog"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	streams := NewStreamManager()
	mgr := session.NewManager(store,
		session.WithEditorOptions(formtree.WithIDGenerator(testutils.SequentialIDs("n"))),
		session.WithFormHooks(streams.Hooks),
	)
	return NewHandler(mgr, catalog.Default(), WithStreams(streams)), store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_EditAndSave(t *testing.T) {
	h, store := newTestHandler(t)

	w := do(t, h, "POST", "/forms/contact", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, "POST", "/forms/contact/drop", domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "vbox", GroupID: "layout"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	box := decode[map[string]string](t, w)["id"]

	w = do(t, h, "POST", "/forms/contact/drop", domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "textfield", GroupID: "basic", TargetParentID: box})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	field := decode[map[string]string](t, w)["id"]

	w = do(t, h, "PUT", "/forms/contact/nodes/"+field+"/properties/label", map[string]any{"value": "Email"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, "GET", "/forms/contact/tree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decode[struct {
		Roots []string `json:"roots"`
		Nodes []struct {
			ID       string `json:"id"`
			ParentID string `json:"parentId"`
		} `json:"nodes"`
		Dirty bool `json:"dirty"`
	}](t, w)
	assert.Equal(t, []string{box}, tree.Roots)
	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, box, tree.Nodes[1].ParentID)
	assert.True(t, tree.Dirty)

	w = do(t, h, "POST", "/forms/contact/save", nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	doc, err := store.Load(context.Background(), "contact")
	require.NoError(t, err)
	require.Len(t, doc.Form, 1)
	children, ok := doc.Form[0].Children()
	require.True(t, ok)
	assert.Equal(t, "Email", children[0]["label"])

	w = do(t, h, "GET", "/forms/", nil)
	assert.Equal(t, []string{"contact"}, decode[[]string](t, w))
}

func TestServer_ErrorStatus(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/forms/missing", nil).Code)

	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/forms/f", nil).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, "POST", "/forms/f", nil).Code)

	w := do(t, h, "POST", "/forms/f/drop", domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "sparkline", GroupID: "charts"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error, "sparkline")

	w = do(t, h, "DELETE", "/forms/f/nodes/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/forms/f/drop", "not an event")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_SelectionAndPreview(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/forms/f", nil).Code)

	w := do(t, h, "POST", "/forms/f/drop", domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "button", GroupID: "basic"})
	btn := decode[map[string]string](t, w)["id"]

	w = do(t, h, "PUT", "/forms/f/selection", map[string]string{"nodeId": btn})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decode[struct {
		Selection  domain.Selection `json:"selection"`
		Properties []struct {
			Name string `json:"name"`
		} `json:"properties"`
	}](t, w)
	assert.Equal(t, domain.SelectionLeaf, sel.Selection.Mode)
	assert.NotEmpty(t, sel.Properties)

	require.Equal(t, http.StatusOK, do(t, h, "POST", "/forms/f/preview", nil).Code)
	w = do(t, h, "PUT", "/forms/f/selection", map[string]string{"nodeId": btn})
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, do(t, h, "DELETE", "/forms/f/preview", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, "PUT", "/forms/f/selection", map[string]string{"nodeId": btn}).Code)
}

func TestServer_PutFormMigrates(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/forms/f", nil).Code)

	w := do(t, h, "PUT", "/forms/f", map[string]any{
		"form": []map[string]any{
			{"controlId": "header", "groupId": "basic", "title": "Hi"},
			{"controlId": "sparkline", "groupId": "charts"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[loadResponse](t, w)
	assert.Equal(t, 1, resp.Loaded)
	assert.Len(t, resp.Skipped, 1)
	assert.True(t, resp.Migrated)

	w = do(t, h, "GET", "/forms/f", nil)
	doc := decode[domain.Document](t, w)
	require.Len(t, doc.Form, 1)
	assert.Equal(t, "Hi", doc.Form[0]["label"])
}

func TestServer_Catalog(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(t, h, "GET", "/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	controls := decode[[]struct {
		ControlID string `json:"controlId"`
		Container bool   `json:"container"`
	}](t, w)
	assert.NotEmpty(t, controls)

	w = do(t, h, "GET", "/info", nil)
	assert.Equal(t, formtree.Version, decode[map[string]string](t, w)["version"])
}

func TestSubscribeEvents_Form(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/forms/live", nil).Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/forms/live/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	wait := func(substr string) {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", substr)
				}
				if strings.Contains(line, substr) {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", substr)
			}
		}
	}

	wait("data: connected")
	w := do(t, h, "POST", "/forms/live/drop", domain.DropEvent{SourceKind: domain.SourceCatalog, ItemID: "checkbox", GroupID: "basic"})
	require.Equal(t, http.StatusOK, w.Code)

	wait(`"type":"mount"`)
	wait(`"type":"treeChanged"`)
}
