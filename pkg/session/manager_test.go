package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/pkg/adapters/memory"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s *SlowStore) Save(ctx context.Context, formID string, doc domain.Document) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, formID, doc)
}

func (s *SlowStore) Load(ctx context.Context, formID string) (domain.Document, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	return s.Store.Load(ctx, formID)
}

func TestManager_ConcurrentEdits(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Create(ctx, id))

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Each writer inserts one node and saves. Without serialization the
	// editor's store would be mutated concurrently and nodes would be lost.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithEditor(ctx, id, func(ctx context.Context, ed *formtree.Editor) error {
				_, err := ed.InsertFromCatalog("button", "basic", domain.Root, 0)
				return err
			})
			assert.NoError(t, err)
			assert.NoError(t, manager.Save(ctx, id))
		}()
	}
	wg.Wait()

	doc, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, doc.Form, concurrentWrites)
}

func TestManager_CreateIsAtomic(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- manager.Create(ctx, id)
		}()
	}
	wg.Wait()
	close(errs)

	var failed int
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, session.ErrFormExists)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestManager_OpenSaveCycle(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "legacy", domain.Document{
		Code: "x = 1",
		Form: []domain.RawNode{{"controlId": "header", "groupId": "basic", "title": "Welcome"}},
	}))

	manager := session.NewManager(store)

	_, err := manager.Open(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFormNotFound)
	assert.False(t, manager.Opened("missing"))

	report, err := manager.Open(ctx, "legacy")
	require.NoError(t, err)
	assert.True(t, report.Migrated())
	assert.True(t, manager.Opened("legacy"))

	err = manager.WithEditor(ctx, "legacy", func(ctx context.Context, ed *formtree.Editor) error {
		assert.True(t, ed.Dirty())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, manager.Save(ctx, "legacy"))
	doc, err := store.Load(ctx, "legacy")
	require.NoError(t, err)
	require.Len(t, doc.Form, 1)
	assert.Equal(t, "Welcome", doc.Form[0]["label"])
	assert.NotContains(t, doc.Form[0], "title")
	assert.Equal(t, "x = 1", doc.Code)

	_ = manager.WithEditor(ctx, "legacy", func(ctx context.Context, ed *formtree.Editor) error {
		assert.False(t, ed.Dirty())
		return nil
	})

	require.NoError(t, manager.Close(ctx, "legacy"))
	assert.False(t, manager.Opened("legacy"))
	assert.Error(t, manager.Save(ctx, "legacy"))
}

func TestManager_Delete(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, "gone"))
	require.NoError(t, manager.Delete(ctx, "gone"))
	assert.False(t, manager.Opened("gone"))

	_, err := store.Load(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrFormNotFound)
}

func TestManager_EditorOptions(t *testing.T) {
	var mounts int
	manager := session.NewManager(memory.NewStore(), session.WithEditorOptions(
		formtree.WithLifecycleHooks(domain.LifecycleHooks{
			OnMount: func(domain.MountEvent) { mounts++ },
		}),
	))
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, "hooks"))
	err := manager.WithEditor(ctx, "hooks", func(ctx context.Context, ed *formtree.Editor) error {
		_, err := ed.InsertFromCatalog("checkbox", "", domain.Root, 0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mounts)
}

func TestManager_OnClose(t *testing.T) {
	var closed []string
	manager := session.NewManager(memory.NewStore(), session.WithOnClose(func(formID string) {
		closed = append(closed, formID)
	}))
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, "a"))
	require.NoError(t, manager.Create(ctx, "b"))

	require.NoError(t, manager.Close(ctx, "a"))
	require.NoError(t, manager.Close(ctx, "a"))
	require.NoError(t, manager.Delete(ctx, "b"))

	assert.Equal(t, []string{"a", "b"}, closed, "forms that are not open are not reported")
}
