package formtree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/formtree/internal/selection"
	"github.com/aretw0/formtree/internal/tree"
	loamAdapter "github.com/aretw0/formtree/pkg/adapters/loam"
	"github.com/aretw0/formtree/pkg/catalog"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/migration"
	"github.com/aretw0/formtree/pkg/ports"
)

// Migrator upgrades stored nodes to the current field names.
// *migration.Chain is the default implementation.
type Migrator interface {
	Migrate(raw domain.RawNode) (domain.RawNode, []string)
}

// Lookup is the result of Editor.Find: a node snapshot and its ancestors, outermost first.
type Lookup = tree.Lookup

// Editor is one form being designed. It owns an isolated node store, the
// selection state of its property panel and the document fields it does not
// edit itself (feeds, scripts, code).
//
// An Editor is not safe for concurrent use; pkg/session serializes access
// when several clients share one.
type Editor struct {
	catalog  ports.Catalog
	migrator Migrator
	store    *tree.Store
	sel      *selection.Machine
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	newID    func() string

	doc   domain.Document
	dirty bool

	Name string
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithCatalog injects a custom catalog, bypassing the default Loam or built-in palette.
func WithCatalog(c ports.Catalog) Option {
	return func(e *Editor) {
		e.catalog = c
	}
}

// WithLifecycleHooks registers mount, unmount, change, dirty and rejection callbacks.
// It can be given several times; the hooks run in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = domain.ComposeHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithIDGenerator replaces the uuid generator used for runtime node ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) {
		e.newID = fn
	}
}

// WithMigrator replaces the default migration rules applied on load.
func WithMigrator(m Migrator) Option {
	return func(e *Editor) {
		e.migrator = m
	}
}

// WithName labels the editor, typically with the form ID.
func WithName(name string) Option {
	return func(e *Editor) {
		e.Name = name
	}
}

// New creates an empty editor.
// When catalogDir is set, control definitions are read from that Loam repository;
// otherwise the built-in palette is used. WithCatalog overrides both.
func New(catalogDir string, opts ...Option) (*Editor, error) {
	e := &Editor{doc: domain.NewDocument()}

	for _, opt := range opts {
		opt(e)
	}

	if e.catalog == nil {
		if catalogDir != "" {
			absPath, err := filepath.Abs(catalogDir)
			if err != nil {
				return nil, fmt.Errorf("invalid path: %w", err)
			}
			c, err := loamAdapter.Open(context.Background(), absPath)
			if err != nil {
				return nil, err
			}
			e.catalog = c
		} else {
			e.catalog = catalog.Default()
		}
	}
	if e.migrator == nil {
		e.migrator = migration.Default()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.Name != "" {
		e.logger = e.logger.With("form", e.Name)
	}

	e.sel = selection.New(func(s domain.Selection) {
		if e.hooks.OnSelectionChanged != nil {
			e.hooks.OnSelectionChanged(s)
		}
	})

	storeOpts := []tree.Option{
		tree.WithLogger(e.logger),
		tree.WithHooks(domain.LifecycleHooks{
			OnMount:       e.onMount,
			OnUnmount:     e.onUnmount,
			OnTreeChanged: e.onTreeChanged,
		}),
	}
	if e.newID != nil {
		storeOpts = append(storeOpts, tree.WithIDGenerator(e.newID))
	}
	e.store = tree.New(storeOpts...)

	return e, nil
}

// MustNew is New for callers that only use injected catalogs or the built-in palette.
func MustNew(opts ...Option) *Editor {
	e, err := New("", opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Catalog returns the catalog the editor resolves controls with.
func (e *Editor) Catalog() ports.Catalog {
	return e.catalog
}

func (e *Editor) onMount(ev domain.MountEvent) {
	if e.hooks.OnMount != nil {
		e.hooks.OnMount(ev)
	}
}

func (e *Editor) onUnmount(ev domain.UnmountEvent) {
	e.sel.Forget(ev.NodeID)
	if e.hooks.OnUnmount != nil {
		e.hooks.OnUnmount(ev)
	}
}

func (e *Editor) onTreeChanged(ev domain.TreeChangedEvent) {
	if ev.Op != domain.OpLoad {
		e.markDirty()
	}
	if e.hooks.OnTreeChanged != nil {
		e.hooks.OnTreeChanged(ev)
	}
}

func (e *Editor) markDirty() {
	if e.dirty {
		return
	}
	e.dirty = true
	if e.hooks.OnDirty != nil {
		e.hooks.OnDirty()
	}
}

// Dirty reports whether the form changed since it was loaded or last marked clean.
func (e *Editor) Dirty() bool {
	return e.dirty
}

// MarkDirty flags the form as changed, for content that did not come from the
// store the editor is saved to.
func (e *Editor) MarkDirty() {
	e.markDirty()
}

// MarkClean resets the dirty flag, typically after a successful save.
func (e *Editor) MarkClean() {
	e.dirty = false
}

// reject reports a failed operation and returns err unchanged.
func (e *Editor) reject(op domain.ChangeOp, err error) error {
	e.logger.Debug("operation rejected", "op", op, "err", err)
	if e.hooks.OnRejected != nil {
		e.hooks.OnRejected(domain.RejectedEvent{Op: op, Err: err})
	}
	return err
}
