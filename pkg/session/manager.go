package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/internal/logging"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
)

// ErrFormExists is returned by Create when the form ID is already taken.
var ErrFormExists = errors.New("form already exists")

// DefaultLockTTL bounds how long a crashed replica can hold a form's distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager keeps the open editors of a server and serializes access to each of
// them. Documents are loaded from and saved to a ports.FormStore around the pure
// Serialize/Deserialize pair of the editor.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.FormStore

	mu      sync.Mutex                  // Global lock for the maps
	locks   map[string]*lockEntry       // Map of active locks
	editors map[string]*formtree.Editor // Open editors by form ID

	editorOpts []formtree.Option
	formHooks  []func(formID string) domain.LifecycleHooks
	onClose    []func(formID string)
	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets the options every editor is created with (catalog, hooks, logger...).
func WithEditorOptions(opts ...formtree.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// WithFormHooks registers hooks built per form, such as observability.Metrics.Hooks.
// It can be given several times.
func WithFormHooks(fn func(formID string) domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.formHooks = append(m.formHooks, fn)
	}
}

// WithOnClose registers a callback run after a form's editor is dropped by Close or Delete,
// such as observability.Metrics.Forget.
func WithOnClose(fn func(formID string)) Option {
	return func(m *Manager) {
		m.onClose = append(m.onClose, fn)
	}
}

// NewManager creates a new Manager over the given form store.
func NewManager(store ports.FormStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		editors: make(map[string]*formtree.Editor),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(formID) after unlocking.
func (m *Manager) acquire(formID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[formID]
	if !exists {
		entry = &lockEntry{}
		m.locks[formID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(formID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[formID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, formID)
	}
}

// Open loads a stored form into an editor, or returns the report of an empty
// load when the form is already open. It returns domain.ErrFormNotFound for an
// unknown ID.
func (m *Manager) Open(ctx context.Context, formID string) (formtree.LoadReport, error) {
	var report formtree.LoadReport
	err := m.WithLock(ctx, formID, func(ctx context.Context) error {
		if m.cached(formID) != nil {
			return nil
		}
		var err error
		_, report, err = m.load(ctx, formID)
		return err
	})
	return report, err
}

// Create starts an empty form and persists it immediately to reserve the ID.
func (m *Manager) Create(ctx context.Context, formID string) error {
	return m.WithLock(ctx, formID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, formID)
		if err == nil {
			return fmt.Errorf("%w: %q", ErrFormExists, formID)
		}
		if !errors.Is(err, domain.ErrFormNotFound) {
			return fmt.Errorf("failed to check form existence: %w", err)
		}

		ed, err := m.newEditor(formID)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, formID, ed.Serialize()); err != nil {
			return fmt.Errorf("failed to initialize form: %w", err)
		}
		m.keep(formID, ed)
		return nil
	})
}

// WithEditor runs fn with exclusive access to the form's editor, opening it first if needed.
func (m *Manager) WithEditor(ctx context.Context, formID string, fn func(context.Context, *formtree.Editor) error) error {
	return m.WithLock(ctx, formID, func(ctx context.Context) error {
		ed := m.cached(formID)
		if ed == nil {
			var err error
			if ed, _, err = m.load(ctx, formID); err != nil {
				return err
			}
		}
		return fn(ctx, ed)
	})
}

// Save persists the open editor of a form and marks it clean.
func (m *Manager) Save(ctx context.Context, formID string) error {
	return m.WithLock(ctx, formID, func(ctx context.Context) error {
		ed := m.cached(formID)
		if ed == nil {
			return fmt.Errorf("form %q is not open", formID)
		}
		if err := m.store.Save(ctx, formID, ed.Serialize()); err != nil {
			return fmt.Errorf("failed to save form %q: %w", formID, err)
		}
		ed.MarkClean()
		return nil
	})
}

// Close drops the open editor of a form. Unsaved changes are discarded and logged.
func (m *Manager) Close(ctx context.Context, formID string) error {
	return m.WithLock(ctx, formID, func(ctx context.Context) error {
		ed := m.cached(formID)
		if ed == nil {
			return nil
		}
		if ed.Dirty() {
			m.logger.Warn("closing form with unsaved changes", "form_id", formID)
		}
		m.forget(formID)
		return nil
	})
}

// Delete removes the form from the store and closes its editor.
func (m *Manager) Delete(ctx context.Context, formID string) error {
	return m.WithLock(ctx, formID, func(ctx context.Context) error {
		m.forget(formID)
		return m.store.Delete(ctx, formID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Opened returns whether the form currently has an editor in memory.
func (m *Manager) Opened(formID string) bool {
	return m.cached(formID) != nil
}

// Store returns the underlying form store.
func (m *Manager) Store() ports.FormStore {
	return m.store
}

// WithLock executes a function while holding the lock for the form.
func (m *Manager) WithLock(ctx context.Context, formID string, fn func(context.Context) error) error {
	entry := m.acquire(formID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(formID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, formID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"form_id", formID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// load must run under the form's lock.
func (m *Manager) load(ctx context.Context, formID string) (*formtree.Editor, formtree.LoadReport, error) {
	doc, err := m.store.Load(ctx, formID)
	if err != nil {
		return nil, formtree.LoadReport{}, err
	}
	ed, err := m.newEditor(formID)
	if err != nil {
		return nil, formtree.LoadReport{}, err
	}
	report := ed.Deserialize(doc)
	if !report.Clean() {
		m.logger.Warn("form loaded with issues",
			"form_id", formID,
			"skipped", len(report.Skipped),
			"diagnostics", len(report.Diagnostics),
		)
	}
	m.keep(formID, ed)
	return ed, report, nil
}

func (m *Manager) newEditor(formID string) (*formtree.Editor, error) {
	opts := append([]formtree.Option{formtree.WithName(formID)}, m.editorOpts...)
	for _, fn := range m.formHooks {
		opts = append(opts, formtree.WithLifecycleHooks(fn(formID)))
	}
	ed, err := formtree.New("", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor for %q: %w", formID, err)
	}
	return ed, nil
}

func (m *Manager) cached(formID string) *formtree.Editor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editors[formID]
}

func (m *Manager) keep(formID string, ed *formtree.Editor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editors[formID] = ed
}

func (m *Manager) forget(formID string) {
	m.mu.Lock()
	_, open := m.editors[formID]
	delete(m.editors, formID)
	m.mu.Unlock()

	if !open {
		return
	}
	for _, fn := range m.onClose {
		fn(formID)
	}
}
