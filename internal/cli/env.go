package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/internal/adapters/file"
	redisStore "github.com/aretw0/formtree/internal/adapters/redis"
	"github.com/aretw0/formtree/internal/config"
	"github.com/aretw0/formtree/internal/logging"
	loamAdapter "github.com/aretw0/formtree/pkg/adapters/loam"
	"github.com/aretw0/formtree/pkg/adapters/memory"
	redisLock "github.com/aretw0/formtree/pkg/adapters/redis"
	"github.com/aretw0/formtree/pkg/catalog"
	"github.com/aretw0/formtree/pkg/persistence/middleware"
	"github.com/aretw0/formtree/pkg/ports"
	"github.com/aretw0/formtree/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Options are the global CLI flags. Set fields override the config file.
type Options struct {
	ConfigPath string
	CatalogDir string
	LogLevel   string
	Debug      bool
}

// Env is everything a command needs, built once from flags and formtree.yaml.
type Env struct {
	Config  config.Config
	Logger  *slog.Logger
	Catalog ports.Catalog

	closers []func() error
}

// Setup loads the configuration, the logger and the catalog.
// Stores are opened lazily by OpenStore since most commands work on files.
func Setup(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.CatalogDir != "" {
		cfg.CatalogDir = opts.CatalogDir
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env := &Env{
		Config: cfg,
		Logger: logging.NewWriter(os.Stderr, cfg.Level(), logging.Format(cfg.LogFormat)),
	}

	if cfg.CatalogDir == "" {
		env.Catalog = catalog.Default()
		return env, nil
	}
	cat, err := loamAdapter.Open(ctx, cfg.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.CatalogDir, err)
	}
	env.Catalog = cat
	env.Logger.Debug("Catalog loaded", "dir", cfg.CatalogDir, "controls", len(cat.List()))
	return env, nil
}

// EditorOptions returns the options every editor created by the CLI shares.
func (e *Env) EditorOptions() []formtree.Option {
	opts := []formtree.Option{
		formtree.WithCatalog(e.Catalog),
		formtree.WithLogger(e.Logger),
	}
	if e.Logger.Enabled(context.Background(), slog.LevelDebug) {
		opts = append(opts, formtree.WithLifecycleHooks(DebugHooks(e.Logger)))
	}
	return opts
}

// NewEditor creates an empty editor over the configured catalog.
func (e *Env) NewEditor(name string) *formtree.Editor {
	return formtree.MustNew(append(e.EditorOptions(), formtree.WithName(name))...)
}

// OpenStore connects the configured form store, sealing documents when an
// encryption key is configured. The redis driver also returns a distributed
// locker when store.redis.lock is set.
func (e *Env) OpenStore() (ports.FormStore, ports.DistributedLocker, error) {
	store, locker, err := e.openDriver()
	if err != nil {
		return nil, nil, err
	}

	active, fallback, err := e.Config.Store.Encryption.Keys()
	if err != nil || active == nil {
		return store, locker, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})
	if err != nil {
		return nil, nil, err
	}
	e.Logger.Debug("Form encryption enabled", "fallback_keys", len(fallback))
	return middleware.Chain(store, mw), locker, nil
}

func (e *Env) openDriver() (ports.FormStore, ports.DistributedLocker, error) {
	sc := e.Config.Store
	switch sc.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil, nil
	case config.DriverFile:
		return file.New(sc.Path), nil, nil
	case config.DriverRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     sc.Redis.Address,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", sc.Redis.Address, err)
		}
		e.closers = append(e.closers, client.Close)

		store := redisStore.NewFromClient(client,
			redisStore.WithPrefix(sc.Redis.Prefix+":form:"),
			redisStore.WithTTL(sc.Redis.TTL),
		)
		if !sc.Redis.Lock {
			return store, nil, nil
		}
		return store, redisLock.NewLocker(client, sc.Redis.Prefix+":lock:"), nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}

// NewManager opens the store and builds a session manager over it.
func (e *Env) NewManager(opts ...session.Option) (*session.Manager, error) {
	store, locker, err := e.OpenStore()
	if err != nil {
		return nil, err
	}
	base := []session.Option{
		session.WithLogger(e.Logger),
		session.WithEditorOptions(e.EditorOptions()...),
	}
	if locker != nil {
		base = append(base, session.WithLocker(locker))
	}
	e.Logger.Info("Form store ready", "driver", e.Config.Store.Driver, "distributed_lock", locker != nil)
	return session.NewManager(store, append(base, opts...)...), nil
}

// Close releases connections opened by the environment.
func (e *Env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	e.closers = nil
	return errors.Join(errs...)
}
