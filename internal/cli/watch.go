package cli

import (
	"context"
	"log/slog"
	"time"
)

// Reloadable is a catalog that can be watched and rebuilt, such as the Loam catalog.
type Reloadable interface {
	Watch(ctx context.Context) (<-chan string, error)
	Reload(ctx context.Context) error
}

// settle lets editors finish writing before the directory is re-read.
const settle = 100 * time.Millisecond

// WatchCatalog reloads the catalog whenever one of its documents changes,
// until ctx is done. Bursts of changes are coalesced into one reload.
// onReload, when set, runs after every successful reload.
func WatchCatalog(ctx context.Context, cat Reloadable, logger *slog.Logger, onReload func()) error {
	events, err := cat.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-events:
				if !ok {
					return
				}
				logger.Info("Catalog change detected", "document", id)

				timer := time.NewTimer(settle)
			drain:
				for {
					select {
					case <-ctx.Done():
						timer.Stop()
						return
					case _, ok := <-events:
						if !ok {
							break drain
						}
					case <-timer.C:
						break drain
					}
				}

				// A failed reload keeps the previous definitions.
				if err := cat.Reload(ctx); err != nil {
					logger.Error("Catalog reload failed", "err", err)
					continue
				}
				logger.Info("Catalog reloaded")
				if onReload != nil {
					onReload()
				}
			}
		}
	}()
	return nil
}
