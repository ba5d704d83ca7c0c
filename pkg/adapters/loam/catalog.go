package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aretw0/formtree/pkg/catalog"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/loam"
)

// Catalog adapts a Loam repository of control documents to the ports.Catalog interface.
// Each document describes one control; its groupId defaults to the folder it lives in.
type Catalog struct {
	Repo  *loam.TypedRepository[ControlMetadata]
	index *catalog.Catalog
}

// New creates a catalog over repo and loads every definition.
func New(ctx context.Context, repo *loam.TypedRepository[ControlMetadata]) (*Catalog, error) {
	c := &Catalog{Repo: repo, index: catalog.New()}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Open initializes a read-only Loam repository at dir and loads it as a catalog.
func Open(ctx context.Context, dir string) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode makes every adapter (JSON, Markdown/YAML) return json.Number for numbers.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(ctx, loam.NewTypedRepository[ControlMetadata](repo))
}

// Reload rebuilds the index from the repository. On error the previous index is kept.
func (c *Catalog) Reload(ctx context.Context) error {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	defs := make([]domain.ControlDefinition, 0, len(docs))
	for _, doc := range docs {
		spec := doc.Data.spec(doc.ID)
		if spec.GroupID == "" {
			spec.GroupID = folderOf(doc.ID)
		}

		def, err := catalog.Build(spec)
		if err != nil {
			return fmt.Errorf("invalid control document %s: %w", doc.ID, err)
		}

		key := def.GroupID + "/" + def.ControlID
		if existing, ok := seen[key]; ok {
			return fmt.Errorf("collision detected: control '%s' is defined in both '%s' and '%s'", key, existing, doc.ID)
		}
		seen[key] = doc.ID
		defs = append(defs, def)
	}

	c.index.Replace(defs)
	return nil
}

// GetDefinition implements ports.Catalog.
func (c *Catalog) GetDefinition(controlID, groupID string) (domain.ControlDefinition, error) {
	return c.index.GetDefinition(controlID, groupID)
}

// List implements ports.Catalog.
func (c *Catalog) List() []domain.ControlDefinition {
	return c.index.List()
}

// Watch implements ports.Watchable.
func (c *Catalog) Watch(ctx context.Context) (<-chan string, error) {
	events, err := c.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(path.Base(id), path.Ext(id))
}

func folderOf(id string) string {
	dir := path.Dir(filepath.ToSlash(id))
	if dir == "." || dir == "/" {
		return ""
	}
	return path.Base(dir)
}
