package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/formtree/pkg/domain"
)

// Store implements ports.FormStore using the local filesystem.
// It stores every form as <formID>.json in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".formtree/forms".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".formtree", "forms")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(formID string) (string, error) {
	if formID == "" {
		return "", fmt.Errorf("formID cannot be empty")
	}
	if strings.ContainsAny(formID, `/\`) || formID == "." || formID == ".." {
		return "", fmt.Errorf("invalid formID %q", formID)
	}
	return filepath.Join(s.BasePath, formID+".json"), nil
}

// Save persists the document to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, formID string, doc domain.Document) error {
	destPath, err := s.path(formID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure form directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal form: %w", err)
	}

	// The temp file lives in the same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+formID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing form file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to form file: %w", err)
	}
	return nil
}

// Load reads a form document from its JSON file.
func (s *Store) Load(ctx context.Context, formID string) (domain.Document, error) {
	filePath, err := s.path(formID)
	if err != nil {
		return domain.Document{}, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Document{}, domain.ErrFormNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to read form file: %w", err)
	}

	doc, err := domain.ParseDocument(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to unmarshal form %s: %w", formID, err)
	}
	return doc, nil
}

// Delete removes the form file.
func (s *Store) Delete(ctx context.Context, formID string) error {
	filePath, err := s.path(formID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete form file: %w", err)
	}
	return nil
}

// List returns all stored form IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	var forms []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		forms = append(forms, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(forms)
	return forms, nil
}
