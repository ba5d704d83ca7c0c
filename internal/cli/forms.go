package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/pkg/domain"
)

// FormName derives a form name from its file path: "forms/signup.json" is "signup".
func FormName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadForm parses a form document file.
func ReadForm(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read form: %w", err)
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// OpenForm loads a form file into a new editor.
func (e *Env) OpenForm(path string) (*formtree.Editor, formtree.LoadReport, error) {
	doc, err := ReadForm(path)
	if err != nil {
		return nil, formtree.LoadReport{}, err
	}
	ed := e.NewEditor(FormName(path))
	return ed, ed.Deserialize(doc), nil
}

// WriteForm encodes the editor's document and replaces the file atomically.
func WriteForm(path string, ed *formtree.Editor) error {
	data, err := ed.Encode()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write form: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	ed.MarkClean()
	return nil
}
