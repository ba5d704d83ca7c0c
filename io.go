package formtree

import (
	"encoding/json"

	"github.com/aretw0/formtree/internal/codec"
	"github.com/aretw0/formtree/pkg/domain"
)

// LoadReport summarizes what Deserialize loaded, skipped and migrated.
type LoadReport = codec.Report

// Serialize renders the form as a document. Feeds, scripts and code of the last
// loaded document are carried over unchanged.
func (e *Editor) Serialize() domain.Document {
	doc := e.doc
	doc.Form = codec.Serialize(e.store)
	return doc
}

// Encode returns the serialized document as indented JSON.
func (e *Editor) Encode() ([]byte, error) {
	return json.MarshalIndent(e.Serialize(), "", "  ")
}

// Deserialize replaces the form with the nodes of doc. Nodes whose control type
// is unknown are skipped and reported; every other node loads with fresh ids.
// The editor ends up clean unless a stored node had to be migrated.
func (e *Editor) Deserialize(doc domain.Document) LoadReport {
	e.sel.Forget()
	e.doc = domain.NewDocument()
	e.doc.Code = doc.Code
	if doc.Feeds != nil {
		e.doc.Feeds = doc.Feeds
	}
	if doc.Scripts != nil {
		e.doc.Scripts = doc.Scripts
	}

	var report LoadReport
	_ = e.store.Batch(domain.OpLoad, func() error {
		e.store.Clear()
		report = codec.Deserialize(e.store, doc.Form, e.catalog, e.migrator)
		return nil
	})

	for _, s := range report.Skipped {
		e.logger.Warn("skipped stored node", "path", s.Path, "controlId", s.ControlID, "groupId", s.GroupID, "err", s.Err)
	}
	for _, d := range report.Diagnostics {
		e.logger.Warn("ignored stored value", "path", d.Path, "property", d.Property, "err", d.Err)
	}
	for _, m := range report.Migrations {
		e.logger.Info("migrated stored node", "controlId", m.ControlID, "rules", m.Rules)
		if e.hooks.OnMigrated != nil {
			e.hooks.OnMigrated(m)
		}
	}

	e.dirty = false
	if report.Migrated() {
		e.markDirty()
	}
	return report
}

// Load parses a JSON document and deserializes it.
func (e *Editor) Load(data []byte) (LoadReport, error) {
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return LoadReport{}, err
	}
	return e.Deserialize(doc), nil
}
