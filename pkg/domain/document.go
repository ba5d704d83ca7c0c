package domain

import (
	"encoding/json"
	"fmt"
)

// RawNode is one persisted node: controlId, groupId and either flattened
// property values (leaves) or a children array (containers).
type RawNode map[string]any

// ControlID returns the stored control id, or "" when missing.
func (r RawNode) ControlID() string {
	s, _ := r[KeyControlID].(string)
	return s
}

// GroupID returns the stored group id, or "" when missing.
func (r RawNode) GroupID() string {
	s, _ := r[KeyGroupID].(string)
	return s
}

// Children returns the nested raw nodes, leaving out entries that are not
// objects. The second result is false when the node has no children array.
func (r RawNode) Children() ([]RawNode, bool) {
	entries, err := r.ChildEntries()
	if err != nil || entries == nil {
		return nil, false
	}
	out := make([]RawNode, 0, len(entries))
	for _, c := range entries {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, true
}

// ChildEntries returns one slot per stored child, in order. A slot is nil when
// its entry is not an object. It returns nil without error when the field is
// absent, and ErrMalformedChildren when the field holds anything but an array.
func (r RawNode) ChildEntries() ([]RawNode, error) {
	v, ok := r[KeyChildren]
	if !ok || v == nil {
		return nil, nil
	}
	switch c := v.(type) {
	case []RawNode:
		return c, nil
	case []map[string]any:
		out := make([]RawNode, len(c))
		for i, m := range c {
			out[i] = m
		}
		return out, nil
	case []any:
		out := make([]RawNode, len(c))
		for i, item := range c {
			switch m := item.(type) {
			case map[string]any:
				out[i] = m
			case RawNode:
				out[i] = m
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: got %T", ErrMalformedChildren, v)
}

// Clone returns a shallow copy of the node's top level fields.
func (r RawNode) Clone() RawNode {
	out := make(RawNode, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Document is the persisted form file. Feeds, Scripts and Code are owned by
// other subsystems and preserved verbatim.
type Document struct {
	Feeds   []json.RawMessage `json:"feeds"`
	Scripts []json.RawMessage `json:"scripts"`
	Code    string            `json:"code"`
	Form    []RawNode         `json:"form"`
}

// NewDocument returns an empty document whose arrays encode as [] rather than null.
func NewDocument() Document {
	return Document{
		Feeds:   []json.RawMessage{},
		Scripts: []json.RawMessage{},
		Form:    []RawNode{},
	}
}

// ParseDocument decodes a JSON form file. Missing arrays are normalized to empty ones.
func ParseDocument(data []byte) (Document, error) {
	doc := NewDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	if doc.Feeds == nil {
		doc.Feeds = []json.RawMessage{}
	}
	if doc.Scripts == nil {
		doc.Scripts = []json.RawMessage{}
	}
	if doc.Form == nil {
		doc.Form = []RawNode{}
	}
	return doc, nil
}
