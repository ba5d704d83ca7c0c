package domain

// SelectionMode is the state of the property panel.
type SelectionMode string

const (
	SelectionIdle      SelectionMode = "idle"
	SelectionLeaf      SelectionMode = "leaf"
	SelectionContainer SelectionMode = "container"
)

// Selection is a snapshot of an editor's selection machine.
type Selection struct {
	Mode    SelectionMode `json:"mode"`
	NodeID  string        `json:"nodeId,omitempty"`
	Preview bool          `json:"preview"`
}

// PendingEdit is a property value staged by the panel and awaiting validation.
type PendingEdit struct {
	NodeID   string `json:"nodeId"`
	Property string `json:"property"`
	Value    any    `json:"value"`
}
