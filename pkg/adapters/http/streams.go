package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/formtree/pkg/domain"
)

// Event is one message of a form's event stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // FormID -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(formID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 32)
	if _, ok := sm.subscribers[formID]; !ok {
		sm.subscribers[formID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[formID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[formID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, formID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(formID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[formID]; ok {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				slog.Warn("SSE: Client buffer full, dropping message", "form_id", formID)
			}
		}
	}
}

func (sm *StreamManager) publish(formID, typ string, data any) {
	payload, err := json.Marshal(Event{Type: typ, Data: data})
	if err != nil {
		slog.Error("SSE: Event encode failed", "type", typ, "err", err)
		return
	}
	sm.Broadcast(formID, string(payload))
}

// Hooks returns the editor hooks that forward the events of formID to its subscribers.
// Pass it to session.WithFormHooks.
func (sm *StreamManager) Hooks(formID string) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMount: func(ev domain.MountEvent) {
			sm.publish(formID, "mount", ev)
		},
		OnUnmount: func(ev domain.UnmountEvent) {
			sm.publish(formID, "unmount", ev)
		},
		OnTreeChanged: func(ev domain.TreeChangedEvent) {
			sm.publish(formID, "treeChanged", ev)
		},
		OnDirty: func() {
			sm.publish(formID, "dirty", true)
		},
		OnSelectionChanged: func(s domain.Selection) {
			sm.publish(formID, "selection", s)
		},
		OnMigrated: func(ev domain.MigrationEvent) {
			sm.publish(formID, "migrated", ev)
		},
	}
}
