package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
	"github.com/aretw0/formtree/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes the editors of a session.Manager as a JSON API.
type Server struct {
	Sessions *session.Manager
	Catalog  ports.Catalog
	Streams  *StreamManager
	Metrics  http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks were registered on the manager.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// NewHandler creates the HTTP handler. cat is listed on GET /catalog and must be
// the catalog the manager's editors use.
func NewHandler(mgr *session.Manager, cat ports.Catalog, opts ...Option) http.Handler {
	s := &Server{Sessions: mgr, Catalog: cat}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/catalog", s.ListControls)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", s.ListForms)
		r.Route("/{formID}", func(r chi.Router) {
			r.Post("/", s.CreateForm)
			r.Get("/", s.GetForm)
			r.Put("/", s.PutForm)
			r.Delete("/", s.DeleteForm)
			r.Post("/save", s.SaveForm)
			r.Post("/close", s.CloseForm)
			r.Get("/tree", s.GetTree)
			r.Get("/events", s.SubscribeEvents)

			r.Post("/drop", s.Drop)
			r.Get("/nodes/{nodeID}", s.GetNode)
			r.Delete("/nodes/{nodeID}", s.RemoveNode)
			r.Put("/nodes/{nodeID}/properties/{name}", s.SetProperty)
			r.Put("/nodes/{nodeID}/properties/{name}/default", s.SetListDefault)

			r.Get("/selection", s.GetSelection)
			r.Put("/selection", s.Select)
			r.Delete("/selection", s.Deselect)
			r.Post("/preview", s.EnterPreview)
			r.Delete("/preview", s.ExitPreview)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// edit runs fn on the editor of the request's form and writes its result, or the error.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*formtree.Editor) (any, error)) {
	formID := chi.URLParam(r, "formID")
	var out any
	err := s.Sessions.WithEditor(r.Context(), formID, func(_ context.Context, ed *formtree.Editor) error {
		var err error
		out, err = fn(ed)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "formtree-http",
		"version": strings.TrimSpace(formtree.Version),
	})
}

// ListControls handles the GET /catalog request.
func (s *Server) ListControls(w http.ResponseWriter, r *http.Request) {
	type control struct {
		ControlID  string              `json:"controlId"`
		GroupID    string              `json:"groupId"`
		Label      string              `json:"label"`
		Container  bool                `json:"container"`
		Properties *domain.PropertyBag `json:"properties,omitempty"`
	}
	defs := s.Catalog.List()
	out := make([]control, len(defs))
	for i, d := range defs {
		out[i] = control{d.ControlID, d.GroupID, d.Label, d.IsContainer, d.Properties}
	}
	writeJSON(w, http.StatusOK, out)
}

// ListForms handles the GET /forms request.
func (s *Server) ListForms(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateForm handles the POST /forms/{formID} request.
func (s *Server) CreateForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	if err := s.Sessions.Create(r.Context(), formID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": formID})
}

// GetForm handles the GET /forms/{formID} request: the document as it would be saved.
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		return ed.Serialize(), nil
	})
}

type loadResponse struct {
	Loaded      int      `json:"loaded"`
	Skipped     []string `json:"skipped"`
	Diagnostics []string `json:"diagnostics"`
	Migrated    bool     `json:"migrated"`
	Dirty       bool     `json:"dirty"`
}

// PutForm handles the PUT /forms/{formID} request, replacing the open form with
// the posted document. The store is only written on save.
func (s *Server) PutForm(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if !decodeBody(w, r, &doc) {
		return
	}
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		report := ed.Deserialize(doc)
		ed.MarkDirty()
		resp := loadResponse{
			Loaded:      report.Loaded,
			Skipped:     []string{},
			Diagnostics: []string{},
			Migrated:    report.Migrated(),
			Dirty:       true,
		}
		for _, sk := range report.Skipped {
			resp.Skipped = append(resp.Skipped, fmt.Sprintf("%s: %v", sk.Path, sk.Err))
		}
		for _, d := range report.Diagnostics {
			resp.Diagnostics = append(resp.Diagnostics, d.String())
		}
		return resp, nil
	})
}

// DeleteForm handles the DELETE /forms/{formID} request.
func (s *Server) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "formID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveForm handles the POST /forms/{formID}/save request.
func (s *Server) SaveForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	if !s.Sessions.Opened(formID) {
		if _, err := s.Sessions.Open(r.Context(), formID); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := s.Sessions.Save(r.Context(), formID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseForm handles the POST /forms/{formID}/close request. Unsaved changes are dropped.
func (s *Server) CloseForm(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "formID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type treeResponse struct {
	Roots     []string         `json:"roots"`
	Nodes     []domain.Node    `json:"nodes"`
	Selection domain.Selection `json:"selection"`
	Dirty     bool             `json:"dirty"`
}

// GetTree handles the GET /forms/{formID}/tree request: every node with its runtime id.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		resp := treeResponse{
			Roots:     ed.Roots(),
			Nodes:     make([]domain.Node, 0, ed.Len()),
			Selection: ed.Selection(),
			Dirty:     ed.Dirty(),
		}
		err := ed.Walk(func(n domain.Node, _ int) error {
			resp.Nodes = append(resp.Nodes, n)
			return nil
		})
		return resp, err
	})
}

// Drop handles the POST /forms/{formID}/drop request.
func (s *Server) Drop(w http.ResponseWriter, r *http.Request) {
	var ev domain.DropEvent
	if !decodeBody(w, r, &ev) {
		return
	}
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		id, err := ed.Drop(ev)
		if err != nil {
			return nil, err
		}
		return map[string]string{"id": id}, nil
	})
}

// GetNode handles the GET /forms/{formID}/nodes/{nodeID} request.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		look, ok := ed.Find(nodeID)
		if !ok {
			return nil, &domain.NodeNotFoundError{NodeID: nodeID}
		}
		return look, nil
	})
}

// RemoveNode handles the DELETE /forms/{formID}/nodes/{nodeID} request.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		return nil, ed.Remove(nodeID)
	})
}

type valueRequest struct {
	Value any `json:"value"`
}

// SetProperty handles the PUT /forms/{formID}/nodes/{nodeID}/properties/{name} request.
func (s *Server) SetProperty(w http.ResponseWriter, r *http.Request) {
	var body valueRequest
	if !decodeBody(w, r, &body) {
		return
	}
	nodeID, name := chi.URLParam(r, "nodeID"), chi.URLParam(r, "name")
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		if err := ed.SetProperty(nodeID, name, body.Value); err != nil {
			return nil, err
		}
		return ed.Properties(nodeID)
	})
}

// SetListDefault handles the PUT /forms/{formID}/nodes/{nodeID}/properties/{name}/default request.
func (s *Server) SetListDefault(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	nodeID, name := chi.URLParam(r, "nodeID"), chi.URLParam(r, "name")
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		if err := ed.SetListDefault(nodeID, name, body.Value); err != nil {
			return nil, err
		}
		return ed.Properties(nodeID)
	})
}

// GetSelection handles the GET /forms/{formID}/selection request.
func (s *Server) GetSelection(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		return selectionResponse(ed), nil
	})
}

// Select handles the PUT /forms/{formID}/selection request. A leaf is selected,
// a container is activated.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NodeID string `json:"nodeId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		look, ok := ed.Find(body.NodeID)
		if !ok {
			return nil, &domain.NodeNotFoundError{NodeID: body.NodeID}
		}
		var err error
		if look.Node.IsContainer() {
			err = ed.ActivateContainer(body.NodeID)
		} else {
			err = ed.SelectLeaf(body.NodeID)
		}
		if err != nil {
			return nil, err
		}
		return selectionResponse(ed), nil
	})
}

// Deselect handles the DELETE /forms/{formID}/selection request.
func (s *Server) Deselect(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		ed.Deselect()
		return selectionResponse(ed), nil
	})
}

// EnterPreview handles the POST /forms/{formID}/preview request.
func (s *Server) EnterPreview(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		if err := ed.EnterPreview(); err != nil {
			return nil, err
		}
		return selectionResponse(ed), nil
	})
}

// ExitPreview handles the DELETE /forms/{formID}/preview request.
func (s *Server) ExitPreview(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ed *formtree.Editor) (any, error) {
		ed.ExitPreview()
		return selectionResponse(ed), nil
	})
}

func selectionResponse(ed *formtree.Editor) map[string]any {
	props := ed.SelectedProperties()
	if props == nil {
		props = []domain.Property{}
	}
	return map[string]any{
		"selection":  ed.Selection(),
		"properties": domain.NewPropertyBag(props...),
	}
}

// SubscribeEvents handles the GET /forms/{formID}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	formID := chi.URLParam(r, "formID")
	slog.Info("SSE: Subscribing to Form Updates", "form_id", formID)

	ch, cancel := s.Streams.Subscribe(formID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE Client Disconnected", "form_id", formID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
