package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
	"github.com/aretw0/formtree/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NodeSummary is one line of a form outline as seen by an agent.
type NodeSummary struct {
	ID        string `json:"id" jsonschema_description:"Runtime node ID, valid until the form is closed"`
	ControlID string `json:"controlId"`
	GroupID   string `json:"groupId,omitempty"`
	ParentID  string `json:"parentId" jsonschema_description:"Empty for top-level nodes"`
	Depth     int    `json:"depth"`
	Container bool   `json:"container"`
	Label     string `json:"label,omitempty"`
}

// FormView is the structured result of every editing tool.
type FormView struct {
	FormID string        `json:"formId"`
	Nodes  []NodeSummary `json:"nodes" jsonschema_description:"Nodes depth-first in render order"`
	Dirty  bool          `json:"dirty" jsonschema_description:"True when the form has unsaved changes"`
	NodeID string        `json:"nodeId,omitempty" jsonschema_description:"Node created or changed by the call"`
}

// Server exposes form editing as MCP tools.
type Server struct {
	sessions  *session.Manager
	catalog   ports.Catalog
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, catalog ports.Catalog) *Server {
	s := &Server{
		sessions:  sessions,
		catalog:   catalog,
		mcpServer: server.NewMCPServer("formtree-mcp", strings.TrimSpace(formtree.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	formID := mcp.WithString("form_id", mcp.Required(), mcp.Description("ID of the form"))

	s.mcpServer.AddTool(mcp.NewTool("list_controls",
		mcp.WithDescription("List the controls that can be inserted, with their properties and defaults."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(controls(s.catalog))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_forms",
		mcp.WithDescription("List the IDs of stored forms."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_form",
		mcp.WithDescription("Get the node outline of a form, opening it if needed."),
		formID,
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleGetForm))

	s.mcpServer.AddTool(mcp.NewTool("create_form",
		mcp.WithDescription("Create an empty form."),
		formID,
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleCreateForm))

	s.mcpServer.AddTool(mcp.NewTool("insert_control",
		mcp.WithDescription("Insert a control from the catalog into the form."),
		formID,
		mcp.WithString("control_id", mcp.Required(), mcp.Description("Catalog control ID, e.g. textfield")),
		mcp.WithString("group_id", mcp.Description("Catalog group; may be omitted when the control ID is unique")),
		mcp.WithString("parent_id", mcp.Description("Container node ID; omit for the top level")),
		mcp.WithNumber("index", mcp.Description("Position among the parent's children; omit to append")),
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleInsert))

	s.mcpServer.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move a node, with its children, under another parent or to another position."),
		formID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to move")),
		mcp.WithString("parent_id", mcp.Description("Target container node ID; omit for the top level")),
		mcp.WithNumber("index", mcp.Description("Position after the node is taken out of its current place; omit to append")),
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleMove))

	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a node and all of its children."),
		formID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to remove")),
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleRemove))

	s.mcpServer.AddTool(mcp.NewTool("set_property",
		mcp.WithDescription("Set a property of a leaf control. The value is JSON: a string must be quoted."),
		formID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Leaf node ID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Property name")),
		mcp.WithString("value", mcp.Required(), mcp.Description(`JSON value, e.g. "Email", 3, true or [{"label":"A","value":"a"}]`)),
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleSetProperty))

	s.mcpServer.AddTool(mcp.NewTool("set_list_default",
		mcp.WithDescription("Flag one option of a list property as its default."),
		formID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Leaf node ID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("List property name")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value of the option to flag")),
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleSetListDefault))

	s.mcpServer.AddTool(mcp.NewTool("save_form",
		mcp.WithDescription("Persist the form."),
		formID,
		mcp.WithOutputSchema[FormView](),
	), mcp.NewStructuredToolHandler(s.handleSave))
}

// Handler methods for structured tools

func (s *Server) handleGetForm(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	return s.edit(ctx, args, func(ed *formtree.Editor) (string, error) {
		return "", nil
	})
}

func (s *Server) handleCreateForm(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	id, _ := args["form_id"].(string)
	if err := s.sessions.Create(ctx, id); err != nil {
		return FormView{}, fmt.Errorf("create failed: %w", err)
	}
	return s.handleGetForm(ctx, request, args)
}

func (s *Server) handleInsert(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	controlID, _ := args["control_id"].(string)
	groupID, _ := args["group_id"].(string)
	parentID, _ := args["parent_id"].(string)
	index := intArg(args, "index", math.MaxInt)

	return s.edit(ctx, args, func(ed *formtree.Editor) (string, error) {
		return ed.InsertFromCatalog(controlID, groupID, parentID, index)
	})
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	nodeID, _ := args["node_id"].(string)
	parentID, _ := args["parent_id"].(string)
	index := intArg(args, "index", math.MaxInt)

	return s.edit(ctx, args, func(ed *formtree.Editor) (string, error) {
		return nodeID, ed.MoveExisting(nodeID, parentID, index)
	})
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	nodeID, _ := args["node_id"].(string)
	return s.edit(ctx, args, func(ed *formtree.Editor) (string, error) {
		return "", ed.Remove(nodeID)
	})
}

func (s *Server) handleSetProperty(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	nodeID, _ := args["node_id"].(string)
	name, _ := args["name"].(string)
	rawValue, _ := args["value"].(string)

	var value any
	if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
		// Agents often send bare strings.
		value = rawValue
	}

	return s.edit(ctx, args, func(ed *formtree.Editor) (string, error) {
		return nodeID, ed.SetProperty(nodeID, name, value)
	})
}

func (s *Server) handleSetListDefault(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	nodeID, _ := args["node_id"].(string)
	name, _ := args["name"].(string)
	value, _ := args["value"].(string)

	return s.edit(ctx, args, func(ed *formtree.Editor) (string, error) {
		return nodeID, ed.SetListDefault(nodeID, name, value)
	})
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormView, error) {
	id, _ := args["form_id"].(string)
	if !s.sessions.Opened(id) {
		if _, err := s.sessions.Open(ctx, id); err != nil {
			return FormView{}, fmt.Errorf("open failed: %w", err)
		}
	}
	if err := s.sessions.Save(ctx, id); err != nil {
		return FormView{}, fmt.Errorf("save failed: %w", err)
	}
	return s.handleGetForm(ctx, request, args)
}

// edit applies fn to the form named by args and returns the resulting outline.
func (s *Server) edit(ctx context.Context, args map[string]interface{}, fn func(*formtree.Editor) (string, error)) (FormView, error) {
	id, _ := args["form_id"].(string)
	view := FormView{FormID: id}
	err := s.sessions.WithEditor(ctx, id, func(ctx context.Context, ed *formtree.Editor) error {
		nodeID, err := fn(ed)
		if err != nil {
			return err
		}
		view.NodeID = nodeID
		view.Dirty = ed.Dirty()
		view.Nodes = outline(ed)
		return nil
	})
	if err != nil {
		slog.Debug("MCP tool rejected", "form_id", id, "err", err)
		return FormView{}, err
	}
	return view, nil
}

func outline(ed *formtree.Editor) []NodeSummary {
	nodes := make([]NodeSummary, 0, ed.Len())
	_ = ed.Walk(func(n domain.Node, depth int) error {
		sum := NodeSummary{
			ID:        n.ID,
			ControlID: n.ControlID,
			GroupID:   n.GroupID,
			ParentID:  n.ParentID,
			Depth:     depth,
			Container: n.IsContainer(),
		}
		if p, ok := n.Properties.Get("label"); ok {
			sum.Label, _ = p.Value.Raw().(string)
		}
		nodes = append(nodes, sum)
		return nil
	})
	return nodes
}

func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

type control struct {
	ControlID  string              `json:"controlId"`
	GroupID    string              `json:"groupId"`
	Label      string              `json:"label"`
	Container  bool                `json:"container"`
	Properties *domain.PropertyBag `json:"properties,omitempty"`
}

func controls(cat ports.Catalog) []control {
	defs := cat.List()
	out := make([]control, len(defs))
	for i, d := range defs {
		out[i] = control{d.ControlID, d.GroupID, d.Label, d.IsContainer, d.Properties}
	}
	return out
}

func (s *Server) registerResources() {
	// EXPOSE: formtree://catalog
	s.mcpServer.AddResource(mcp.NewResource("formtree://catalog", "Control Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(controls(s.catalog))
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "formtree://catalog",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
