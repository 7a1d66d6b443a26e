// Package mcpserver exposes a selection session as MCP tools, so an agent
// can drive the export dialog: expand nodes, toggle them and read back the
// compressed export set.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/agentic-research/exporttree/internal/session"
	"github.com/agentic-research/exporttree/internal/tree"
)

// Server serves one session.
type Server struct {
	sess *session.Session
	log  *zap.Logger
	mcp  *server.MCPServer
}

// New registers the tools for sess.
func New(sess *session.Session, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		sess: sess,
		log:  log,
		mcp:  server.NewMCPServer("exporttree", version, server.WithToolCapabilities(false)),
	}

	idsArg := func(desc string) mcp.ToolOption {
		return mcp.WithArray("ids", mcp.Required(), mcp.Description(desc), mcp.WithStringItems())
	}

	s.mcp.AddTool(mcp.NewTool("select_nodes",
		mcp.WithDescription("Select the given nodes and every loaded node below them."),
		idsArg("Tree node ids to select"),
	), s.handleOp(session.OpSelect))
	s.mcp.AddTool(mcp.NewTool("deselect_nodes",
		mcp.WithDescription("Deselect the given nodes and every loaded node below them."),
		idsArg("Tree node ids to deselect"),
	), s.handleOp(session.OpDeselect))
	s.mcp.AddTool(mcp.NewTool("select_all",
		mcp.WithDescription("Select every page of the wiki."),
	), s.handleOp(session.OpSelectAll))
	s.mcp.AddTool(mcp.NewTool("deselect_all",
		mcp.WithDescription("Deselect every page of the wiki."),
	), s.handleOp(session.OpDeselectAll))
	s.mcp.AddTool(mcp.NewTool("open_node",
		mcp.WithDescription("Load the children of a node and list them."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Tree node id; empty for the top level")),
	), s.handleOpen)
	s.mcp.AddTool(mcp.NewTool("export_pages",
		mcp.WithDescription("Return the compressed export set and whether everything is selected."),
	), s.handleExport)
	s.mcp.AddTool(mcp.NewTool("is_undetermined",
		mcp.WithDescription("Report whether the subtree of a node is partially selected."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Tree node id")),
	), s.handleUndetermined)

	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleOp(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		op := session.Op{Name: name}
		if name == session.OpSelect || name == session.OpDeselect {
			ids, err := req.RequireStringSlice("ids")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			op.IDs = ids
		}
		if err := s.sess.Apply(ctx, op); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return s.jsonResult(s.sess.Report())
	}
}

// child is what open_node reports per child.
type child struct {
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
	Checked     bool   `json:"checked"`
	Pinned      bool   `json:"pinned,omitempty"`
}

func (s *Server) handleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if err := s.sess.Tree.Open(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		out []child
		err error
	)
	s.sess.Tree.View(func(v tree.View) {
		var n *tree.Node
		if n, err = v.Node(id); err != nil {
			return
		}
		for _, c := range v.Children(n) {
			ch := child{
				ID:          c.ID,
				Label:       c.Label,
				Type:        string(c.Type),
				HasChildren: c.Expandable(),
				Checked:     c.Checked,
				Pinned:      c.Pinned,
			}
			if c.Type == tree.TypeDocument {
				ch.Reference = c.Ref.String()
			}
			out = append(out, ch)
		}
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.jsonResult(out)
}

func (s *Server) handleExport(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.jsonResult(s.sess.Report())
}

func (s *Server) handleUndetermined(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.sess.Exporter.IsUndetermined(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.jsonResult(map[string]bool{"undetermined": u})
}

func (s *Server) jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
