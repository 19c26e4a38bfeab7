// Package mcpserver exposes fetch and export as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/salmonumbrella/apiform/internal/dataset"
	clierrors "github.com/salmonumbrella/apiform/internal/errors"
	"github.com/salmonumbrella/apiform/internal/export"
	"github.com/salmonumbrella/apiform/internal/source"
)

// Fetcher loads a dataset from the source endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers source.HeaderPairs, opts source.Options) (*source.Result, error)
}

// Exporter posts an export request to the export service.
type Exporter interface {
	Export(ctx context.Context, f export.Format, req export.Request) (*export.Download, error)
}

// Config wires a Server.
type Config struct {
	Version    string
	DefaultURL string
	OutDir     string
	Fetcher    Fetcher
	Exporter   Exporter
	// Profile headers are sent before the headers given in a tool call.
	Profile source.HeaderPairs
}

// Server registers the apiform tools on an MCP server.
type Server struct {
	cfg Config
	mcp *server.MCPServer
}

// New creates the server and registers its tools.
func New(cfg Config) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	s := &Server{
		cfg: cfg,
		mcp: server.NewMCPServer("apiform", cfg.Version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(fetchTool(), s.handleFetch)
	s.mcp.AddTool(exportTool(), s.handleExport)
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over the given streams until ctx is canceled or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, in, out)
}

func columnArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("url", mcp.Description("HTTP(S) endpoint returning JSON (defaults to the configured URL)")),
		mcp.WithObject("headers", mcp.Description("Header name/value pairs sent with the GET; empty names or values are skipped")),
		mcp.WithArray("hide", mcp.Description("Columns to hide"), mcp.WithStringItems()),
		mcp.WithBoolean("invert", mcp.Description("Invert the column selection after hiding")),
		mcp.WithString("records", mcp.Description("JSONPath selecting the record array inside the response, e.g. $.results")),
		mcp.WithString("require_field", mcp.Description("Keep only rows that contain this field")),
	}
}

func fetchTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Fetch JSON from an endpoint and return it as a table with the visible columns."),
	}, columnArgs()...)
	return mcp.NewTool("fetch_data", opts...)
}

func exportTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Fetch JSON from an endpoint and have the export service render it; writes data.<ext> and returns its path."),
		mcp.WithString("format", mcp.Required(), mcp.Description("CSV, PDF, JPG, PNG or JSON"), mcp.Enum("CSV", "PDF", "JPG", "PNG", "JSON")),
		mcp.WithString("out_dir", mcp.Description("Directory to write the file into")),
	}, columnArgs()...)
	return mcp.NewTool("export_data", opts...)
}

type loaded struct {
	url string
	ds  *dataset.Dataset
	vis dataset.Visibility
}

// load fetches the data and applies hide/invert from the tool arguments.
func (s *Server) load(ctx context.Context, req mcp.CallToolRequest) (*loaded, error) {
	url := req.GetString("url", s.cfg.DefaultURL)
	if url == "" {
		url = source.DefaultURL
	}

	headers, err := headerArgs(req.GetArguments()["headers"])
	if err != nil {
		return nil, err
	}
	opts := source.Options{
		Records:      req.GetString("records", ""),
		RequireField: req.GetString("require_field", ""),
	}

	res, err := s.cfg.Fetcher.Fetch(ctx, url, s.cfg.Profile.Append(headers...), opts)
	if err != nil {
		return nil, err
	}

	vis := dataset.ForDataset(res.Dataset)
	hide := req.GetStringSlice("hide", nil)
	if unknown := vis.Unknown(hide...); len(unknown) > 0 {
		return nil, clierrors.UnknownColumnError(unknown, vis.Names())
	}
	vis = vis.Hide(hide...)
	if req.GetBool("invert", false) {
		vis = vis.InvertAll()
	}
	return &loaded{url: res.URL, ds: res.Dataset, vis: vis}, nil
}

func headerArgs(raw any) (source.HeaderPairs, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("headers must be an object of name/value strings")
	}
	m := make(map[string]string, len(obj))
	for k, v := range obj {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("header %q must be a string", k)
		}
		m[k] = str
	}
	return source.FromMap(m), nil
}

type fetchResult struct {
	URL     string           `json:"url"`
	Rows    int              `json:"row_count"`
	Columns []dataset.Column `json:"columns"`
	Table   dataset.Table    `json:"table"`
}

func (s *Server) handleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := s.load(ctx, req)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(fetchResult{
		URL:     l.url,
		Rows:    l.ds.Len(),
		Columns: l.vis.Columns(),
		Table:   dataset.Project(l.ds, l.vis),
	})
}

type exportResult struct {
	Path        string        `json:"path"`
	Format      export.Format `json:"format"`
	ContentType string        `json:"content_type,omitempty"`
	Bytes       int           `json:"bytes"`
}

func (s *Server) handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawFormat, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return toolError(err), nil
	}

	l, err := s.load(ctx, req)
	if err != nil {
		return toolError(err), nil
	}

	dl, err := s.cfg.Exporter.Export(ctx, format, export.NewRequest(l.ds, l.vis, l.url))
	if err != nil {
		return toolError(err), nil
	}
	path, err := dl.Save(req.GetString("out_dir", s.cfg.OutDir))
	if err != nil {
		return toolError(err), nil
	}
	slog.Info("exported data", "format", format, "path", path)

	return jsonResult(exportResult{
		Path:        path,
		Format:      format,
		ContentType: dl.ContentType,
		Bytes:       len(dl.Body),
	})
}

// toolError reports a failure to the agent, with the hint when there is one.
func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	if hint := clierrors.UserSuggestion(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
