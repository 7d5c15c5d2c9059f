package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/graph"
	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SchemaURI is the resource holding the keyspace DDL.
const SchemaURI = "quadcql://schema"

// maxFindResults caps find_quads when the caller gives no limit.
const maxFindResults = 50

// MCPServer exposes one keyspace graph over MCP.
type MCPServer struct {
	graph             *graph.Graph
	replicationFactor int
}

// NewServer registers the tools and resources for g.
func NewServer(g *graph.Graph, replicationFactor int) *server.MCPServer {
	s := server.NewMCPServer(
		"quadcql",
		"0.1.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)
	ms := &MCPServer{graph: g, replicationFactor: replicationFactor}

	s.AddResource(
		mcp.NewResource(
			SchemaURI,
			"Keyspace Schema",
			mcp.WithResourceDescription("CQL DDL for the keyspace and its four index tables"),
			mcp.WithMIMEType("text/plain"),
		),
		ms.handleSchema,
	)

	patternArgs := []mcp.ToolOption{
		mcp.WithString("graph", mcp.Description("Graph term in N-Triples syntax; empty or ANY for wildcard")),
		mcp.WithString("subject", mcp.Description("Subject term in N-Triples syntax")),
		mcp.WithString("predicate", mcp.Description("Predicate term in N-Triples syntax")),
		mcp.WithString("object", mcp.Description("Object term in N-Triples syntax, e.g. \"42\"^^xsd:int or \"chat\"@fr")),
	}

	s.AddTool(
		mcp.NewTool("plan_pattern", append([]mcp.ToolOption{
			mcp.WithDescription("Show the index table and CQL statement a quad pattern runs as, including the cascading key enumeration for patterns with gaps."),
			mcp.WithString("extra_where", mcp.Description("Additional WHERE condition")),
			mcp.WithString("suffix", mcp.Description("Text appended after the WHERE clause")),
		}, patternArgs...)...),
		ms.handlePlan,
	)

	s.AddTool(
		mcp.NewTool("find_quads", append([]mcp.ToolOption{
			mcp.WithDescription("Find stored quads matching a pattern. Empty fields act as wildcards."),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Max number of results (default %d)", maxFindResults))),
		}, patternArgs...)...),
		ms.handleFind,
	)

	s.AddTool(
		mcp.NewTool("insert_statement", append([]mcp.ToolOption{
			mcp.WithDescription("Render the BEGIN BATCH statement that writes a concrete quad to all four tables. Set apply to also store it."),
			mcp.WithBoolean("apply", mcp.Description("Store the quad as well")),
		}, patternArgs...)...),
		ms.handleInsert,
	)

	return s
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, g *graph.Graph, replicationFactor int) error {
	slog.Info("Starting MCP server on Stdio", "keyspace", g.Keyspace())
	return server.ServeStdio(NewServer(g, replicationFactor))
}

// --- Resource Handlers ---

func (ms *MCPServer) handleSchema(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ddl := cql.Schema(ms.graph.Keyspace(), ms.replicationFactor)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     strings.Join(ddl, "\n"),
		},
	}, nil
}

// --- Tool Handlers ---

func patternFrom(args map[string]any) (rdf.Quad, error) {
	str := func(k string) string {
		v, _ := args[k].(string)
		return v
	}
	return rdf.ParseQuad(str("graph"), str("subject"), str("predicate"), str("object"))
}

func (ms *MCPServer) handlePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := patternFrom(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info := &cql.QueryInfo{}
	info.ExtraWhere, _ = args["extra_where"].(string)
	info.Suffix, _ = args["suffix"].(string)

	plan, err := graph.Explain(ms.graph.Keyspace(), q, info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "table: %s\n", plan.Table)
	fmt.Fprintf(&sb, "query: %s\n", plan.Query)
	if plan.HasGaps {
		sb.WriteString("cascade:\n")
		for _, lv := range plan.Cascade {
			if lv.Bound {
				fmt.Fprintf(&sb, "  %s = %s\n", lv.Column, lv.Value)
			} else {
				fmt.Fprintf(&sb, "  %s = each distinct value\n", lv.Column)
			}
		}
	}
	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}

func (ms *MCPServer) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := patternFrom(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := maxFindResults
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	var lines []string
	for fq, err := range ms.graph.Find(ctx, q, &cql.QueryInfo{Limit: limit}) {
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("find failed: %v", err)), nil
		}
		lines = append(lines, fq.String())
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("No quads found."), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleInsert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := patternFrom(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stmt, err := cql.InsertStatement(ms.graph.Keyspace(), q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if apply, _ := args["apply"].(bool); apply {
		if err := ms.graph.Add(ctx, q); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("insert failed: %v", err)), nil
		}
	}
	return mcp.NewToolResultText(stmt), nil
}
