package docupdater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Parameter structures for MCP tools

// UpdateDocHeadersParams replaces the configured tags for one call when Tags
// is non-empty. An empty value derives the tag as configured tags do.
type UpdateDocHeadersParams struct {
	Root   string       `json:"root"`
	DryRun bool         `json:"dry_run"`
	Tags   []TableEntry `json:"tags,omitempty"`
}

type ParseDocHeadersParams struct {
	FilePaths []string `json:"file_paths"`
	MaxFiles  *int     `json:"max_files,omitempty"`
}

type ListSourceFilesParams struct {
	Root       string `json:"root"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type ValidateTagKeysParams struct {
	Tags []string `json:"tags"`
}

type ParseDocHeadersResult struct {
	Files  []FileRecord `json:"files"`
	Errors []string     `json:"errors,omitempty"`
}

// UpdateDocHeadersResult carries the change log as rendered lines next to
// the structured result.
type UpdateDocHeadersResult struct {
	*SessionResult
	ChangeLog []string `json:"change_log"`
}

// Tool handler functions
func UpdateDocHeadersTool(ctx context.Context, req *mcp.CallToolRequest, args UpdateDocHeadersParams, config *Config, log *slog.Logger) (*mcp.CallToolResult, any, error) {
	callConfig := *config
	if args.DryRun {
		callConfig.RealMode = false
	}
	if len(args.Tags) > 0 {
		callConfig.Tags = OrderedTable(args.Tags)
	}

	updater, err := NewSession(&callConfig, WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid update request: %w", err)
	}

	result, err := updater.Run(ctx, args.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update doc headers: %w", err)
	}

	return nil, UpdateDocHeadersResult{SessionResult: result, ChangeLog: result.ChangeLog()}, nil
}

func ParseDocHeadersTool(ctx context.Context, req *mcp.CallToolRequest, args ParseDocHeadersParams, updater DocUpdater) (*mcp.CallToolResult, any, error) {
	filePaths := limit(args.FilePaths, args.MaxFiles)

	files, errs := updater.ParseFiles(ctx, filePaths)
	return nil, ParseDocHeadersResult{Files: files, Errors: errs}, nil
}

func ListSourceFilesTool(ctx context.Context, req *mcp.CallToolRequest, args ListSourceFilesParams, updater DocUpdater) (*mcp.CallToolResult, any, error) {
	result, err := updater.ListSourceFiles(ctx, args.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list source files: %w", err)
	}

	return nil, limit(result, args.MaxResults), nil
}

func ValidateTagKeysTool(ctx context.Context, req *mcp.CallToolRequest, args ValidateTagKeysParams, updater DocUpdater) (*mcp.CallToolResult, any, error) {
	return nil, updater.ValidateTagKeys(ctx, args.Tags), nil
}

// limit truncates items to n entries. A nil or negative n means no limit.
func limit[T any](items []T, n *int) []T {
	if n == nil || *n < 0 || len(items) <= *n {
		return items
	}
	return items[:*n]
}

// RunMCPServer serves the doc-updater tools over stdio, or over transport
// when one is given.
func RunMCPServer(config *Config, log *slog.Logger, transport mcp.Transport) error {
	if log == nil {
		log = discardLogger
	}

	realUpdater, err := NewSession(config, WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "doc-updater",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_doc_headers",
		Description: "Rewrite documentation header tags of every source file below a root",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args UpdateDocHeadersParams) (*mcp.CallToolResult, any, error) {
		return UpdateDocHeadersTool(ctx, req, args, config, log)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_doc_headers",
		Description: "Parse the documentation header tags of specific files",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ParseDocHeadersParams) (*mcp.CallToolResult, any, error) {
		return ParseDocHeadersTool(ctx, req, args, realUpdater)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_source_files",
		Description: "List source files below a root with their categories",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListSourceFilesParams) (*mcp.CallToolResult, any, error) {
		return ListSourceFilesTool(ctx, req, args, realUpdater)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_tag_keys",
		Description: "Check that tag keys can be parsed back from a header",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ValidateTagKeysParams) (*mcp.CallToolResult, any, error) {
		return ValidateTagKeysTool(ctx, req, args, realUpdater)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if transport == nil {
		transport = &mcp.StdioTransport{}
	}
	log.Info("starting MCP server")
	return server.Run(ctx, transport)
}
