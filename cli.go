package docupdater

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olekukonko/tablewriter"
)

// RunCmdOptions contains options for customizing RunCmd behavior
type RunCmdOptions struct {
	// MCPTransport allows providing a custom transport for MCP server (used for testing)
	MCPTransport mcp.Transport
	// Stdout writer for normal output (defaults to os.Stdout)
	Stdout io.Writer
	// Stderr writer for log output (defaults to os.Stderr)
	Stderr io.Writer
}

// commandContext holds runtime context for command execution
type commandContext struct {
	stdout  io.Writer
	stderr  io.Writer
	config  *Config
	log     *slog.Logger
	updater DocUpdater
}

const logRule = "----------------------"

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	nokColor     = color.New(color.FgRed, color.Bold)
	dryRunColor  = color.New(color.FgYellow)
	sectionColor = color.New(color.FgCyan, color.Bold)
)

func RunCmd(args []string, options *RunCmdOptions) error {
	if options == nil {
		options = &RunCmdOptions{}
	}

	cmdCtx := &commandContext{
		stdout: io.Writer(os.Stdout),
		stderr: io.Writer(os.Stderr),
	}
	if options.Stdout != nil {
		cmdCtx.stdout = options.Stdout
	}
	if options.Stderr != nil {
		cmdCtx.stderr = options.Stderr
	}

	if len(args) < 1 {
		return ShowHelp(cmdCtx.stdout)
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	var (
		help       = fs.Bool("h", false, "Show help")
		mcpOption  = fs.Bool("mcp", false, "Run as MCP server")
		verbose    = fs.Bool("v", false, "Verbose output")
		dryRun     = fs.Bool("dry-run", false, "Show what would be changed without making changes")
		configFile = fs.String("config", "", "Path to configuration file")
	)

	if len(args) > 1 {
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
	}

	if *help {
		return ShowHelp(cmdCtx.stdout)
	}

	config, err := LoadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dryRun {
		config.RealMode = false
	}
	cmdCtx.config = config

	log, closer := NewLogger(cmdCtx.stderr, *verbose, config.LogFile)
	defer func() { _ = closer.Close() }()
	cmdCtx.log = log

	if *mcpOption {
		return RunMCPServer(config, log, options.MCPTransport)
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return ShowHelp(cmdCtx.stdout)
	}

	ctx := context.Background()

	switch remaining[0] {
	case "update":
		return updateCommand(ctx, cmdCtx, remaining[1:])
	case "parse":
		return parseCommand(ctx, cmdCtx, remaining[1:])
	case "files":
		return filesCommand(ctx, cmdCtx, remaining[1:])
	case "validate":
		return validateCommand(ctx, cmdCtx, remaining[1:])
	default:
		return fmt.Errorf("unknown command: %s", remaining[0])
	}
}

func ShowHelp(w io.Writer) error {
	help := `Doc Updater - Rewrite documentation header tags in source files

Usage:
  doc-updater [OPTIONS] COMMAND [ARGS...]
  doc-updater -mcp              Run as MCP server

Options:
  -h, --help           Show this help message
  -v, --verbose        Enable verbose output
  --dry-run            Preview changes without modifying files
  --config FILE        Path to configuration file
  -mcp                 Run as MCP server

Commands:
  update       Set the configured tags in every matching file
  parse        Show the parsed header tags of files
  files        List matching files with their categories
  validate     Check that tag keys can be parsed back

Examples:
  doc-updater --config=docs.yaml update --root="/path/to/project"
  doc-updater --dry-run update --root="/path/to/project" --pattern="*.php"
  doc-updater parse --files="/path/a.php,/path/b.php"
  doc-updater parse --root="/path/to/project" --json
  doc-updater files --root="/path/to/project"
  doc-updater validate --tags="package,subPackage"
  doc-updater -mcp --config="/path/to/config.yaml"
`
	_, _ = fmt.Fprint(w, help)
	return nil
}

// newUpdater builds the session for a command, honoring a --pattern override.
func (c *commandContext) newUpdater(pattern string) (DocUpdater, error) {
	config := *c.config
	if pattern != "" {
		config.Pattern = pattern
	}

	session, err := NewSession(&config, WithLogger(c.log))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func updateCommand(ctx context.Context, cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	root := fs.String("root", cwd, "Root directory to process")
	pattern := fs.String("pattern", "", "File name glob, overrides the configured pattern")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	localDryRun := fs.Bool("dry-run", false, "Show what would be changed without making changes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *localDryRun {
		cmdCtx.config.RealMode = false
	}
	if !cmdCtx.config.RealMode && !*jsonOutput {
		_, _ = fmt.Fprintln(cmdCtx.stdout, "DRY RUN MODE - No files will be modified")
	}

	updater, err := cmdCtx.newUpdater(*pattern)
	if err != nil {
		return err
	}

	result, err := updater.Run(ctx, *root)
	if err != nil {
		return err
	}

	cmdCtx.log.Info("update finished",
		"files", result.Stats.ParsedFiles,
		"changes", result.Stats.Changes,
		"failed", result.Stats.FailedWrites)

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(UpdateDocHeadersResult{
			SessionResult: result,
			ChangeLog:     result.ChangeLog(),
		})
	}

	displayLog(cmdCtx.stdout, "PARSING", result.ParsedFiles)

	changes := make([]string, 0, len(result.Changes))
	for _, change := range result.Changes {
		changes = append(changes, colorizeChange(change))
	}
	displayLog(cmdCtx.stdout, "CHANGES", changes)

	if len(result.Errors) > 0 {
		displayLog(cmdCtx.stdout, "ERRORS", result.Errors)
		return fmt.Errorf("completed with %d errors", len(result.Errors))
	}

	return nil
}

func parseCommand(ctx context.Context, cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	files := fs.String("files", "", "Comma-separated list of file paths")
	root := fs.String("root", "", "Parse every matching file below this directory")
	pattern := fs.String("pattern", "", "File name glob, overrides the configured pattern")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *files == "" && *root == "" {
		return fmt.Errorf("--files or --root is required")
	}

	updater, err := cmdCtx.newUpdater(*pattern)
	if err != nil {
		return err
	}

	fileList := parseList(*files)
	if *root != "" {
		infos, err := updater.ListSourceFiles(ctx, *root)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fileList = append(fileList, info.Path)
		}
	}

	records, errs := updater.ParseFiles(ctx, fileList)

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(ParseDocHeadersResult{Files: records, Errors: errs})
	}

	for _, record := range records {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "\n%s [%s]:\n", record.Path, strings.ToUpper(record.Category))
		if record.Header.Len() == 0 {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  (no header)\n")
			continue
		}

		table := tablewriter.NewWriter(cmdCtx.stdout)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetHeader([]string{"Line", "Tag", "Value"})
		for key, entry := range record.Header.All() {
			table.Append([]string{strconv.Itoa(entry.LineNumber), "@" + key, entry.Value})
		}
		table.Render()
	}

	for _, msg := range errs {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "\n%s %s\n", nokColor.Sprint("error:"), msg)
	}

	return nil
}

func filesCommand(ctx context.Context, cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("files", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	root := fs.String("root", cwd, "Root directory to search")
	pattern := fs.String("pattern", "", "File name glob, overrides the configured pattern")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	updater, err := cmdCtx.newUpdater(*pattern)
	if err != nil {
		return err
	}

	infos, err := updater.ListSourceFiles(ctx, *root)
	if err != nil {
		return err
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(infos)
	}

	_, _ = fmt.Fprintf(cmdCtx.stdout, "\nFound %d files:\n", len(infos))
	for _, info := range infos {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "  %-12s %s\n", info.Category, info.Path)
	}

	return nil
}

func validateCommand(ctx context.Context, cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	tags := fs.String("tags", "", "Comma-separated list of tag keys to validate")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tags == "" {
		return fmt.Errorf("--tags is required")
	}

	updater, err := cmdCtx.newUpdater("")
	if err != nil {
		return err
	}

	keys := parseList(*tags)
	results := updater.ValidateTagKeys(ctx, keys)

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(results)
	}

	printed := make(map[string]bool, len(keys))
	for _, tag := range keys {
		result, ok := results[tag]
		if !ok || printed[tag] {
			continue
		}
		printed[tag] = true
		if result.IsValid {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "\n%s %s: VALID\n", okColor.Sprint("✓"), tag)
			continue
		}
		_, _ = fmt.Fprintf(cmdCtx.stdout, "\n%s %s: INVALID\n", nokColor.Sprint("✗"), tag)
		for _, issue := range result.Issues {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  Issue: %s\n", issue)
		}
		for _, suggestion := range result.Suggestions {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  → %s\n", suggestion)
		}
	}

	return nil
}

// displayLog prints a titled section with one indented line per entry.
func displayLog(w io.Writer, title string, entries []string) {
	_, _ = fmt.Fprintf(w, "\n%s\n%s\n%s\n", logRule, sectionColor.Sprint(title), logRule)

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No entry.")
		return
	}

	for _, entry := range entries {
		_, _ = fmt.Fprintf(w, "    %s\n", entry)
	}
	_, _ = fmt.Fprintf(w, "\n%s\nEntries: %d\n%s\n", logRule, len(entries), logRule)
}

func colorizeChange(c Change) string {
	line := strings.TrimSuffix(c.String(), string(c.Outcome))
	switch c.Outcome {
	case OutcomeOK:
		return line + okColor.Sprint(c.Outcome)
	case OutcomeNOK:
		return line + nokColor.Sprint(c.Outcome)
	default:
		return line + dryRunColor.Sprint(c.Outcome)
	}
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(s, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
