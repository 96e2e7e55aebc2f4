package docupdater_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	docupdater "github.com/thrawn01/doc-updater"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "doc-updater.yaml")
	content := `tags:
  package: Poney
  subpackage: ~
  version: "1.23"
`
	require.NoError(t, os.WriteFile(path, []byte(content), docupdater.DefaultFilePermissions))
	return path
}

func TestCLIIntegration(t *testing.T) {
	tempDir := t.TempDir()
	configPath := writeConfig(t, t.TempDir())

	writeTree(t, tempDir, map[string]string{
		"lib/model/User.php": "<?php\n\nclass User {}\n",
		"lib/Misc.php":       "<?php\n/**\n * @package Misc\n */\n",
	})

	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{
			name: "Help",
			args: []string{"doc-updater", "-h"},
		},
		{
			name: "NoCommand",
			args: []string{"doc-updater"},
		},
		{
			name: "FilesCommand",
			args: []string{"doc-updater", "files", "--root=" + tempDir, "--json"},
		},
		{
			name: "ParseCommand",
			args: []string{"doc-updater", "parse", "--files=" + filepath.Join(tempDir, "lib/Misc.php")},
		},
		{
			name: "ParseRootCommand",
			args: []string{"doc-updater", "parse", "--root=" + tempDir, "--json"},
		},
		{
			name: "ValidateCommand",
			args: []string{"doc-updater", "validate", "--tags=package,subPackage", "--json"},
		},
		{
			name: "UpdateDryRun",
			args: []string{"doc-updater", "--config=" + configPath, "--dry-run", "update", "--root=" + tempDir},
		},
		{
			name:        "InvalidCommand",
			args:        []string{"doc-updater", "invalid"},
			expectError: true,
		},
		{
			name:        "MissingRequiredArgs",
			args:        []string{"doc-updater", "parse"},
			expectError: true,
		},
		{
			name:        "MissingRelativeRoot",
			args:        []string{"doc-updater", "files", "--root=relative"},
			expectError: true,
		},
		{
			name:        "MissingConfig",
			args:        []string{"doc-updater", "--config=" + filepath.Join(tempDir, "nope.yaml"), "files"},
			expectError: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := docupdater.RunCmd(test.args, &docupdater.RunCmdOptions{Stdout: &stdout, Stderr: &stderr})
			if test.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCLIUpdate(t *testing.T) {
	tempDir := t.TempDir()
	configPath := writeConfig(t, t.TempDir())
	userPath := filepath.Join(tempDir, "lib/model/User.php")

	writeTree(t, tempDir, map[string]string{"lib/model/User.php": "<?php\n\nclass User {}\n"})

	t.Run("DryRunLeavesFiles", func(t *testing.T) {
		var stdout bytes.Buffer
		err := docupdater.RunCmd([]string{"doc-updater", "--config=" + configPath, "update", "--dry-run", "--root=" + tempDir},
			&docupdater.RunCmdOptions{Stdout: &stdout, Stderr: &bytes.Buffer{}})
		require.NoError(t, err)

		out := stdout.String()
		assert.Contains(t, out, "DRY RUN MODE")
		assert.Contains(t, out, "PARSING")
		assert.Contains(t, out, userPath+" [MODEL]")
		assert.Contains(t, out, "[NOT-REAL-MODE]")
		assert.Contains(t, out, "Entries: 3")
		assert.Equal(t, "<?php\n\nclass User {}\n", readSource(t, userPath))
	})

	t.Run("JSON", func(t *testing.T) {
		var stdout bytes.Buffer
		err := docupdater.RunCmd([]string{"doc-updater", "--config=" + configPath, "update", "--root=" + tempDir, "--json"},
			&docupdater.RunCmdOptions{Stdout: &stdout, Stderr: &bytes.Buffer{}})
		require.NoError(t, err)

		var result struct {
			ParsedFiles []string `json:"parsed_files"`
			ChangeLog   []string `json:"change_log"`
		}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))

		assert.Equal(t, []string{userPath + " [MODEL]"}, result.ParsedFiles)
		assert.Equal(t, []string{
			"[PACKAGE-CREATE] " + userPath + " / --- -> Poney [OK]",
			"[SUBPACKAGE-APPEND] " + userPath + " / --- -> Model [OK]",
			"[VERSION-APPEND] " + userPath + " / --- -> 1.23 [OK]",
		}, result.ChangeLog)

		assert.Contains(t, readSource(t, userPath), "  * @subpackage Model\n")
	})
}

func TestCLIValidateKeepsArgumentOrder(t *testing.T) {
	var stdout bytes.Buffer
	err := docupdater.RunCmd([]string{"doc-updater", "validate", "--tags=version,subPackage,author,package,version"},
		&docupdater.RunCmdOptions{Stdout: &stdout, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	out := stdout.String()
	positions := []int{
		strings.Index(out, "version: VALID"),
		strings.Index(out, "subPackage: INVALID"),
		strings.Index(out, "author: VALID"),
		strings.Index(out, "package: VALID"),
	}
	for i, pos := range positions {
		require.NotEqual(t, -1, pos, "missing line %d in %q", i, out)
		if i > 0 {
			assert.Greater(t, pos, positions[i-1])
		}
	}
	assert.Equal(t, 1, strings.Count(out, "version: VALID"))
}

func TestMCPServerCapabilities(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	configPath := writeConfig(t, t.TempDir())

	const (
		formContent = "<?php\n\nclass UserForm {}\n"
		userContent = "<?php\n/**\n * @package Legacy\n */\nclass User {}\n"
	)
	writeTree(t, tempDir, map[string]string{
		"lib/form/UserForm.php": formContent,
		"lib/model/User.php":    userContent,
	})
	formPath := filepath.Join(tempDir, "lib/form/UserForm.php")
	userPath := filepath.Join(tempDir, "lib/model/User.php")

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverDone := make(chan error, 1)
	go func() {
		options := &docupdater.RunCmdOptions{
			MCPTransport: serverTransport,
			Stderr:       &bytes.Buffer{},
		}
		serverDone <- docupdater.RunCmd([]string{"doc-updater", "-mcp", "--config=" + configPath}, options)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() {
		_ = session.Close()
	}()

	require.NoError(t, session.Ping(ctx, nil))

	callTool := func(t *testing.T, name string, args map[string]any, out any) {
		t.Helper()
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
		require.NoError(t, err)
		require.False(t, res.IsError, "tool %s failed: %v", name, res.Content)

		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}

	t.Run("ToolDiscovery", func(t *testing.T) {
		tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err)

		expectedTools := map[string]string{
			"update_doc_headers": "Rewrite documentation header tags of every source file below a root",
			"parse_doc_headers":  "Parse the documentation header tags of specific files",
			"list_source_files":  "List source files below a root with their categories",
			"validate_tag_keys":  "Check that tag keys can be parsed back from a header",
		}

		assert.Len(t, tools.Tools, len(expectedTools))
		for _, tool := range tools.Tools {
			expectedDesc, ok := expectedTools[tool.Name]
			if assert.True(t, ok, "unexpected tool %s", tool.Name) {
				assert.Equal(t, expectedDesc, tool.Description)
			}
		}
	})

	t.Run("UpdateDryRun", func(t *testing.T) {
		var result struct {
			ParsedFiles []string `json:"parsed_files"`
			ChangeLog   []string `json:"change_log"`
		}
		callTool(t, "update_doc_headers", map[string]any{"root": tempDir, "dry_run": true}, &result)

		assert.Equal(t, []string{formPath + " [FORM]", userPath + " [MODEL]"}, result.ParsedFiles)
		assert.Contains(t, result.ChangeLog, "[PACKAGE-UPDATE] "+userPath+" / Legacy -> Poney [NOT-REAL-MODE]")
		assert.Equal(t, formContent, readSource(t, formPath))
		assert.Equal(t, userContent, readSource(t, userPath))
	})

	t.Run("UpdateTagsOverride", func(t *testing.T) {
		var result struct {
			ChangeLog []string `json:"change_log"`
		}
		callTool(t, "update_doc_headers", map[string]any{
			"root":    tempDir,
			"dry_run": true,
			"tags":    []map[string]any{{"key": "version", "value": "9"}},
		}, &result)

		assert.Equal(t, []string{
			"[VERSION-CREATE] " + formPath + " / --- -> 9 [NOT-REAL-MODE]",
			"[VERSION-APPEND] " + userPath + " / --- -> 9 [NOT-REAL-MODE]",
		}, result.ChangeLog)
	})

	t.Run("UpdateRejectsInvalidTags", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "update_doc_headers",
			Arguments: map[string]any{
				"root":    tempDir,
				"dry_run": true,
				"tags":    []map[string]any{{"key": "Version", "value": "9"}},
			},
		})
		assert.True(t, err != nil || res.IsError)
		assert.Equal(t, formContent, readSource(t, formPath))
	})

	t.Run("ParseDocHeaders", func(t *testing.T) {
		type parsed struct {
			Files []struct {
				Path     string `json:"path"`
				Category string `json:"category"`
				Header   map[string]struct {
					Value string `json:"value"`
				} `json:"header"`
			} `json:"files"`
			Errors []string `json:"errors"`
		}
		paths := []string{userPath, formPath, filepath.Join(tempDir, "missing.php")}

		var all parsed
		callTool(t, "parse_doc_headers", map[string]any{"file_paths": paths, "max_files": -1}, &all)
		require.Len(t, all.Files, 2)
		assert.Len(t, all.Errors, 1)
		assert.Equal(t, userPath, all.Files[0].Path)
		assert.Equal(t, "Model", all.Files[0].Category)
		assert.Equal(t, "Legacy", all.Files[0].Header["package"].Value)
		assert.Empty(t, all.Files[1].Header)

		var limited parsed
		callTool(t, "parse_doc_headers", map[string]any{"file_paths": paths, "max_files": 1}, &limited)
		require.Len(t, limited.Files, 1)
		assert.Equal(t, userPath, limited.Files[0].Path)
		assert.Empty(t, limited.Errors)
	})

	t.Run("ListSourceFiles", func(t *testing.T) {
		var all []docupdater.SourceFileInfo
		callTool(t, "list_source_files", map[string]any{"root": tempDir, "max_results": -1}, &all)
		assert.Equal(t, []docupdater.SourceFileInfo{
			{Path: formPath, Category: "Form"},
			{Path: userPath, Category: "Model"},
		}, all)

		var limited []docupdater.SourceFileInfo
		callTool(t, "list_source_files", map[string]any{"root": tempDir, "max_results": 1}, &limited)
		assert.Equal(t, []docupdater.SourceFileInfo{{Path: formPath, Category: "Form"}}, limited)
	})

	t.Run("ValidateTagKeys", func(t *testing.T) {
		var results map[string]docupdater.ValidationResult
		callTool(t, "validate_tag_keys", map[string]any{"tags": []string{"package", "subPackage"}}, &results)

		require.Len(t, results, 2)
		assert.True(t, results["package"].IsValid)
		assert.False(t, results["subPackage"].IsValid)
		assert.Contains(t, results["subPackage"].Suggestions, "Suggested: subpackage")
	})
}
