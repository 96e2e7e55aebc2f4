package docupdater_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	docupdater "github.com/thrawn01/doc-updater"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), docupdater.DefaultFilePermissions))
	}
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var out []string
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFilesystemScannerScanDirectory(t *testing.T) {
	tempDir := t.TempDir()

	writeTree(t, tempDir, map[string]string{
		"index.php":                       "<?php\n",
		"README.md":                       "# Readme\n",
		"lib/model/User.php":              "<?php\n",
		"lib/model/base/BaseUser.php":     "<?php\n",
		"lib/form/UserForm.php":           "<?php\n",
		"lib/form/UserForm.generated.php": "<?php\n",
		"vendor/lib/Thing.php":            "<?php\n",
		"cache/frontend/config.php":       "<?php\n",
		"web/js/app.js":                   "// js\n",
	})

	config := docupdater.DefaultConfig()
	config.ExcludePatterns = []string{"*.generated.php", "lib/model/base/"}

	scanner, err := docupdater.NewFilesystemScanner(config)
	require.NoError(t, err)

	files, err := docupdater.ListFiles(context.Background(), scanner, tempDir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"index.php",
		"lib/form/UserForm.php",
		"lib/model/User.php",
	}, relPaths(t, tempDir, files))
}

func TestFilesystemScannerPattern(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"a/actions.class.php":  "<?php\n",
		"a/helper.php":         "<?php\n",
		"b/c/d/deep.class.php": "<?php\n",
	})

	config := docupdater.DefaultConfig()
	config.Pattern = "*.class.php"

	scanner, err := docupdater.NewFilesystemScanner(config)
	require.NoError(t, err)

	files, err := docupdater.ListFiles(context.Background(), scanner, tempDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/actions.class.php", "b/c/d/deep.class.php"}, relPaths(t, tempDir, files))

	config.Pattern = "[bad"
	_, err = docupdater.NewFilesystemScanner(config)
	assert.Error(t, err)
}

func TestFilesystemScannerErrors(t *testing.T) {
	scanner, err := docupdater.NewFilesystemScanner(docupdater.DefaultConfig())
	require.NoError(t, err)

	_, err = docupdater.ListFiles(context.Background(), scanner, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{"a.php": "<?php\n", "b.php": "<?php\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = docupdater.ListFiles(ctx, scanner, tempDir)
	assert.ErrorIs(t, err, context.Canceled)
}
