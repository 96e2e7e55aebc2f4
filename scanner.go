package docupdater

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"
	"slices"

	ignore "github.com/sabhiram/go-gitignore"
)

type Scanner interface {
	ScanDirectory(ctx context.Context, rootPath string) iter.Seq2[string, error]
}

// FilesystemScanner finds source files below a root whose base name matches
// the configured glob pattern, at any depth.
type FilesystemScanner struct {
	config  *Config
	ignored *ignore.GitIgnore
}

func NewFilesystemScanner(config *Config) (*FilesystemScanner, error) {
	if _, err := filepath.Match(config.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", config.Pattern, err)
	}

	s := &FilesystemScanner{config: config}
	if len(config.ExcludePatterns) > 0 {
		s.ignored = ignore.CompileIgnoreLines(config.ExcludePatterns...)
	}
	return s, nil
}

// ScanDirectory yields matching files in lexical order. Walk errors are
// yielded and the walk continues; cancelling ctx stops it.
func (s *FilesystemScanner) ScanDirectory(ctx context.Context, rootPath string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if err != nil {
				if !yield(path, err) {
					return fs.SkipAll
				}
				return nil
			}

			relPath, _ := filepath.Rel(rootPath, path)
			relPath = filepath.ToSlash(relPath)

			if d.IsDir() {
				if path != rootPath && s.isExcluded(relPath, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if matched, _ := filepath.Match(s.config.Pattern, d.Name()); !matched {
				return nil
			}

			if s.ignored != nil && s.ignored.MatchesPath(relPath) {
				return nil
			}

			if !yield(path, nil) {
				return fs.SkipAll
			}
			return nil
		}); err != nil {
			yield(rootPath, err)
		}
	}
}

func (s *FilesystemScanner) isExcluded(relPath, name string) bool {
	if slices.Contains(s.config.ExcludeDirs, name) {
		return true
	}
	return s.ignored != nil && s.ignored.MatchesPath(relPath+"/")
}

// ListFiles collects the matching files below rootPath, stopping at the first
// error.
func ListFiles(ctx context.Context, scanner Scanner, rootPath string) ([]string, error) {
	var files []string
	for path, err := range scanner.ScanDirectory(ctx, rootPath) {
		if err != nil {
			return files, fmt.Errorf("scanning %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}
