package docupdater

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

type DocUpdater interface {
	Run(ctx context.Context, rootPath string) (*SessionResult, error)
	RunFiles(ctx context.Context, filePaths []string) *SessionResult
	ParseFiles(ctx context.Context, filePaths []string) ([]FileRecord, []string)
	ListSourceFiles(ctx context.Context, rootPath string) ([]SourceFileInfo, error)
	ValidateTagKeys(ctx context.Context, keys []string) map[string]*ValidationResult
}

// Session applies the configured tag rules to every file it is given. A
// Session holds no per-run state, every run returns its own SessionResult.
type Session struct {
	config      *Config
	scanner     Scanner
	validator   Validator
	categorizer *Categorizer
	rewriter    *HeaderRewriter
	rules       []ValueRule
	log         *slog.Logger
}

type Option func(*Session)

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithValueRules replaces the default package/subpackage rules.
func WithValueRules(rules []ValueRule) Option {
	return func(s *Session) { s.rules = rules }
}

func WithScanner(scanner Scanner) Option {
	return func(s *Session) { s.scanner = scanner }
}

func NewSession(config *Config, opts ...Option) (*Session, error) {
	validator := NewDefaultValidator(config)
	if err := validator.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Session{
		config:      config,
		validator:   validator,
		categorizer: NewCategorizer(config.Categories, config.DefaultCategory),
		rules:       DefaultValueRules(),
		log:         discardLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.scanner == nil {
		scanner, err := NewFilesystemScanner(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create scanner: %w", err)
		}
		s.scanner = scanner
	}
	s.rewriter = NewHeaderRewriter(config, s.log)

	return s, nil
}

// Run updates every matching file below rootPath. Only an invalid root is
// returned as an error. Problems with single files end up in the result.
func (s *Session) Run(ctx context.Context, rootPath string) (*SessionResult, error) {
	rootPath, err := s.resolveRoot(rootPath)
	if err != nil {
		return nil, err
	}

	var files, walkErrors []string
	for path, err := range s.scanner.ScanDirectory(ctx, rootPath) {
		if err != nil {
			walkErrors = append(walkErrors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		files = append(files, path)
	}

	result := s.RunFiles(ctx, files)
	result.Errors = append(walkErrors, result.Errors...)
	return result, nil
}

// RunFiles processes files in order, then the tag rules in order within each
// file. A failing file never stops the batch.
func (s *Session) RunFiles(ctx context.Context, filePaths []string) *SessionResult {
	result := &SessionResult{
		ParsedFiles: []string{},
		Changes:     []Change{},
	}
	result.Stats.TotalFiles = len(filePaths)

	for _, path := range filePaths {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("stopped before %s: %v", path, ctx.Err()))
			break
		}

		file, err := s.loadFile(path)
		if err != nil {
			s.log.WarnContext(ctx, "skipping unreadable file", "path", path, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		result.ParsedFiles = append(result.ParsedFiles, fmt.Sprintf("%s [%s]", file.Path, strings.ToUpper(file.Category)))
		result.Stats.ParsedFiles++
		s.log.DebugContext(ctx, "parsed header", "path", file.Path, "category", file.Category, "tags", file.Header.Len())

		for _, rule := range s.config.Tags {
			value := ResolveValue(s.rules, file, rule.Key, rule.Value)
			if value == "" {
				result.Stats.Skipped++
				continue
			}

			change, err := s.rewriter.Apply(ctx, file, rule.Key, value)
			result.Changes = append(result.Changes, change)
			result.Stats.Changes++

			if change.Outcome == OutcomeNOK {
				result.Stats.FailedWrites++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s: %v", file.Path, rule.Key, change.Err))
			}

			if err != nil {
				// Without a fresh header the remaining rules would use stale
				// line numbers.
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
				break
			}
		}
	}

	return result
}

// ParseFiles returns the parsed header of each readable file, and an error
// message for each file that could not be read.
func (s *Session) ParseFiles(ctx context.Context, filePaths []string) ([]FileRecord, []string) {
	var records []FileRecord
	var errs []string

	for _, path := range filePaths {
		if ctx.Err() != nil {
			break
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		file, err := s.loadFile(absPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", absPath, err))
			continue
		}
		records = append(records, *file)
	}

	return records, errs
}

func (s *Session) ListSourceFiles(ctx context.Context, rootPath string) ([]SourceFileInfo, error) {
	rootPath, err := s.resolveRoot(rootPath)
	if err != nil {
		return nil, err
	}

	files, err := ListFiles(ctx, s.scanner, rootPath)
	if err != nil {
		return nil, err
	}

	infos := make([]SourceFileInfo, 0, len(files))
	for _, path := range files {
		infos = append(infos, SourceFileInfo{
			Path:     path,
			Category: s.categorizer.Categorize(path),
		})
	}
	return infos, nil
}

func (s *Session) ValidateTagKeys(ctx context.Context, keys []string) map[string]*ValidationResult {
	results := make(map[string]*ValidationResult)

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		results[key] = s.validator.ValidateTagKey(key)
	}

	return results
}

// resolveRoot makes a relative root absolute against the working directory
// before validating it.
func (s *Session) resolveRoot(rootPath string) (string, error) {
	if rootPath != "" && !filepath.IsAbs(rootPath) {
		absPath, err := filepath.Abs(rootPath)
		if err != nil {
			return "", fmt.Errorf("invalid root path: %w", err)
		}
		rootPath = absPath
	}
	if err := s.validator.ValidatePath(rootPath); err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	return rootPath, nil
}

func (s *Session) loadFile(path string) (*FileRecord, error) {
	header, err := ParseFile(path, s.config.MaxLines)
	if err != nil {
		return nil, err
	}

	return &FileRecord{
		Path:     path,
		Category: s.categorizer.Categorize(path),
		Header:   header,
	}, nil
}
