package docupdater

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	tagKeyPattern  = regexp.MustCompile(`^[a-z]+$`)
	nonLetterChars = regexp.MustCompile(`[^a-z]`)
)

type Validator interface {
	ValidateTagKey(key string) *ValidationResult
	ValidatePath(path string) error
	ValidateConfig(config *Config) error
}

type DefaultValidator struct {
	config *Config
}

func NewDefaultValidator(config *Config) *DefaultValidator {
	return &DefaultValidator{
		config: config,
	}
}

// ValidateTagKey checks that key can be read back by the header parser, which
// only recognizes lowercase ASCII letters after the "@".
func (v *DefaultValidator) ValidateTagKey(key string) *ValidationResult {
	result := &ValidationResult{
		IsValid:     true,
		Issues:      []string{},
		Suggestions: []string{},
	}

	cleanKey := strings.TrimSpace(key)
	cleanKey = strings.TrimPrefix(cleanKey, "@")

	if cleanKey == "" {
		result.IsValid = false
		result.Issues = append(result.Issues, "Tag key cannot be empty")
		return result
	}

	if tagKeyPattern.MatchString(cleanKey) {
		return result
	}

	result.IsValid = false
	result.Issues = append(result.Issues, "Tag key must contain only lowercase letters")

	suggested := nonLetterChars.ReplaceAllString(strings.ToLower(cleanKey), "")
	if suggested != "" && suggested != cleanKey {
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("Suggested: %s", suggested))
	}

	return result
}

func (v *DefaultValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal")
	}

	return nil
}

func (v *DefaultValidator) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if config.MaxLines < 0 {
		return fmt.Errorf("max_lines cannot be negative")
	}

	if config.TagWidth < 2 {
		return fmt.Errorf("tag_width must be at least 2")
	}

	if config.Pattern == "" {
		return fmt.Errorf("pattern cannot be empty")
	}

	if _, err := filepath.Match(config.Pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	if config.DefaultCategory == "" {
		return fmt.Errorf("default_category cannot be empty")
	}

	for _, rule := range config.Tags {
		if result := v.ValidateTagKey(rule.Key); !result.IsValid {
			return fmt.Errorf("invalid tag %q: %s", rule.Key, strings.Join(result.Issues, "; "))
		}
	}

	return nil
}
