package docupdater

import (
	"path/filepath"
	"regexp"
)

var pluginPattern = regexp.MustCompile(`(\w*)(Plugin|Bundle)/`)

// ValueRule resolves the value written for a tag. The first rule whose Match
// accepts the tag wins.
type ValueRule struct {
	Name   string
	Match  func(key string) bool
	Derive func(file *FileRecord, configured string) string
}

// DefaultValueRules fills empty "package" values from a plugin or bundle
// directory in the path and empty "subpackage" values from the file category.
// Every other tag uses its configured value as is.
func DefaultValueRules() []ValueRule {
	return []ValueRule{
		{
			Name:  "package",
			Match: matchKey("package"),
			Derive: func(file *FileRecord, configured string) string {
				if configured != "" {
					return configured
				}
				if name := PluginName(file.Path); name != "" {
					return name
				}
				return configured
			},
		},
		{
			Name:  "subpackage",
			Match: matchKey("subpackage"),
			Derive: func(file *FileRecord, configured string) string {
				if configured != "" {
					return configured
				}
				return file.Category
			},
		},
	}
}

// ResolveValue runs the first matching rule, or returns configured unchanged.
func ResolveValue(rules []ValueRule, file *FileRecord, key, configured string) string {
	for _, rule := range rules {
		if rule.Match(key) {
			return rule.Derive(file, configured)
		}
	}
	return configured
}

// PluginName extracts "<Name>Plugin" or "<Name>Bundle" from the first path
// segment ending that way, or "" when there is none.
func PluginName(path string) string {
	m := pluginPattern.FindStringSubmatch(filepath.ToSlash(path))
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

func matchKey(key string) func(string) bool {
	return func(k string) bool { return k == key }
}
