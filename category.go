package docupdater

import (
	"path/filepath"
	"slices"
	"strings"
)

type Categorizer struct {
	table    OrderedTable
	fallback string
}

func NewCategorizer(table OrderedTable, fallback string) *Categorizer {
	return &Categorizer{table: table, fallback: fallback}
}

// Categorize returns the category of the first keyword in the table that is
// exactly one of the path's segments.
func (c *Categorizer) Categorize(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")

	for _, entry := range c.table {
		if slices.Contains(segments, entry.Key) {
			return entry.Value
		}
	}

	return c.fallback
}
