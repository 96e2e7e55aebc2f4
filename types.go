package docupdater

import (
	"fmt"
	"strings"
)

type TagEntry struct {
	Value        string `json:"value"`
	OriginalLine string `json:"original_line"`
	LineNumber   int    `json:"line_number"`
	// Column is the byte offset of Value within OriginalLine.
	Column int `json:"column"`
}

type FileRecord struct {
	Path     string     `json:"path"`
	Category string     `json:"category"`
	Header   *HeaderMap `json:"header"`
}

type OpKind string

const (
	OpCreate OpKind = "CREATE"
	OpUpdate OpKind = "UPDATE"
	OpAppend OpKind = "APPEND"
)

type Outcome string

const (
	OutcomeOK          Outcome = "[OK]"
	OutcomeNOK         Outcome = "[NOK]"
	OutcomeNotRealMode Outcome = "[NOT-REAL-MODE]"
)

// MissingValue stands in for the old value when the tag was not in the header.
const MissingValue = "---"

type Change struct {
	Tag      string  `json:"tag"`
	Op       OpKind  `json:"op"`
	Path     string  `json:"path"`
	OldValue string  `json:"old_value"`
	NewValue string  `json:"new_value"`
	Outcome  Outcome `json:"outcome"`
	Err      error   `json:"-"`
}

func (c Change) String() string {
	return fmt.Sprintf("[%s-%s] %s / %s -> %s %s",
		strings.ToUpper(c.Tag), c.Op, c.Path, c.OldValue, c.NewValue, c.Outcome)
}

type SessionStats struct {
	TotalFiles   int `json:"total_files"`
	ParsedFiles  int `json:"parsed_files"`
	Changes      int `json:"changes"`
	FailedWrites int `json:"failed_writes"`
	Skipped      int `json:"skipped"`
}

type SessionResult struct {
	ParsedFiles []string     `json:"parsed_files"`
	Changes     []Change     `json:"changes"`
	Errors      []string     `json:"errors,omitempty"`
	Stats       SessionStats `json:"stats"`
}

// ChangeLog renders every change as a log line, in the order they were made.
func (r *SessionResult) ChangeLog() []string {
	lines := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		lines = append(lines, c.String())
	}
	return lines
}

type SourceFileInfo struct {
	Path     string `json:"path"`
	Category string `json:"category"`
}

type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
