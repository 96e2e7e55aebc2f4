package docupdater

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultTagWidth is the width "@tag" is padded to, so values line up at the
// thirteenth column after the "@".
const DefaultTagWidth = 12

type HeaderRewriter struct {
	maxLines int
	tagWidth int
	realMode bool
	log      *slog.Logger
}

func NewHeaderRewriter(config *Config, log *slog.Logger) *HeaderRewriter {
	if log == nil {
		log = discardLogger
	}
	return &HeaderRewriter{
		maxLines: config.MaxLines,
		tagWidth: config.TagWidth,
		realMode: config.RealMode,
		log:      log,
	}
}

// Apply sets key to value in the documentation header of file.
//
// With an empty header a new block is created, an existing non-empty value is
// updated in place, and anything else is appended after the last known tag.
// A key whose current value is empty is therefore appended again rather than
// updated.
//
// Write failures are reported through Change.Outcome and Change.Err. After
// every call, real or not, file.Header is re-parsed from disk because line
// numbers move after a create or append. The returned error is only set when
// that re-parse fails.
func (r *HeaderRewriter) Apply(ctx context.Context, file *FileRecord, key, value string) (Change, error) {
	change := Change{
		Tag:      key,
		Path:     file.Path,
		OldValue: MissingValue,
		NewValue: value,
	}

	var edit func(b *LineBuffer) error

	entry, exists := file.Header.Get(key)
	if exists {
		change.OldValue = entry.Value
	}

	switch {
	case file.Header.Len() == 0:
		change.Op = OpCreate
		edit = func(b *LineBuffer) error {
			return b.InsertAt(blockInsertPosition(b), r.newBlock(key, value)...)
		}
	case exists && entry.Value != "":
		change.Op = OpUpdate
		edit = func(b *LineBuffer) error {
			return b.Replace(entry.LineNumber, replaceValue(entry, value))
		}
	default:
		change.Op = OpAppend
		_, last, _ := file.Header.Last()
		edit = func(b *LineBuffer) error {
			return b.InsertAfter(last.LineNumber, FormatTagLine(key, value, r.tagWidth))
		}
	}

	if !r.realMode {
		change.Outcome = OutcomeNotRealMode
	} else if err := r.write(file.Path, edit); err != nil {
		r.log.WarnContext(ctx, "rewrite failed", "path", file.Path, "tag", key, "error", err)
		change.Outcome = OutcomeNOK
		change.Err = err
	} else {
		change.Outcome = OutcomeOK
	}

	r.log.DebugContext(ctx, "applied tag", "path", file.Path, "tag", key, "op", change.Op, "outcome", change.Outcome)

	header, err := ParseFile(file.Path, r.maxLines)
	if err != nil {
		return change, fmt.Errorf("re-parsing header: %w", err)
	}
	file.Header = header

	return change, nil
}

func (r *HeaderRewriter) write(path string, edit func(b *LineBuffer) error) error {
	buf, err := LoadLineBuffer(path)
	if err != nil {
		return err
	}
	if err := edit(buf); err != nil {
		return fmt.Errorf("editing %s: %w", path, err)
	}
	return buf.WriteFile(path)
}

func (r *HeaderRewriter) newBlock(key, value string) []string {
	return []string{
		"/**",
		FormatTagLine(key, value, r.tagWidth),
		"",
		"  */",
	}
}

// FormatTagLine renders a tag line with "@key" padded to width. At least one
// space always separates key and value.
func FormatTagLine(key, value string, width int) string {
	pad := width - len(key) - 1
	if pad < 1 {
		pad = 1
	}
	return "  * @" + key + strings.Repeat(" ", pad) + value
}

// blockInsertPosition keeps the first line, such as "<?php", and the blank
// lines right after it above a newly created block.
func blockInsertPosition(b *LineBuffer) int {
	if b.Len() == 0 {
		return 1
	}
	pos := 2
	for pos <= b.Len() {
		line, _ := b.Line(pos)
		if strings.TrimSpace(line) != "" {
			break
		}
		pos++
	}
	return pos
}

// replaceValue swaps the old value for the new one at its recorded column,
// leaving the rest of the original line as the author wrote it.
func replaceValue(entry TagEntry, value string) string {
	line := entry.OriginalLine
	end := entry.Column + len(entry.Value)
	if entry.Column < 0 || end > len(line) || line[entry.Column:end] != entry.Value {
		return strings.Replace(line, entry.Value, value, 1)
	}
	return line[:entry.Column] + value + line[end:]
}
