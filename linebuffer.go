package docupdater

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

const DefaultFilePermissions = 0644

// LineBuffer holds a file as a slice of lines, each with its own line ending.
// Line numbers are 1-based throughout.
type LineBuffer struct {
	lines      []bufferLine
	lineEnding string
}

type bufferLine struct {
	text string
	eol  string
}

func LoadLineBuffer(path string) (*LineBuffer, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewLineBuffer(string(content)), nil
}

// NewLineBuffer splits content into lines, keeping the ending of every line
// as found. The ending used for inserted lines is CRLF when the first line
// break is "\r\n", otherwise LF.
func NewLineBuffer(content string) *LineBuffer {
	b := &LineBuffer{lineEnding: "\n"}

	if idx := strings.IndexByte(content, '\n'); idx > 0 && content[idx-1] == '\r' {
		b.lineEnding = "\r\n"
	}

	for content != "" {
		var line bufferLine
		idx := strings.IndexByte(content, '\n')
		if idx < 0 {
			line.text = content
			content = ""
		} else {
			line.text, line.eol = content[:idx], "\n"
			content = content[idx+1:]
			if strings.HasSuffix(line.text, "\r") {
				line.text, line.eol = line.text[:len(line.text)-1], "\r\n"
			}
		}
		b.lines = append(b.lines, line)
	}
	return b
}

func (b *LineBuffer) Len() int { return len(b.lines) }

func (b *LineBuffer) LineEnding() string { return b.lineEnding }

func (b *LineBuffer) Lines() []string {
	out := make([]string, 0, len(b.lines))
	for _, line := range b.lines {
		out = append(out, line.text)
	}
	return out
}

func (b *LineBuffer) Line(n int) (string, error) {
	if n < 1 || n > len(b.lines) {
		return "", fmt.Errorf("line %d out of range (1-%d)", n, len(b.lines))
	}
	return b.lines[n-1].text, nil
}

// Replace swaps the text of line n and keeps its line ending.
func (b *LineBuffer) Replace(n int, text string) error {
	if n < 1 || n > len(b.lines) {
		return fmt.Errorf("line %d out of range (1-%d)", n, len(b.lines))
	}
	b.lines[n-1].text = text
	return nil
}

// InsertAt inserts lines so that the first of them becomes line n. n may be
// one past the last line to append at the end. Inserted lines use the
// buffer's line ending. A file without a trailing newline keeps that shape.
func (b *LineBuffer) InsertAt(n int, lines ...string) error {
	if n < 1 || n > len(b.lines)+1 {
		return fmt.Errorf("insert position %d out of range (1-%d)", n, len(b.lines)+1)
	}
	if len(lines) == 0 {
		return nil
	}

	inserted := make([]bufferLine, len(lines))
	for i, text := range lines {
		inserted[i] = bufferLine{text: text, eol: b.lineEnding}
	}

	if n == len(b.lines)+1 && (n == 1 || b.lines[n-2].eol == "") {
		if n > 1 {
			b.lines[n-2].eol = b.lineEnding
		}
		inserted[len(inserted)-1].eol = ""
	}

	out := make([]bufferLine, 0, len(b.lines)+len(inserted))
	out = append(out, b.lines[:n-1]...)
	out = append(out, inserted...)
	out = append(out, b.lines[n-1:]...)
	b.lines = out
	return nil
}

func (b *LineBuffer) InsertAfter(n int, lines ...string) error {
	return b.InsertAt(n+1, lines...)
}

func (b *LineBuffer) Bytes() []byte {
	var buf bytes.Buffer
	for _, line := range b.lines {
		buf.WriteString(line.text)
		buf.WriteString(line.eol)
	}
	return buf.Bytes()
}

// WriteFile replaces path with the buffer contents through a temporary file
// and rename, so readers never observe a partially written file.
func (b *LineBuffer) WriteFile(path string) error {
	if err := atomic.WriteFile(path, bytes.NewReader(b.Bytes())); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
