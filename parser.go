package docupdater

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"
	"strings"
)

// DefaultMaxLines is the index of the last line scanned for tags, so eleven
// lines are read by default.
const DefaultMaxLines = 10

var tagPattern = regexp.MustCompile(`@([a-z]+)\s+`)

// ParseFile reads the leading lines of the file at path and parses its
// documentation header.
func ParseFile(path string, maxLines int) (*HeaderMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	header, err := ParseReader(f, maxLines)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return header, nil
}

// ParseReader reads at most maxLines+1 lines from r. Fewer lines is not an error.
func ParseReader(r io.Reader, maxLines int) (*HeaderMap, error) {
	reader := bufio.NewReader(r)
	var lines []string

	for i := 0; i <= maxLines; i++ {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return ParseLines(lines, maxLines), nil
}

// ParseLines builds a HeaderMap from the first maxLines+1 lines. Scanning stops
// at the first non-empty line that does not start with '<', '*' or '/'.
func ParseLines(lines []string, maxLines int) *HeaderMap {
	header := NewHeaderMap()

	for i := 0; i <= maxLines && i < len(lines); i++ {
		line := trimLineEnding(lines[i])

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !strings.ContainsRune("<*/", rune(trimmed[0])) {
			break
		}

		for key, entry := range extractTags(line) {
			entry.LineNumber = i + 1
			header.Set(key, entry)
		}
	}

	return header
}

// extractTags yields every "@name value" pair on the line. A value runs until
// the end of the line or the next tag token, minus trailing whitespace.
func extractTags(line string) iter.Seq2[string, TagEntry] {
	return func(yield func(string, TagEntry) bool) {
		matches := tagPattern.FindAllStringSubmatchIndex(line, -1)
		for i, m := range matches {
			end := len(line)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}

			value := strings.TrimRight(line[m[1]:end], " \t\f\v")
			entry := TagEntry{
				Value:        value,
				OriginalLine: line,
				Column:       m[1],
			}
			if !yield(line[m[2]:m[3]], entry) {
				return
			}
		}
	}
}

// trimLineEnding drops a trailing "\n" or "\r\n". A "\r" elsewhere in the
// line is content and stays.
func trimLineEnding(line string) string {
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}
