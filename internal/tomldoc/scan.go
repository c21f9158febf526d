// SPDX-License-Identifier: MPL-2.0

package tomldoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// The scanner splits already-validated TOML text into blocks and lines. It only
// needs to find boundaries (headers, keys, where a value ends); go-toml has
// already rejected anything that is not valid TOML.

var errUnterminated = errors.New("unterminated string")

type (
	lineKind int

	// line is one logical line: a blank line, a comment, or a key/value entry
	// whose value may span several physical lines.
	line struct {
		kind lineKind
		raw  string
		// key is relative to the enclosing block header. Entries only.
		key Path
		// valueStart and valueEnd delimit the value within raw. Entries only.
		valueStart int
		valueEnd   int
	}

	// block is a table header and the lines under it. The root block has no header.
	block struct {
		header    Path
		array     bool
		inArray   bool
		headerRaw string
		lines     []line
	}
)

const (
	triviaLine lineKind = iota
	entryLine
)

func scan(s string) ([]*block, error) {
	root := &block{}
	blocks := []*block{root}
	cur := root
	var arrays []Path

	for i := 0; i < len(s); {
		eol := lineEnd(s, i)
		text := s[i:eol]
		body := strings.TrimLeft(text, " \t")
		indent := len(text) - len(body)
		trimmed := strings.TrimRight(body, "\r\n")

		switch {
		case trimmed == "" || trimmed[0] == '#':
			cur.lines = append(cur.lines, line{kind: triviaLine, raw: text})
			i = eol
		case trimmed[0] == '[':
			b, err := scanHeader(text, indent)
			if err != nil {
				return nil, err
			}
			for _, a := range arrays {
				if b.header.HasPrefix(a) && !(b.array && b.header.Equal(a)) {
					b.inArray = true
				}
			}
			if b.array {
				arrays = append(arrays, b.header)
			}
			blocks = append(blocks, b)
			cur = b
			i = eol
		default:
			l, end, err := scanEntry(s, i, indent)
			if err != nil {
				return nil, err
			}
			cur.lines = append(cur.lines, l)
			i = end
		}
	}
	return blocks, nil
}

func scanHeader(text string, indent int) (*block, error) {
	b := &block{headerRaw: text}
	open, closing := "[", "]"
	if strings.HasPrefix(text[indent:], "[[") {
		b.array = true
		open, closing = "[[", "]]"
	}
	path, end, err := parseKey(text, indent+len(open))
	if err != nil {
		return nil, fmt.Errorf("table header: %w", err)
	}
	end = skipBlank(text, end)
	if !strings.HasPrefix(text[end:], closing) {
		return nil, fmt.Errorf("table header %s: missing %q", path, closing)
	}
	b.header = path
	return b, nil
}

func scanEntry(s string, start, indent int) (line, int, error) {
	key, k, err := parseKey(s, start+indent)
	if err != nil {
		return line{}, 0, err
	}
	k = skipBlank(s, k)
	if k >= len(s) || s[k] != '=' {
		return line{}, 0, fmt.Errorf("key %s: expected '='", key)
	}
	k = skipBlank(s, k+1)
	vEnd, err := scanValue(s, k)
	if err != nil {
		return line{}, 0, fmt.Errorf("key %s: %w", key, err)
	}
	end := lineEnd(s, vEnd)
	return line{
		kind:       entryLine,
		raw:        s[start:end],
		key:        key,
		valueStart: k - start,
		valueEnd:   vEnd - start,
	}, end, nil
}

// parseKey parses a (possibly dotted) key starting at s[i] and returns the
// index just past its last segment.
func parseKey(s string, i int) (Path, int, error) {
	var path Path
	for {
		i = skipBlank(s, i)
		if i >= len(s) {
			return nil, i, errors.New("expected key")
		}
		var seg string
		switch s[i] {
		case '"', '\'':
			end, err := skipString(s, i)
			if err != nil {
				return nil, i, err
			}
			raw := s[i:end]
			if strings.HasPrefix(raw, `"""`) || strings.HasPrefix(raw, `'''`) {
				return nil, i, errors.New("multi-line string used as key")
			}
			if seg, err = decodeString(raw); err != nil {
				return nil, i, err
			}
			i = end
		default:
			j := i
			for j < len(s) && isBareKeyChar(s[j]) {
				j++
			}
			if j == i {
				return nil, i, fmt.Errorf("unexpected %q in key", s[i])
			}
			seg = s[i:j]
			i = j
		}
		path = append(path, seg)

		k := skipBlank(s, i)
		if k < len(s) && s[k] == '.' {
			i = k + 1
			continue
		}
		return path, i, nil
	}
}

// scanValue returns the index just past the value starting at s[i].
func scanValue(s string, i int) (int, error) {
	if i >= len(s) {
		return 0, errors.New("missing value")
	}
	switch s[i] {
	case '"', '\'':
		return skipString(s, i)
	case '[', '{':
		return skipCompound(s, i)
	}
	// Scalars (numbers, booleans, dates) end at a comment or end of line.
	// Datetimes may contain a space, so trailing blanks are trimmed instead.
	j := i
	for j < len(s) && s[j] != '#' && s[j] != '\n' && s[j] != '\r' {
		j++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	if j == i {
		return 0, errors.New("missing value")
	}
	return j, nil
}

func skipString(s string, i int) (int, error) {
	q := s[i]
	delim := strings.Repeat(string(q), 3)
	if strings.HasPrefix(s[i:], delim) {
		for j := i + 3; j < len(s); j++ {
			if q == '"' && s[j] == '\\' {
				j++
				continue
			}
			if strings.HasPrefix(s[j:], delim) {
				end := j + 3
				// Up to two quotes directly before the delimiter belong to the content.
				for n := 0; n < 2 && end < len(s) && s[end] == q; n++ {
					end++
				}
				return end, nil
			}
		}
		return 0, errUnterminated
	}
	for j := i + 1; j < len(s); j++ {
		switch {
		case q == '"' && s[j] == '\\':
			j++
		case s[j] == q:
			return j + 1, nil
		case s[j] == '\n':
			return 0, errUnterminated
		}
	}
	return 0, errUnterminated
}

// skipCompound skips an array or inline table, including nested strings and
// comments inside multi-line arrays.
func skipCompound(s string, i int) (int, error) {
	depth := 0
	for j := i; j < len(s); {
		switch s[j] {
		case '"', '\'':
			end, err := skipString(s, j)
			if err != nil {
				return 0, err
			}
			j = end
			continue
		case '#':
			for j < len(s) && s[j] != '\n' {
				j++
			}
			continue
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
		j++
	}
	return 0, errors.New("unterminated array or inline table")
}

func skipBlank(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// lineEnd returns the index just past the next newline at or after i.
func lineEnd(s string, i int) int {
	idx := strings.IndexByte(s[i:], '\n')
	if idx < 0 {
		return len(s)
	}
	return i + idx + 1
}

func isBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// decodeString decodes a single-line TOML string literal using go-toml so that
// every escape form is handled exactly as the decoder does.
func decodeString(raw string) (string, error) {
	var m map[string]string
	if err := toml.Unmarshal([]byte("v = "+raw), &m); err != nil {
		return "", fmt.Errorf("invalid quoted key %s: %w", raw, err)
	}
	return m["v"], nil
}
