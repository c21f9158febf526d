// SPDX-License-Identifier: MPL-2.0

package tomldoc

import (
	"fmt"
	"strings"
)

// Path addresses a key or table in a document, one segment per key name.
// Segments are unquoted: the path for `package."*".opt-level` is
// Path{"package", "*", "opt-level"}.
type Path []string

// ParsePath parses dotted-key notation, honoring basic ("...") and literal ('...')
// quoted segments.
func ParsePath(s string) (Path, error) {
	path, end, err := parseKey(s, 0)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", s, err)
	}
	if rest := strings.TrimSpace(s[end:]); rest != "" {
		return nil, fmt.Errorf("parse path %q: unexpected %q after key", s, rest)
	}
	return path, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for
// package-level path constants.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path in dotted-key notation, quoting segments that are not
// valid bare keys.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = quoteKey(seg)
	}
	return strings.Join(parts, ".")
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether q is a (possibly equal) prefix of p.
func (p Path) HasPrefix(q Path) bool {
	return len(q) <= len(p) && p[:len(q)].Equal(q)
}

// Join returns a new path with the segments of q appended to p.
func (p Path) Join(q ...string) Path {
	out := make(Path, 0, len(p)+len(q))
	out = append(out, p...)
	return append(out, q...)
}

// commonPrefixLen returns the number of leading segments shared by p and q.
func (p Path) commonPrefixLen(q Path) int {
	n := 0
	for n < len(p) && n < len(q) && p[n] == q[n] {
		n++
	}
	return n
}

func quoteKey(seg string) string {
	if seg != "" && isBareKey(seg) {
		return seg
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range seg {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func isBareKey(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isBareKeyChar(s[i]) {
			return false
		}
	}
	return true
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}
