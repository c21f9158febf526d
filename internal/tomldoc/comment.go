// SPDX-License-Identifier: MPL-2.0

package tomldoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"
)

// A commented entry is a comment line whose body, once the leading '#' is
// dropped, is a single valid key/value pair, e.g. `#linker = "clang"`. Its key
// belongs to the table the comment sits in. Configuration templates use these
// lines as disabled settings.

// Commented reports whether path has a commented entry and no active one.
func (d *Document) Commented(path Path) bool {
	if d.Has(path) {
		return false
	}
	_, _, ok := findCommented(d.blocks, path)
	return ok
}

// Uncomment activates the first commented entry for path. It is a no-op when
// path is already active and returns ErrNotFound when there is nothing to
// uncomment.
func (d *Document) Uncomment(path Path) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if d.Has(path) {
		return nil
	}
	blocks := d.cloneBlocks()
	bi, li, ok := findCommented(blocks, path)
	if !ok {
		return fmt.Errorf("uncomment %s: %w", path, ErrNotFound)
	}
	l := &blocks[bi].lines[li]
	indent := leadingBlank(l.raw)
	l.raw = indent + strings.TrimLeft(l.raw[len(indent)+1:], " \t")
	return d.commit(path, blocks)
}

// CommentOut disables the active entry for path by prefixing it with '#'. It is
// a no-op when path does not exist. Tables and multi-line values cannot be
// commented out.
func (d *Document) CommentOut(path Path) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	blocks := d.cloneBlocks()
	bi, li, ok := findEntry(blocks, path)
	if !ok {
		if d.Has(path) {
			return &ConflictError{Path: path, Err: errors.New("not a single key/value entry")}
		}
		return nil
	}
	l := &blocks[bi].lines[li]
	if strings.Contains(strings.TrimRight(l.raw, "\r\n"), "\n") {
		return &ConflictError{Path: path, Err: errors.New("multi-line values cannot be commented out")}
	}
	indent := leadingBlank(l.raw)
	l.raw = indent + "#" + l.raw[len(indent):]
	l.kind = triviaLine
	return d.commit(path, blocks)
}

func findCommented(blocks []*block, path Path) (int, int, bool) {
	for bi, b := range blocks {
		if !b.addressable() || !path.HasPrefix(b.header) {
			continue
		}
		for li, l := range b.lines {
			if key, ok := l.commentedKey(); ok && b.header.Join(key...).Equal(path) {
				return bi, li, true
			}
		}
	}
	return 0, 0, false
}

// commentedKey returns the key of a commented entry. The body must parse as
// exactly one key/value expression, so prose such as "# mold goes here" and
// truncated values are ignored.
func (l line) commentedKey() (Path, bool) {
	if l.kind != triviaLine {
		return nil, false
	}
	body, ok := strings.CutPrefix(strings.TrimLeft(l.raw, " \t"), "#")
	if !ok {
		return nil, false
	}
	var p unstable.Parser
	p.Reset([]byte(strings.TrimRight(body, "\r\n")))
	if !p.NextExpression() {
		return nil, false
	}
	expr := p.Expression()
	if expr.Kind != unstable.KeyValue {
		return nil, false
	}
	var key Path
	for it := expr.Key(); it.Next(); {
		key = append(key, string(it.Node().Data))
	}
	// The expression node is reused by the next call, so the key is copied
	// out before looking for trailing input.
	if p.NextExpression() || p.Error() != nil {
		return nil, false
	}
	return key, true
}

func leadingBlank(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
