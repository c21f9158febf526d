// SPDX-License-Identifier: MPL-2.0

package tomldoc

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Document is an editable TOML document that preserves the text of every line
// not touched by an edit, including comments, blank lines, and ordering.
//
// A Document is not safe for concurrent use.
type Document struct {
	blocks []*block
	tree   map[string]any
	eol    string
}

// Parse validates data as TOML and returns an editable document. Invalid input
// returns a *MalformedError.
func Parse(data []byte) (*Document, error) {
	d := &Document{}
	if err := d.load(string(data)); err != nil {
		return nil, err
	}
	return d, nil
}

// load replaces the document content with text. The document is unchanged
// when text is not valid TOML.
func (d *Document) load(text string) error {
	var tree map[string]any
	if err := toml.Unmarshal([]byte(text), &tree); err != nil {
		return newMalformedError(err)
	}
	blocks, err := scan(text)
	if err != nil {
		return &MalformedError{Err: err}
	}
	if tree == nil {
		tree = map[string]any{}
	}
	d.blocks, d.tree = blocks, tree
	d.eol = "\n"
	if strings.Contains(text, "\r\n") {
		d.eol = "\r\n"
	}
	return nil
}

// commit loads the edited text, reporting a ConflictError if the edit
// produced invalid TOML.
func (d *Document) commit(path Path, blocks []*block) error {
	if err := d.load(render(blocks)); err != nil {
		return &ConflictError{Path: path, Err: err}
	}
	return nil
}

// Bytes serializes the document.
func (d *Document) Bytes() []byte {
	return []byte(render(d.blocks))
}

// String serializes the document.
func (d *Document) String() string {
	return render(d.blocks)
}

// Tree decodes the document into a fresh key/value tree.
func (d *Document) Tree() map[string]any {
	var tree map[string]any
	// The text was validated on load, so decoding cannot fail.
	_ = toml.Unmarshal(d.Bytes(), &tree)
	if tree == nil {
		tree = map[string]any{}
	}
	return tree
}

// Get returns the decoded value at path. Tables decode to map[string]any and
// integers to int64, following go-toml.
func (d *Document) Get(path Path) (any, bool) {
	var cur any = d.tree
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether a value or table exists at path.
func (d *Document) Has(path Path) bool {
	_, ok := d.Get(path)
	return ok
}

// Int returns the integer at path. The second result is false when the path
// is missing or does not hold an integer.
func (d *Document) Int(path Path) (int64, bool) {
	v, ok := d.Get(path)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// Set writes value at path. An existing entry keeps its key spelling,
// indentation, and trailing comment; only the value text changes. A missing
// entry is appended to the table that owns it, and missing tables are created
// as new [header] sections placed after their closest relative.
func (d *Document) Set(path Path, value any) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	lit, err := encodeValue(value)
	if err != nil {
		return err
	}

	blocks := d.cloneBlocks()
	if bi, li, ok := findEntry(blocks, path); ok {
		blocks[bi].lines[li] = blocks[bi].lines[li].withValue(lit)
		return d.commit(path, blocks)
	}
	if prefix, ok := findValuePrefix(blocks, path); ok {
		return &ConflictError{Path: path, Err: fmt.Errorf("%s holds a value, not a table", prefix)}
	}

	parent, key := path[:len(path)-1], path[len(path)-1]
	return d.commit(path, d.insertEntry(blocks, parent, key, lit))
}

// Remove deletes the value or table at path. Removing a table drops its
// header section, its sub-tables, and any dotted keys that define it.
// Removing a missing path is a no-op.
func (d *Document) Remove(path Path) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if !d.Has(path) {
		return nil
	}

	blocks := d.cloneBlocks()
	removed := false
	kept := blocks[:0]
	for i, b := range blocks {
		if i > 0 && b.header.HasPrefix(path) {
			removed = true
			continue
		}
		lines := b.lines[:0]
		for _, l := range b.lines {
			if l.kind == entryLine && b.addressable() && b.fullKey(l).HasPrefix(path) {
				removed = true
				continue
			}
			lines = append(lines, l)
		}
		b.lines = lines
		kept = append(kept, b)
	}
	if !removed {
		return &ConflictError{Path: path, Err: errors.New("value is nested inside an inline table or array")}
	}
	return d.commit(path, kept)
}

func (d *Document) insertEntry(blocks []*block, parent Path, key, lit string) []*block {
	if len(parent) == 0 {
		blocks[0].insert(blocks[0].insertionIndex(), Path{key}, lit, d.eol)
		return blocks
	}

	for i := len(blocks) - 1; i > 0; i-- {
		if b := blocks[i]; b.addressable() && b.header.Equal(parent) {
			b.insert(b.insertionIndex(), Path{key}, lit, d.eol)
			return blocks
		}
	}

	// A table defined implicitly through dotted keys gets another dotted key
	// next to its siblings.
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if !b.addressable() || !parent.HasPrefix(b.header) {
			continue
		}
		for li := len(b.lines) - 1; li >= 0; li-- {
			l := b.lines[li]
			if l.kind != entryLine {
				continue
			}
			if full := b.fullKey(l); len(full) > len(parent) && full.HasPrefix(parent) {
				b.insert(li+1, parent[len(b.header):].Join(key), lit, d.eol)
				return blocks
			}
		}
	}

	return d.insertTable(blocks, parent, key, lit)
}

func (d *Document) insertTable(blocks []*block, header Path, key, lit string) []*block {
	pos, best := len(blocks), 0
	for i := 1; i < len(blocks); i++ {
		if n := blocks[i].header.commonPrefixLen(header); n > 0 && n >= best {
			pos, best = i+1, n
		}
	}

	nb := &block{
		header:    header,
		headerRaw: "[" + header.String() + "]" + d.eol,
		lines: []line{{
			kind: entryLine,
			raw:  quoteKey(key) + " = " + lit + d.eol,
			key:  Path{key},
		}},
	}

	prev := blocks[pos-1]
	if prev.ensureEOL(d.eol) && !prev.endsBlank() {
		nb.headerRaw = d.eol + nb.headerRaw
	}
	if pos < len(blocks) {
		nb.lines = append(nb.lines, line{kind: triviaLine, raw: d.eol})
	}
	return slices.Insert(blocks, pos, nb)
}

func (d *Document) cloneBlocks() []*block {
	out := make([]*block, len(d.blocks))
	for i, b := range d.blocks {
		c := *b
		c.lines = slices.Clone(b.lines)
		out[i] = &c
	}
	return out
}

func render(blocks []*block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.headerRaw)
		for _, l := range b.lines {
			sb.WriteString(l.raw)
		}
	}
	return sb.String()
}

// findEntry locates the entry whose full key equals path.
func findEntry(blocks []*block, path Path) (int, int, bool) {
	for bi, b := range blocks {
		if !b.addressable() || !path.HasPrefix(b.header) {
			continue
		}
		for li, l := range b.lines {
			if l.kind == entryLine && b.fullKey(l).Equal(path) {
				return bi, li, true
			}
		}
	}
	return 0, 0, false
}

// findValuePrefix locates an entry whose full key is a strict prefix of path,
// meaning path would descend into a non-table value.
func findValuePrefix(blocks []*block, path Path) (Path, bool) {
	for _, b := range blocks {
		if !b.addressable() {
			continue
		}
		for _, l := range b.lines {
			if l.kind != entryLine {
				continue
			}
			if full := b.fullKey(l); len(full) < len(path) && path.HasPrefix(full) {
				return full, true
			}
		}
	}
	return nil, false
}

func (b *block) fullKey(l line) Path {
	return b.header.Join(l.key...)
}

// addressable reports whether entries in b can be reached by a plain key path.
// Array-of-tables elements cannot.
func (b *block) addressable() bool {
	return !b.array && !b.inArray
}

// insertionIndex is just after the last entry, or before any trailing blank
// lines when the block has no entries.
func (b *block) insertionIndex() int {
	for i := len(b.lines) - 1; i >= 0; i-- {
		if b.lines[i].kind == entryLine {
			return i + 1
		}
	}
	n := len(b.lines)
	for n > 0 && isBlank(b.lines[n-1].raw) {
		n--
	}
	return n
}

func (b *block) insert(idx int, key Path, lit, eol string) {
	indent := ""
	for i := len(b.lines) - 1; i >= 0; i-- {
		if l := b.lines[i]; l.kind == entryLine {
			indent = leadingBlank(l.raw)
			break
		}
	}
	if idx > 0 {
		if prev := &b.lines[idx-1]; !strings.HasSuffix(prev.raw, "\n") {
			prev.raw += eol
		}
	} else if b.headerRaw != "" && !strings.HasSuffix(b.headerRaw, "\n") {
		b.headerRaw += eol
	}
	b.lines = slices.Insert(b.lines, idx, line{
		kind: entryLine,
		raw:  indent + key.String() + " = " + lit + eol,
		key:  key,
	})
}

// ensureEOL terminates the last piece of text in b with a newline. It reports
// whether b holds any text at all.
func (b *block) ensureEOL(eol string) bool {
	if n := len(b.lines); n > 0 {
		if !strings.HasSuffix(b.lines[n-1].raw, "\n") {
			b.lines[n-1].raw += eol
		}
		return true
	}
	if b.headerRaw == "" {
		return false
	}
	if !strings.HasSuffix(b.headerRaw, "\n") {
		b.headerRaw += eol
	}
	return true
}

func (b *block) endsBlank() bool {
	n := len(b.lines)
	return n > 0 && isBlank(b.lines[n-1].raw)
}

func (l line) withValue(lit string) line {
	l.raw = l.raw[:l.valueStart] + lit + l.raw[l.valueEnd:]
	l.valueEnd = l.valueStart + len(lit)
	return l
}

// encodeValue renders value as an inline TOML value using go-toml's encoder.
func encodeValue(value any) (string, error) {
	out, err := toml.Marshal(map[string]any{"v": value})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	lit, ok := strings.CutPrefix(strings.TrimRight(string(out), "\r\n"), "v = ")
	if !ok || strings.Contains(lit, "\n") {
		return "", fmt.Errorf("%w: %T cannot be written inline", ErrUnsupportedValue, value)
	}
	return lit, nil
}
