package host

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Buffer is an editable in-memory Document backed by a file path.
type Buffer struct {
	path    string
	id      string
	lines   []string
	crlf    bool
	version int
	dirty   bool
	// charset is nil for UTF-8 files.
	charset *charmap.Charmap
}

// NewBuffer returns a buffer holding text for path.
func NewBuffer(path, text string) *Buffer {
	b := &Buffer{path: path, id: FileID(path)}
	b.setText(text)
	return b
}

// LoadBuffer reads path from disk. Files that are not valid UTF-8 are
// decoded as Windows-1252 and saved back in that encoding.
func LoadBuffer(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("%s is not a text file", path)
	}
	if utf8.Valid(data) {
		return NewBuffer(path, string(data)), nil
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	b := NewBuffer(path, string(text))
	b.charset = charmap.Windows1252
	return b, nil
}

func (b *Buffer) setText(text string) {
	b.crlf = strings.Contains(text, "\r\n")
	if b.crlf {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	b.lines = strings.Split(text, "\n")
}

func (b *Buffer) ID() string   { return b.id }
func (b *Buffer) Path() string { return b.path }

func (b *Buffer) LineCount() int { return len(b.lines) }

func (b *Buffer) LineLength(i int) int {
	if i < 0 || i >= len(b.lines) {
		return 0
	}
	return utf8.RuneCountInString(b.lines[i])
}

// Line returns line i or "" when out of range.
func (b *Buffer) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return b.lines[i]
}

func (b *Buffer) Text() string {
	sep := "\n"
	if b.crlf {
		sep = "\r\n"
	}
	return strings.Join(b.lines, sep)
}

// Version increases on every edit.
func (b *Buffer) Version() int { return b.version }

// Dirty reports unsaved edits.
func (b *Buffer) Dirty() bool { return b.dirty }

// InsertRune inserts r at (line, col) and returns the cursor after it.
func (b *Buffer) InsertRune(line, col int, r rune) (int, int) {
	line, col = b.clamp(line, col)
	runes := []rune(b.lines[line])
	runes = append(runes[:col], append([]rune{r}, runes[col:]...)...)
	b.lines[line] = string(runes)
	b.touch()
	return line, col + 1
}

// InsertNewline splits line at col.
func (b *Buffer) InsertNewline(line, col int) (int, int) {
	line, col = b.clamp(line, col)
	runes := []rune(b.lines[line])
	head, tail := string(runes[:col]), string(runes[col:])
	b.lines = append(b.lines[:line+1], append([]string{tail}, b.lines[line+1:]...)...)
	b.lines[line] = head
	b.touch()
	return line + 1, 0
}

// DeleteBack removes the rune before (line, col), joining lines at column 0.
// It reports the new cursor and whether anything changed.
func (b *Buffer) DeleteBack(line, col int) (int, int, bool) {
	line, col = b.clamp(line, col)
	if col > 0 {
		runes := []rune(b.lines[line])
		b.lines[line] = string(append(runes[:col-1], runes[col:]...))
		b.touch()
		return line, col - 1, true
	}
	if line == 0 {
		return line, col, false
	}
	prevLen := b.LineLength(line - 1)
	b.lines[line-1] += b.lines[line]
	b.lines = append(b.lines[:line], b.lines[line+1:]...)
	b.touch()
	return line - 1, prevLen, true
}

// Save writes the buffer back to its path.
func (b *Buffer) Save() error {
	data := []byte(b.Text())
	if b.charset != nil {
		encoded, err := b.charset.NewEncoder().Bytes(data)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", b.path, err)
		}
		data = encoded
	}
	if err := os.WriteFile(b.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", b.path, err)
	}
	b.dirty = false
	return nil
}

func (b *Buffer) clamp(line, col int) (int, int) {
	if line < 0 {
		line = 0
	}
	if line >= len(b.lines) {
		line = len(b.lines) - 1
	}
	if col < 0 {
		col = 0
	}
	if n := b.LineLength(line); col > n {
		col = n
	}
	return line, col
}

func (b *Buffer) touch() {
	b.version++
	b.dirty = true
}
