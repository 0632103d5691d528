package source

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/ppx/pkg"
)

var (
	ErrOutOfRange = pkg.NewError("reference out of range")
	ErrRead       = pkg.NewError("failed to read document")
)

// Document is a named, immutable body of text.
type Document struct {
	name string
	text string
	sum  uint64
}

// NewDocument returns a Document with the given name and text.
func NewDocument(name, text string) *Document {
	return &Document{name: name, text: text, sum: xxh3.HashString(text)}
}

// Read returns a Document whose text is read entirely from r.
func Read(name string, r io.Reader) (*Document, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	b, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.With(slog.String("document", name)).Wrap(err)
	}

	return NewDocument(name, string(b)), nil
}

// Name returns the document name.
func (d *Document) Name() string { return d.name }

// Text returns the full document text.
func (d *Document) Text() string { return d.text }

// Len returns the length of the document text in bytes.
func (d *Document) Len() int { return len(d.text) }

// Sum returns the xxh3 hash of the document text.
func (d *Document) Sum() uint64 { return d.sum }

// Key returns a short string that identifies the document content.
func (d *Document) Key() string { return strconv.FormatUint(d.sum, 36) }

// Whole returns the Reference covering the entire document.
func (d *Document) Whole() Reference { return Reference{Pos: 0, Len: len(d.text)} }

// Ref returns the Reference [pos, pos+n) after checking it lies within d.
func (d *Document) Ref(pos, n int) (Reference, error) {
	r := Reference{Pos: pos, Len: n}
	if pos < 0 || n < 0 || r.End() > len(d.text) {
		return Reference{}, ErrOutOfRange.With(
			slog.String("document", d.name),
			slog.String("ref", r.String()),
			slog.Int("len", len(d.text)),
		)
	}

	return r, nil
}

// Slice returns the text addressed by r.
// The reference must lie within d.
func (d *Document) Slice(r Reference) string { return d.text[r.Pos:r.End()] }

// Position converts a byte offset into a 1-based line and column.
func (d *Document) Position(offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(d.text); i++ {
		if d.text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return line, col
}

// LogValue implements slog.LogValuer.
func (d *Document) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", d.name),
		slog.Int("len", len(d.text)),
		slog.String("key", d.Key()),
	)
}
