package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ppx/source"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable name from the kong context stored in ctx.
func kongVar(ctx context.Context, name string) (string, bool) {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return "", false
	}

	v, ok := ktx.Model.Vars()[name]

	return v, ok
}

type (
	searchPathKey struct{}
	inputKey      struct{}
	outputKey     struct{}
)

// WithSearchPath returns a new context.Context containing the directories
// searched for sources that are not found relative to the working directory.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// WithInput returns a new context.Context whose stdin source reads from r.
func WithInput(ctx context.Context, r io.Reader) context.Context {
	return context.WithValue(ctx, inputKey{}, r)
}

func inputFrom(ctx context.Context) io.Reader {
	if r, ok := ctx.Value(inputKey{}).(io.Reader); ok && r != nil {
		return r
	}

	return os.Stdin
}

// WithOutput returns a new context.Context whose commands write to w.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

const (
	// stdinSource is the special source indicator for reading from stdin.
	stdinSource = "-"

	// stdinName is the document name given to stdin.
	stdinName = "stdin"

	// DocumentExt is the file extension tried when a source name is looked up
	// on the search path.
	DocumentExt = ".ppx"
)

// Load reads the named sources as documents.
//
// Every name is a file path, a document on the search path (with or without
// [DocumentExt]) or "-" for stdin. Files reached through different paths are
// loaded once, and stdin is placed last so it reads after all regular files.
// Without names, stdin is the only source.
//
// Each document is named after its file without the extension, which is the
// name other documents use to run it.
func Load(ctx context.Context, names ...string) ([]*source.Document, error) {
	if len(names) == 0 {
		names = []string{stdinSource}
	}

	var (
		docs     []*source.Document
		hasStdin bool
	)

	seen := make(map[fileKey]struct{})
	named := make(map[string]string)
	search := searchPathFrom(ctx)

	for _, name := range names {
		if name == stdinSource {
			hasStdin = true

			continue
		}

		path, err := locate(name, search)
		if err != nil {
			return nil, err
		}

		doc, ok, err := readUnique(path, seen)
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		if prev, dup := named[doc.Name()]; dup {
			return nil, ErrDuplicate.With(
				slog.String("document", doc.Name()),
				slog.String("file", path),
				slog.String("previous", prev),
			)
		}

		named[doc.Name()] = path
		docs = append(docs, doc)
	}

	if hasStdin {
		doc, err := source.Read(stdinName, inputFrom(ctx))
		if err != nil {
			return nil, ErrSource.With(slog.String("file", stdinSource)).Wrap(err)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// DocumentName returns the document name of the file at path.
func DocumentName(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// locate returns the path of the source name. A name that does not exist
// relative to the working directory is looked up in each of the search
// directories, first as given and then with [DocumentExt] appended.
func locate(name string, search []string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	if !filepath.IsAbs(name) {
		for _, dir := range search {
			for _, cand := range []string{name, name + DocumentExt} {
				path := filepath.Join(dir, cand)
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					return path, nil
				}
			}
		}
	}

	return "", ErrNotFound.With(
		slog.String("source", name),
		slog.Any("search", search),
	)
}

// readUnique reads the file at path if it hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates.
// A duplicate is reported with ok false and a nil error.
func readUnique(path string, seen map[fileKey]struct{}) (doc *source.Document, ok bool, err error) {
	fail := func(err error) (*source.Document, bool, error) {
		return nil, false, ErrSource.With(slog.String("file", path)).Wrap(err)
	}

	// Resolve to absolute path to handle relative path duplicates.
	abs, err := filepath.Abs(path)
	if err != nil {
		return fail(err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fail(err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fail(err)
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return nil, false, nil
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	doc, err = source.Read(DocumentName(path), file)
	if err != nil {
		return fail(err)
	}

	return doc, true, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
