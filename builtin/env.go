package builtin

// The names below are bound in every {= =} directive. Heap entries with the
// same name shadow them.

import (
	"cmp"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

var exprEnv = sync.OnceValue(func() map[string]any {
	return map[string]any{
		"env":      os.Getenv,
		"target":   hostTarget(),
		"platform": hostPlatform(),
		"hostname": hostname(),
		"cwd":      cwd,

		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		"path": map[string]any{
			"abs":  pathAbs,
			"base": filepath.Base,
			"dir":  filepath.Dir,
			"ext":  filepath.Ext,
			"join": filepath.Join,
			"rel":  pathRel,
		},

		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},
	}
})

// ExprEnv returns a copy of the names bound in expr directives besides the
// heap. The copy may be modified freely.
func ExprEnv() map[string]any { return maps.Clone(exprEnv()) }

// ExprLookup returns the sorted member names at the dot-separated path in
// [ExprEnv]. The empty path lists the top-level names. Paths that do not
// name a group of members return nil.
func ExprLookup(path string) []string {
	var v any = exprEnv()

	if path != "" {
		var ok bool
		if v, ok = exprValue(path); !ok {
			return nil
		}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}

// ExprFunc returns the type of the function bound at the dot-separated path.
func ExprFunc(path string) (reflect.Type, bool) {
	v, ok := exprValue(path)
	if !ok {
		return nil, false
	}

	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Func {
		return nil, false
	}

	return t, true
}

func exprValue(path string) (any, bool) {
	var v any = exprEnv()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}

		if v, ok = m[seg]; !ok {
			return nil, false
		}
	}

	return v, true
}

// target identifies an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// gnuArch maps Go architecture names to their GNU toolchain equivalents.
var gnuArch = map[string]string{
	"386":    "i386",
	"amd64":  "x86_64",
	"arm64":  "aarch64",
	"mipsle": "mipsel",
}

// hostTarget returns the host using GNU toolchain naming conventions.
// GOARM selects the ARM revision; darwin keeps the name arm64.
func hostTarget() target {
	t := hostPlatform()

	switch {
	case t.Arch == "arm":
		rev, _, _ := strings.Cut(os.Getenv("GOARM"), ",")
		if rev = strings.TrimSpace(rev); rev >= "5" && rev <= "7" && len(rev) == 1 {
			t.Arch = "armv" + rev
		}

	case t.Arch == "arm64" && t.OS == "darwin":

	default:
		t.Arch = cmp.Or(gnuArch[t.Arch], t.Arch)
	}

	return t
}

// hostPlatform returns the host using Go naming conventions. The GOHOST and
// GO environment variables take precedence over the running binary.
func hostPlatform() target {
	return target{
		OS:   cmp.Or(os.Getenv("GOHOSTOS"), os.Getenv("GOOS"), runtime.GOOS),
		Arch: cmp.Or(os.Getenv("GOHOSTARCH"), os.Getenv("GOARCH"), runtime.GOARCH),
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}

	return h
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return dir
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

// mungPrefix prepends prefix to the path list held by the environment
// variable key, dropping duplicates.
func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// mungPrefixIf is [mungPrefix] keeping only the entries accepted by keep.
func mungPrefixIf(key string, keep func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(keep),
	).String()
}
