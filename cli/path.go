package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/mung"

	"github.com/ardnew/ppx/pkg"
)

// baseConfig is the base name of the configuration files. The extension
// selects the decoder.
const baseConfig = "config"

const dirMode os.FileMode = 0o700

// debugBin matches the executable names produced by dlv.
var debugBin = regexp.MustCompile(`^__debug_bin\d*$`)

// exeName names the configuration and cache directories: the base name of
// the executable without extension or leading dots.
var exeName = sync.OnceValue(func() string {
	path, err := os.Executable()
	if err != nil {
		path = os.Args[0]
	}

	name := filepath.Base(path)
	name = strings.TrimLeft(strings.TrimSuffix(name, filepath.Ext(name)), ".")

	if name == "" || debugBin.MatchString(name) {
		return pkg.Name
	}

	return name
})

var (
	configDir = sync.OnceValue(func() string { return userDir(os.UserConfigDir, ".config") })
	cacheDir  = sync.OnceValue(func() string { return userDir(os.UserCacheDir, ".cache") })
)

// userDir returns the exeName subdirectory of the directory reported by
// base, falling back on hidden in the home directory and then on the
// working directory.
func userDir(base func() (string, error), hidden string) string {
	if dir, err := base(); err == nil {
		return filepath.Join(dir, exeName())
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, hidden, exeName())
	}

	return exeName()
}

func configFile(ext string) string {
	return filepath.Join(configDir(), baseConfig+ext)
}

func makeDirs() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}

// searchPath returns dirs followed by the entries of [pkg.PathEnv], keeping
// the first occurrence of each existing directory.
func searchPath(dirs []string) []string {
	list := mung.Make(
		mung.WithSubjectItems(pkg.PathEnv),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
		mung.WithFilter(isDir),
	).String()

	if list == "" {
		return nil
	}

	return filepath.SplitList(list)
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
