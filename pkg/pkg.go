//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// version is the semantic version of the ppx module embedded at build time.
//
//go:embed VERSION
var version string

// Version is the trimmed content of the embedded VERSION file.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier used across the
	// project. For example, it appears in help text and default config paths.
	Name = "ppx"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Range-tree text template preprocessor"
	// PathEnv names the environment variable holding the document search path.
	PathEnv = "PPX_PATH"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	// Name is the author's preferred name or handle.
	Name string
	// Email is the author's contact email address.
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
