// Package cli contains the command line interface for ppx.
//
// # Commands
//
//   - run (default): build every source and execute the main document
//   - tree: print the structural tree of a source as YAML or JSON
//   - repl: evaluate directives interactively against a persistent heap
//   - init: write the current flag values to the configuration file
//
// Sources are file paths, names of documents on the search path, or "-" for
// standard input. A document is named after its file without the extension,
// and other documents run it by that name:
//
//	ppx run index.ppx header.ppx footer.ppx
//	echo '{{ 6 * 7 }}' | ppx
//	ppx -I ./templates run --main index header footer index
//
// # Search Path
//
// Sources that do not exist relative to the working directory are looked up
// in the directories given with -I, followed by the directories listed in the
// PPX_PATH environment variable. Directories that do not exist are skipped.
//
// # Configuration
//
// Flag defaults are read from config.yaml and config.json in the ppx config
// directory (e.g. $XDG_CONFIG_HOME/ppx). Keys are flag names, with hyphens
// or underscores:
//
//	log-level: debug
//	path:
//	  - ~/templates
//	define:
//	  site: example.org
//
// Command-line flags override configured values. The init command writes a
// config.yaml holding the current value of every flag.
//
// # Logging Options
//
//   - --log-level: minimum log level
//   - --log-format: log output format
//   - --log-time-layout: timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: include caller information
//   - --log-pretty: colorize output
//
// Logging flags are applied before the rest of the command line is parsed,
// so they also affect errors reported while parsing.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o ppx .
//
//   - --pprof-mode: enable profiling (cpu, heap, trace, ...)
//   - --pprof-dir: profile output directory (default: the pprof
//     subdirectory of the ppx cache directory)
package cli
