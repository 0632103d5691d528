package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

type initLevel string

// initCLI mirrors the kinds of flags declared by the top-level CLI.
type initCLI struct {
	Level   initLevel         `default:"info"`
	Verbose bool              `default:"true"`
	Output  string            `default:""`
	Depth   int               `default:"8"`
	Path    []string          `default:"a,b"`
	Define  map[string]string `short:"D"`
	Secret  string            `default:"s" hidden:""`
	Pprof   string            `default:"cpu" name:"pprof-mode"`
}

func initContext(t *testing.T, path string, args ...string) context.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: path})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(context.Background(), ktx)
}

func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create_new_config"},
		{name: "overwrite_existing_with_force", force: true, exists: true},
		{name: "fail_without_force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.yaml")

			if tt.exists {
				if err := os.WriteFile(path, []byte("existing: true\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			err := (&Init{Force: tt.force}).Run(initContext(t, path))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() unexpected error = %v", err)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			var got map[string]any
			if err := yaml.Unmarshal(content, &got); err != nil {
				t.Fatalf("generated config is not valid YAML: %v\n%s", err, content)
			}

			if _, ok := got["existing"]; ok {
				t.Error("existing config was not overwritten")
			}

			if got["level"] != "info" {
				t.Errorf("level = %v, want %q", got["level"], "info")
			}
		})
	}
}

func TestInitSettings(t *testing.T) {
	t.Parallel()

	ctx := initContext(t, "unused", "--depth=3", "-D", "b=2", "-D", "a=1")

	got := (&Init{}).settings(ctx)

	want := map[string]any{
		"level":   "info",
		"verbose": true,
		"depth":   3,
		"path":    []string{"a", "b"},
	}

	keys := make(map[string]bool, len(got))

	for _, item := range got {
		key, _ := item.Key.(string)
		keys[key] = true

		switch key {
		case "secret", "pprof-mode", "help":
			t.Errorf("settings() includes excluded flag %q", key)
		case "output":
			t.Error("settings() includes empty string flag")
		case "define":
			pairs, ok := item.Value.(yaml.MapSlice)
			if !ok || len(pairs) != 2 || pairs[0].Key != "a" || pairs[1].Key != "b" {
				t.Errorf("define = %#v, want sorted [a b]", item.Value)
			}
		case "path":
			v, ok := item.Value.([]string)
			if !ok || len(v) != 2 || v[0] != "a" || v[1] != "b" {
				t.Errorf("path = %#v, want [a b]", item.Value)
			}
		default:
			if w, ok := want[key]; ok && item.Value != w {
				t.Errorf("%s = %#v, want %#v", key, item.Value, w)
			}
		}
	}

	for key := range want {
		if !keys[key] {
			t.Errorf("settings() missing %q", key)
		}
	}

	if !keys["define"] {
		t.Error("settings() missing define")
	}
}

func TestInitSettingsWithoutKongContext(t *testing.T) {
	t.Parallel()

	if got := (&Init{}).settings(context.Background()); len(got) != 0 {
		t.Errorf("settings() = %v, want empty", got)
	}
}

func TestInitWithInvalidPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "config.yaml")

	err := (&Init{}).Run(initContext(t, path))
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
	}
}
