package pkg

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	expected := "ppx"
	if Name != expected {
		t.Errorf("Expected Name to be %q, got %q", expected, Name)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain ardnew, got %v", Author)
	}
}

func TestError(t *testing.T) {
	sentinel := NewError("lookup failed")
	other := NewError("lookup failed")

	tests := []struct {
		name    string
		err     error
		message string
		isSent  bool
	}{
		{"sentinel", sentinel, "lookup failed", true},
		{"wrapped", sentinel.Wrap(io.EOF), "lookup failed: EOF", true},
		{"attributed", sentinel.With(slog.String("name", "x")), "lookup failed", true},
		{"chained", sentinel.With(slog.Int("n", 1)).Wrap(io.EOF), "lookup failed: EOF", true},
		{"distinct", other, "lookup failed", false},
		{"foreign", WrapError(io.EOF), "EOF", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.message {
				t.Errorf("Error() = %q, want %q", got, tt.message)
			}

			if got := errors.Is(tt.err, sentinel); got != tt.isSent {
				t.Errorf("errors.Is(sentinel) = %v, want %v", got, tt.isSent)
			}
		})
	}

	if !errors.Is(sentinel.Wrap(io.EOF), io.EOF) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
}

func TestErrorLogValue(t *testing.T) {
	err := NewError("boom").With(slog.String("unit", "main")).Wrap(io.EOF)

	got := map[string]string{}
	for _, a := range err.LogValue().Group() {
		got[a.Key] = a.Value.String()
	}

	want := map[string]string{"error": "boom", "cause": "EOF", "unit": "main"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("LogValue()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestWrapErrorPassthrough(t *testing.T) {
	base := NewError("base")
	wrapped := errors.Join(io.EOF, base)

	if got := WrapError(wrapped); got != base {
		t.Errorf("WrapError did not return the contained *Error: %v", got)
	}
}
