package lang

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestError_Messages(t *testing.T) {
	base := NewError("compile failed")

	if base.Error() != "compile failed" {
		t.Errorf("Error() = %q", base.Error())
	}

	wrapped := base.Wrap(errors.New("bad token"))
	if wrapped.Error() != "compile failed: bad token" {
		t.Errorf("Error() = %q", wrapped.Error())
	}

	if (&Error{}).Error() != "" {
		t.Error("empty error should render empty string")
	}
}

func TestError_SentinelMatching(t *testing.T) {
	err := NewError("template load failed").
		Wrap(errors.New("disk gone")).
		With(slog.String("path", "x.plume"))

	if !errors.Is(err, ErrLoad) {
		t.Error("attributed copy should match its sentinel")
	}

	if errors.Is(err, ErrNotFound) {
		t.Error("copy should not match unrelated sentinels")
	}
}

func TestError_UnwrapChain(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrCodegen.Wrap(cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable")
	}
}

func TestError_WithIsImmutable(t *testing.T) {
	base := NewError("x").With(slog.String("a", "1"))
	derived := base.With(slog.String("b", "2"))

	if len(base.attrs) != 1 {
		t.Errorf("base attrs = %d, want 1", len(base.attrs))
	}

	if len(derived.attrs) != 2 {
		t.Errorf("derived attrs = %d, want 2", len(derived.attrs))
	}
}

func TestError_LogValue(t *testing.T) {
	err := NewError("msg").
		Wrap(errors.New("cause")).
		With(slog.String("key", "val"))

	group := err.LogValue().Group()
	if len(group) != 3 {
		t.Fatalf("group has %d attrs, want 3", len(group))
	}

	if group[0].Key != "error" || group[0].Value.String() != "msg" {
		t.Errorf("first attr = %v", group[0])
	}

	if group[1].Key != "cause" {
		t.Errorf("second attr = %v", group[1])
	}
}

func TestWrapError(t *testing.T) {
	plain := errors.New("plain")

	if WrapError(plain).Unwrap() != plain {
		t.Error("plain errors should be wrapped")
	}

	already := NewError("typed")
	if WrapError(already) != already {
		t.Error("typed errors should pass through unchanged")
	}
}

func TestParseError_SnippetCaret(t *testing.T) {
	_, err := Compile("div\n  p(unclosed")
	if err == nil {
		t.Fatal("Compile succeeded, want error")
	}

	var perr *ParseError

	if !errors.As(err, &perr) {
		t.Fatalf("error = %T, want *ParseError", err)
	}

	msg := perr.Error()

	if !strings.Contains(msg, "line 2") {
		t.Errorf("missing position in %q", msg)
	}

	if !strings.Contains(msg, "2 | ") {
		t.Errorf("missing numbered source line in %q", msg)
	}

	caret := strings.Index(msg, "^")
	if caret < 0 {
		t.Fatalf("missing caret in %q", msg)
	}
}

func TestParseError_SnippetOmittedWithoutSource(t *testing.T) {
	perr := &ParseError{Msg: "broken", Line: 3, Column: 1}

	msg := perr.Error()
	if msg != "broken at line 3, column 1" {
		t.Errorf("Error() = %q", msg)
	}
}

func TestFormatSnippet(t *testing.T) {
	got := formatSnippet("one\ntwo\nthree", 2, 3)

	want := "  2 | two\n        ^\n"
	if got != want {
		t.Errorf("snippet = %q, want %q", got, want)
	}

	if formatSnippet("one", 5, 1) != "" {
		t.Error("out-of-range line should yield no snippet")
	}
}
