package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandler_Handle(t *testing.T) {
	var out strings.Builder

	h := newPrettyHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "hello pretty", 0)
	r.AddAttrs(slog.String("key", "value"), slog.Int("n", 7))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	line := out.String()

	for _, want := range []string{"hello pretty", "key", "value", "7", "info"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in output: %s", want, line)
		}
	}

	if !strings.HasSuffix(line, "\n") {
		t.Error("output lines must end with a newline")
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	var out strings.Builder

	h := newPrettyHandler(&out, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn")
	}

	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn")
	}
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var out strings.Builder

	base := newPrettyHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo})
	child := base.WithAttrs([]slog.Attr{slog.String("component", "render")})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "attributed", 0)

	if err := child.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if !strings.Contains(out.String(), "component") {
		t.Errorf("missing inherited attribute in output: %s", out.String())
	}

	out.Reset()

	if err := base.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if strings.Contains(out.String(), "component") {
		t.Errorf("parent handler gained the child's attribute: %s", out.String())
	}
}
