package log

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Level
	}{
		{"trace", "trace", LevelTrace},
		{"trace uppercase", "TRACE", LevelTrace},
		{"debug", "debug", LevelDebug},
		{"info", "info", LevelInfo},
		{"warn", "warn", LevelWarn},
		{"error", "error", LevelError},
		{"offset", "warn+2", Level(6)},
		{"invalid falls back", "verbose", DefaultLevel},
		{"empty falls back", "", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelTrace, "trace"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(2), "INFO+2"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestLevels_YieldsAllInOrder(t *testing.T) {
	got := slices.Collect(Levels())

	expected := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Equal(got, expected) {
		t.Errorf("Levels() = %v, want %v", got, expected)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{" JSON ", FormatJSON},
		{"text", FormatText},
		{"unknown", DefaultFormat},
		{"", DefaultFormat},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.expected {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestFormats_YieldsAllInOrder(t *testing.T) {
	got := slices.Collect(Formats())

	expected := []string{"text", "json"}
	if !slices.Equal(got, expected) {
		t.Errorf("Formats() = %v, want %v", got, expected)
	}
}

func TestConfig_Options_SetFields(t *testing.T) {
	c := config{}

	c = WithLevel(LevelError)(c)
	if c.level != LevelError {
		t.Errorf("expected level Error, got %v", c.level)
	}

	c = WithFormat(FormatJSON)(c)
	if c.format != FormatJSON {
		t.Errorf("expected format JSON, got %v", c.format)
	}

	c = WithCaller(true)(c)
	if !c.caller {
		t.Error("expected caller enabled")
	}

	c = WithPretty(false)(c)
	if c.pretty {
		t.Error("expected pretty disabled")
	}
}

func TestMakeFormatTimeFunc(t *testing.T) {
	ref := time.Date(2024, time.March, 5, 13, 45, 30, 0, time.UTC)

	tests := []struct {
		name     string
		layout   string
		expected string
	}{
		{"named rfc3339", "RFC3339", "2024-03-05T13:45:30Z"},
		{"named alias", "ms", ref.Format(time.StampMilli)},
		{"empty disables", "", ""},
		{"none disables", "none", ""},
		{"custom verbatim", "2006/01/02", "2024/03/05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := makeFormatTimeFunc(tt.layout)(ref); got != tt.expected {
				t.Errorf("format = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLevel_StringRoundTrip(t *testing.T) {
	for name := range Levels() {
		if got := ParseLevel(name).String(); got != name {
			t.Errorf("ParseLevel(%q).String() = %q", name, got)
		}
	}
}

func TestFormat_StringContainsNoUppercase(t *testing.T) {
	for name := range Formats() {
		if name != strings.ToLower(name) {
			t.Errorf("format name %q is not lowercase", name)
		}
	}
}
