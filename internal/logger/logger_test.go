package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"DEBUG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"Warn", LevelWarn, true},
		{"ERROR", LevelError, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseLevel(%q) ok = %v, want %v", tt.input, ok, tt.ok)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevelRoundTripsString(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		parsed, ok := ParseLevel(level.String())
		if !ok || parsed != level {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, true", level.String(), parsed, ok, level)
		}
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel(LevelInfo.String())

	SetLevel("ERROR")
	if got := log.GetLevel(); got != zerolog.ErrorLevel {
		t.Errorf("after SetLevel(ERROR), level = %v, want %v", got, zerolog.ErrorLevel)
	}

	// Unknown names leave the level untouched.
	SetLevel("chatty")
	if got := log.GetLevel(); got != zerolog.ErrorLevel {
		t.Errorf("after SetLevel(chatty), level = %v, want %v", got, zerolog.ErrorLevel)
	}

	SetLevel("debug")
	if got := log.GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("after SetLevel(debug), level = %v, want %v", got, zerolog.DebugLevel)
	}
}
