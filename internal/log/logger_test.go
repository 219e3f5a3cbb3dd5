package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})
	l.Info("hello", FieldAccountID, "acc-1")

	out := buf.String()
	if !strings.Contains(out, `"component":"ledger"`) {
		t.Fatalf("missing component in %s", out)
	}
	if !strings.Contains(out, `"account_id":"acc-1"`) {
		t.Fatalf("missing field in %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentForecast).Warn("again")
	if !strings.Contains(buf.String(), `"component":"forecast"`) {
		t.Fatalf("WithComponent not applied: %s", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("component = %q, want unknown", l.Component())
	}
	l := New(DefaultConfig())
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("logger not carried by context")
	}
}
