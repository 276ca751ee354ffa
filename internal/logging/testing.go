package logging

import (
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry for assertions.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

// NewTestLogger returns a logger that records entries at TraceLevel and up.
func NewTestLogger() *TestLogger {
	core, logs := observer.New(TraceLevel)
	return &TestLogger{
		Logger: &Logger{zap: zap.New(core), level: zap.NewAtomicLevelAt(TraceLevel)},
		logs:   logs,
	}
}

// Entries returns recorded entries whose message contains msg.
func (t *TestLogger) Entries(msg string) []observer.LoggedEntry {
	return t.logs.FilterMessageSnippet(msg).All()
}

// Reset discards recorded entries.
func (t *TestLogger) Reset() {
	t.logs.TakeAll()
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if !slices.ContainsFunc(t.Entries(msg), func(e observer.LoggedEntry) bool { return e.Level == level }) {
		tb.Errorf("no %s entry containing %q; recorded: %v", level, msg, t.messages())
	}
}

// AssertNotLogged fails tb if any entry at level contains msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if slices.ContainsFunc(t.Entries(msg), func(e observer.LoggedEntry) bool { return e.Level == level }) {
		tb.Errorf("unexpected %s entry containing %q", level, msg)
	}
}

// AssertField fails tb unless an entry containing msg has field key equal to
// want. Integers compare by value regardless of width.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want any) {
	tb.Helper()
	for _, e := range t.Entries(msg) {
		got, ok := e.ContextMap()[key]
		if !ok {
			continue
		}
		if got == want {
			return
		}
		if w, ok := want.(int); ok && got == int64(w) {
			return
		}
	}
	tb.Errorf("no entry containing %q has %s=%v", msg, key, want)
}

func (t *TestLogger) messages() []string {
	var out []string
	for _, e := range t.logs.All() {
		out = append(out, e.Level.String()+": "+e.Message)
	}
	return out
}
