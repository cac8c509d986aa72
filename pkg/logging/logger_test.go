package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var e LogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestLevelString(t *testing.T) {
	for level, want := range map[Level]string{
		DebugLevel: "DEBUG",
		InfoLevel:  "INFO",
		WarnLevel:  "WARN",
		ErrorLevel: "ERROR",
		Level(9):   "UNKNOWN",
		Level(-1):  "UNKNOWN",
	} {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"Debug", DebugLevel},
		{" INFO ", InfoLevel},
		{"warning", WarnLevel},
		{"WARN", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"loud", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("layout", "cose"), "layout", "cose"},
		{"Int", Int("attached", 3), "attached", 3},
		{"Int64", Int64("generation", 7), "generation", int64(7)},
		{"Float64", Float64("temperature", 0.5), "temperature", 0.5},
		{"Bool", Bool("layout", true), "layout", true},
		{"Duration", Duration("interval", 30*time.Second), "interval", "30s"},
		{"Error", Error(errors.New("boom")), "error", "boom"},
		{"ErrorNil", Error(nil), "error", nil},
		{"Component", Component("reconcile"), "component", "reconcile"},
		{"ElementID", ElementID("Qiitun-Vietis"), "element_id", "Qiitun-Vietis"},
		{"Kind", Kind("edge"), "kind", "edge"},
		{"Pass", Pass("p-1"), "pass", "p-1"},
		{"Operation", Operation("remove"), "operation", "remove"},
		{"Latency", Latency(time.Millisecond), "latency", "1ms"},
		{"Count", Count(2), "count", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("got %+v, want {%s %v}", tt.field, tt.key, tt.value)
			}
		})
	}

	f := Strings("edge_ids", []string{"AB", "BA"})
	if ids, ok := f.Value.([]string); f.Key != "edge_ids" || !ok || len(ids) != 2 {
		t.Errorf("Strings() = %+v", f)
	}
}

func TestJSONLoggerWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Debug("d", ElementID("A"))
	logger.Info("i")
	logger.Warn("w", Count(2))
	logger.Error("e", Error(errors.New("boom")))

	entries := decodeLines(t, &buf)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	wantLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level = %s, want %s", i, e.Level, wantLevels[i])
		}
		if _, err := time.Parse(time.RFC3339Nano, e.Time); err != nil {
			t.Errorf("entry %d time %q: %v", i, e.Time, err)
		}
	}
	if entries[0].Fields["element_id"] != "A" {
		t.Errorf("missing element_id: %v", entries[0].Fields)
	}
	if entries[1].Fields != nil {
		t.Errorf("entry without fields should omit them, got %v", entries[1].Fields)
	}
	if strings.Contains(buf.String(), `"fields":{}`) {
		t.Error("empty fields object written")
	}
	if entries[3].Fields["error"] != "boom" {
		t.Errorf("error field = %v", entries[3].Fields["error"])
	}
}

func TestJSONLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0].Message != "shown" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestJSONLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(Component("mapview"), String("view_id", "v1"))
	grandchild := child.With(Pass("p1"), String("view_id", "v2"))

	grandchild.Info("reconcile pass", String("view_id", "v3"))
	parent.Info("plain")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	f := entries[0].Fields
	if f["component"] != "mapview" || f["pass"] != "p1" {
		t.Errorf("inherited fields missing: %v", f)
	}
	if f["view_id"] != "v3" {
		t.Errorf("call-site field should win, got %v", f["view_id"])
	}
	if entries[1].Fields != nil {
		t.Errorf("parent picked up child fields: %v", entries[1].Fields)
	}
}

func TestChildSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(Component("feed"))

	child.SetLevel(ErrorLevel)
	if parent.GetLevel() != ErrorLevel {
		t.Errorf("parent level = %v, want ERROR", parent.GetLevel())
	}

	parent.Warn("dropped")
	child.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestConcurrentWritesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l := logger.With(Int("worker", i))
			for j := 0; j < 25; j++ {
				l.Info("tick", Int("n", j))
			}
		}(i)
	}
	wg.Wait()

	if n := len(decodeLines(t, &buf)); n != 500 {
		t.Errorf("expected 500 entries, got %d", n)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zonemap.log")

	logger, closer, err := NewFileLogger(path, InfoLevel)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Info("first")
	closer.Close()

	logger, closer, err = NewFileLogger(path, InfoLevel)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	logger.Info("second")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	entries := decodeLines(t, bytes.NewBuffer(data))
	if len(entries) != 2 || entries[1].Message != "second" {
		t.Errorf("expected appended entries, got %+v", entries)
	}

	if _, _, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.log"), InfoLevel); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDefaultLogger(t *testing.T) {
	prev := DefaultLogger()
	t.Cleanup(func() { SetDefaultLogger(prev) })

	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, InfoLevel))
	DefaultLogger().Info("via default")

	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("default logger not replaced: %q", buf.String())
	}
}

func TestTimedOperationEnd(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	timer := StartTimer(logger, "reconcile pass", Pass("p1"))
	time.Sleep(2 * time.Millisecond)
	if timer.Elapsed() < 2*time.Millisecond {
		t.Errorf("Elapsed = %v", timer.Elapsed())
	}
	timer.End(Int("attached", 3))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != "DEBUG" || e.Message != "reconcile pass" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Fields["pass"] != "p1" || e.Fields["attached"] != float64(3) {
		t.Errorf("fields = %v", e.Fields)
	}
	if _, ok := e.Fields["latency"]; !ok {
		t.Error("latency missing")
	}
}

func TestTimedOperationQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	StartTimer(NewJSONLogger(&buf, InfoLevel), "reconcile pass").End()
	if buf.Len() != 0 {
		t.Errorf("timing line leaked at INFO: %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	var l Logger = NewNopLogger()
	l.Info("x")
	l.With(Component("c")).Error("y")
	l.SetLevel(ErrorLevel)
	if l.GetLevel() != InfoLevel {
		t.Errorf("NopLogger level = %v", l.GetLevel())
	}
}
