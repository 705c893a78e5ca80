package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_WritesInteractionsFile(t *testing.T) {
	dir := t.TempDir()
	f, err := New(Options{Dir: dir, Level: "info"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f.Logger().Info("task received", zap.String("task", "What is AGI?"))
	f.Logger().Debug("hidden")
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, InteractionsFile))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"task received"`) || !strings.Contains(text, `"task":"What is AGI?"`) {
		t.Errorf("interactions.log missing entry:\n%s", text)
	}
	if strings.Contains(text, "hidden") {
		t.Error("debug entry written at info level")
	}
}

func TestForAgent_TeesToAgentFile(t *testing.T) {
	dir := t.TempDir()
	f, err := New(Options{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l := f.ForAgent("researcher")
	if f.ForAgent("researcher") != l {
		t.Error("ForAgent should cache per agent")
	}
	l.Info("thinking")
	f.Close()

	agentLog, err := os.ReadFile(filepath.Join(dir, "researcher.log"))
	if err != nil {
		t.Fatalf("read agent log: %v", err)
	}
	if !strings.Contains(string(agentLog), `"logger":"researcher"`) {
		t.Errorf("agent log missing named entry:\n%s", agentLog)
	}
	shared, _ := os.ReadFile(filepath.Join(dir, InteractionsFile))
	if !strings.Contains(string(shared), "thinking") {
		t.Error("agent entry should also reach interactions.log")
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	f, err := New(Options{Console: true, ConsoleWriter: &buf, Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.Named("queen").Debug("split task", zap.Int("subtasks", 4))

	out := buf.String()
	if !strings.Contains(out, "queen") || !strings.Contains(out, "split task") {
		t.Errorf("console output = %q", out)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	f := Nop()
	f.ForAgent("x").Info("dropped")
	if err := f.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
