package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/hive/internal/llm"
	"github.com/ShayCichocki/hive/pkg/models"
)

func unreachable() llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
		return "", &llm.TransportError{Provider: "ollama", Err: errors.New("connection refused")}
	})
}

func answering(answer string) llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
		return answer, nil
	})
}

func researchMapping(t *testing.T) *Mapping {
	t.Helper()
	m, err := ParseMapping([]byte("research: [paper, study]\ngeneric: []\n"))
	if err != nil {
		t.Fatalf("ParseMapping() error = %v", err)
	}
	return m
}

func TestClassify_UnreachableGatewayFallsBack(t *testing.T) {
	m := researchMapping(t)
	tests := []struct {
		content string
		want    string
	}{
		{"find me a recent study on X", "research"},
		{"what's the weather", "generic"},
		{"Summarize this PAPER", "research"},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			if got := Classify(context.Background(), unreachable(), tt.content, m); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestClassify_ModelAnswer(t *testing.T) {
	m := NewMapping(
		Category{Name: "research", Keywords: []string{"study"}},
		Category{Name: "summarize", Keywords: []string{"summary"}},
		Category{Name: "generic"},
	)
	tests := []struct {
		name    string
		answer  string
		content string
		want    string
	}{
		{"exact key", "summarize", "anything", "summarize"},
		{"normalized", "  Research\n", "anything", "research"},
		{"thinking stripped", "<think>\nit looks like a summary\n</think>\nsummarize", "x", "summarize"},
		{"unknown answer uses keywords", "poetry", "write a study", "research"},
		{"unknown answer without keywords", "poetry", "hello", models.TaskTypeGeneric},
		{"empty answer", "", "a summary please", "summarize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(context.Background(), answering(tt.answer), tt.content, m); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	m := NewMapping(
		Category{Name: "research", Keywords: []string{"paper", "study"}},
		Category{Name: "generic"},
	)
	got := BuildPrompt("find a paper", m)
	want := "Here is a list of task categories and their associated keywords:\n" +
		"- research: paper, study\n" +
		"- generic: \n" +
		"\nBased on the mapping above, classify the following task into one of the categories.\n" +
		"Return only the category name.\n" +
		"Task:\n" +
		"find a paper"
	if got != want {
		t.Errorf("BuildPrompt() =\n%s\nwant\n%s", got, want)
	}
}

func TestParseMapping_PreservesOrder(t *testing.T) {
	doc := `
summarize: [summary, tldr]
research:
  - paper
  - study
analysis: ~
generic: []
`
	m, err := ParseMapping([]byte(doc))
	if err != nil {
		t.Fatalf("ParseMapping() error = %v", err)
	}
	want := []string{"summarize", "research", "analysis", "generic"}
	got := m.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if kw := m.Keywords("research"); len(kw) != 2 || kw[1] != "study" {
		t.Errorf("Keywords(research) = %v", kw)
	}
	if kw := m.Keywords("analysis"); len(kw) != 0 {
		t.Errorf("Keywords(analysis) = %v, want empty", kw)
	}
	if m.Keywords("missing") != nil {
		t.Error("Keywords(missing) should be nil")
	}
}

func TestParseMapping_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"sequence at top", "- research\n- generic\n"},
		{"scalar at top", "research\n"},
		{"scalar value", "research: paper\n"},
		{"nested mapping value", "research:\n  kw: paper\n"},
		{"non-string keyword", "research: [paper, 42]\n"},
		{"null keyword", "research: [paper, ~]\n"},
		{"duplicate category", "research: [a]\nresearch: [b]\n"},
		{"invalid yaml", "research: [paper\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMapping([]byte(tt.doc))
			if !errors.Is(err, ErrMalformedMapping) {
				t.Errorf("ParseMapping() error = %v, want ErrMalformedMapping", err)
			}
		})
	}
}

func TestParseMapping_QuotedNumberIsString(t *testing.T) {
	m, err := ParseMapping([]byte(`finance: ["401k", "ira"]`))
	if err != nil {
		t.Fatalf("ParseMapping() error = %v", err)
	}
	if got := m.FindTypeFor("open a 401k"); got != "finance" {
		t.Errorf("FindTypeFor() = %q, want finance", got)
	}
}

func TestFindTypeFor(t *testing.T) {
	m := NewMapping(
		Category{Name: "summarize", Keywords: []string{"", "summary"}},
		Category{Name: "research", Keywords: []string{"study", "summary"}},
	)
	tests := []struct {
		content string
		want    string
	}{
		{"a study summary", "summarize"},
		{"a STUDY", "research"},
		{"nothing here", models.TaskTypeGeneric},
		{"", models.TaskTypeGeneric},
	}
	for _, tt := range tests {
		if got := m.FindTypeFor(tt.content); got != tt.want {
			t.Errorf("FindTypeFor(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestNewMapping_IgnoresLaterDuplicates(t *testing.T) {
	m := NewMapping(
		Category{Name: "a", Keywords: []string{"x"}},
		Category{Name: "a", Keywords: []string{"y"}},
	)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if kw := m.Keywords("a"); kw[0] != "x" {
		t.Errorf("Keywords(a) = %v, want [x]", kw)
	}
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")

	if _, err := LoadMapping(path); err == nil {
		t.Error("LoadMapping() on a missing file should fail")
	}

	writeFile(t, path, "research: [paper]\n")
	m, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping() error = %v", err)
	}
	if !m.Has("research") {
		t.Error("Has(research) = false, want true")
	}

	writeFile(t, path, "research: paper\n")
	if _, err := LoadMapping(path); !errors.Is(err, ErrMalformedMapping) {
		t.Errorf("LoadMapping() error = %v, want ErrMalformedMapping", err)
	}
}

func TestClassifier_UsesSource(t *testing.T) {
	src := NewStaticSource(researchMapping(t))
	c := New(unreachable(), src)
	if got := c.Classify(context.Background(), "read this paper"); got != "research" {
		t.Errorf("Classify() = %q, want research", got)
	}
	if c.Mapping() != src.Mapping() {
		t.Error("Mapping() should return the source mapping")
	}
}

func TestWatchMapping_InitialFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	writeFile(t, path, "- not a mapping\n")

	if _, err := WatchMapping(path, nil); !errors.Is(err, ErrMalformedMapping) {
		t.Errorf("WatchMapping() error = %v, want ErrMalformedMapping", err)
	}
}

func TestWatchMapping_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	writeFile(t, path, "research: [paper]\n")

	src, err := WatchMapping(path, nil)
	if err != nil {
		t.Fatalf("WatchMapping() error = %v", err)
	}
	defer src.Close()

	if got := src.Mapping().FindTypeFor("plot a chart"); got != models.TaskTypeGeneric {
		t.Fatalf("FindTypeFor() before reload = %q", got)
	}

	writeFile(t, path, "research: [paper]\nanalysis: [chart]\n")
	waitFor(t, func() bool { return src.Mapping().Has("analysis") })

	// A broken edit keeps the last good mapping.
	drain(src)
	writeFile(t, path, "analysis: chart\n")
	waitReload(t, src)
	if !src.Mapping().Has("analysis") || !src.Mapping().Has("research") {
		t.Errorf("Names() after bad reload = %v, want previous mapping", src.Mapping().Names())
	}
}

func TestWatchedSource_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	writeFile(t, path, "generic: []\n")

	src, err := WatchMapping(path, nil)
	if err != nil {
		t.Fatalf("WatchMapping() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func drain(src *WatchedSource) {
	for {
		select {
		case <-src.Reloaded():
		default:
			return
		}
	}
}

func waitReload(t *testing.T, src *WatchedSource) {
	t.Helper()
	select {
	case <-src.Reloaded():
	case <-time.After(5 * time.Second):
		t.Fatal("no reload before deadline")
	}
}
