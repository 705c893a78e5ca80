package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ShayCichocki/hive/internal/llm"
	"github.com/ShayCichocki/hive/internal/memory"
	"github.com/ShayCichocki/hive/pkg/models"
)

// echo answers every prompt with "re: <prompt>".
var echo = llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
	return "re: " + prompt, nil
})

var errDown = &llm.TransportError{Provider: "ollama", StatusCode: 503, Err: errors.New("unavailable")}

func failing() llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
		return "", errDown
	})
}

type brokenStore struct{}

func (brokenStore) Load(string) ([]models.ConversationEntry, error) { return nil, nil }

func (brokenStore) Save(string, []models.ConversationEntry) error {
	return errors.New("disk full")
}

func TestReceiveTask(t *testing.T) {
	tests := []struct {
		name      string
		busy      bool
		requested string
		want      models.Admission
	}{
		{"matching type", false, "research", models.Accepted},
		{"other type", false, "summarize", models.Rejected},
		{"empty type", false, "", models.Accepted},
		{"busy matching type", true, "research", models.Rejected},
		{"busy empty type", true, "", models.Rejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New("researcher", echo, WithTaskType("research"))
			a.busy = tt.busy
			if got := a.ReceiveTask(tt.requested); got != tt.want {
				t.Errorf("ReceiveTask(%q) = %s, want %s", tt.requested, got, tt.want)
			}
			if a.Busy() != tt.busy {
				t.Error("ReceiveTask must not change the busy flag")
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	a := New("worker", echo)
	if a.TaskType() != models.TaskTypeGeneric {
		t.Errorf("TaskType() = %q, want generic", a.TaskType())
	}
	if a.Caste() != models.CasteMinor {
		t.Errorf("Caste() = %q, want minor", a.Caste())
	}
	if a.ID() == "" {
		t.Error("ID() is empty")
	}
	if a.Busy() {
		t.Error("new agent is busy")
	}
	if len(a.Log()) != 0 {
		t.Errorf("Log() = %v, want empty", a.Log())
	}
}

func TestAccept_Success(t *testing.T) {
	store := memory.NewMemStore()
	a := New("researcher", echo, WithTaskType("research"), WithStore(store))
	task := models.NewTypedTask("find papers", "research")

	got, err := a.Accept(context.Background(), task)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if got != "re: find papers" {
		t.Errorf("Accept() = %q", got)
	}
	if task.Status() != models.TaskStatusCompleted {
		t.Errorf("Status() = %s, want completed", task.Status())
	}
	if task.AssignedTo() != "researcher" {
		t.Errorf("AssignedTo() = %q, want researcher", task.AssignedTo())
	}
	if task.Result() != got {
		t.Errorf("Result() = %q, want %q", task.Result(), got)
	}
	if a.Busy() {
		t.Error("agent still busy after Accept")
	}

	stored, _ := store.Load("researcher")
	want := []models.ConversationEntry{{Task: "find papers", Response: "re: find papers"}}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Errorf("stored log mismatch (-want +got):\n%s", diff)
	}
}

func TestAccept_RejectedHasNoSideEffects(t *testing.T) {
	called := false
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
		called = true
		return "x", nil
	})
	a := New("researcher", gen, WithTaskType("research"))
	task := models.NewTypedTask("summarize this", "summarize")

	_, err := a.Accept(context.Background(), task)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Accept() error = %v, want ErrRejected", err)
	}
	if called {
		t.Error("generator called for a rejected task")
	}
	if task.Status() != models.TaskStatusPending {
		t.Errorf("Status() = %s, want pending", task.Status())
	}
	if len(a.Log()) != 0 {
		t.Error("rejected task was logged")
	}
}

func TestExecute_IgnoresType(t *testing.T) {
	a := New("helper", echo)
	got, err := a.Execute(context.Background(), models.NewTypedTask("anything", "analysis"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "re: anything" {
		t.Errorf("Execute() = %q", got)
	}
}

func TestExecute_Busy(t *testing.T) {
	a := New("helper", echo)
	a.busy = true
	if _, err := a.Execute(context.Background(), models.NewTask("x")); !errors.Is(err, ErrBusy) {
		t.Errorf("Execute() error = %v, want ErrBusy", err)
	}
	if !a.Busy() {
		t.Error("Execute on a busy agent must not clear the flag")
	}
}

func TestExecute_ReleasesBusyOnFailure(t *testing.T) {
	a := New("helper", failing())
	task := models.NewTask("x")

	_, err := a.Execute(context.Background(), task)
	if !errors.Is(err, errDown) {
		t.Fatalf("Execute() error = %v, want transport error", err)
	}
	if !llm.IsTransportError(err) {
		t.Error("IsTransportError() = false")
	}
	if a.Busy() {
		t.Error("agent still busy after a failed execution")
	}
	if task.Status() != models.TaskStatusFailed {
		t.Errorf("Status() = %s, want failed", task.Status())
	}
	if task.Result() == "" {
		t.Error("failed task has no result")
	}
	if len(a.Log()) != 0 {
		t.Error("failed execution was logged")
	}
}

func TestExecute_TerminalTask(t *testing.T) {
	a := New("helper", echo)
	task := models.NewTask("x")
	if _, err := a.Execute(context.Background(), task); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if _, err := a.Execute(context.Background(), task); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("second Execute() error = %v, want ErrInvalidTransition", err)
	}
	if a.Busy() {
		t.Error("agent still busy")
	}
}

func TestExecute_StripsThinking(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
		return "<think>\nlet me see\n</think>\n\nForty-two.", nil
	})
	a := New("helper", gen)
	got, err := a.Think(context.Background(), "meaning of life?")
	if err != nil {
		t.Fatalf("Think() error = %v", err)
	}
	if got != "Forty-two." {
		t.Errorf("Think() = %q, want %q", got, "Forty-two.")
	}
	if log := a.Log(); log[0].Response != "Forty-two." {
		t.Errorf("logged response = %q", log[0].Response)
	}
}

func TestExecute_DifficultySuffix(t *testing.T) {
	var gotSystem string
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
		gotSystem = system
		return "ok", nil
	})
	a := New("helper", gen,
		WithSystemPrompt("Be brief."),
		WithDifficultySuffix(models.DifficultyHard, "Think step by step."),
	)

	tests := []struct {
		difficulty models.Difficulty
		want       string
	}{
		{models.DifficultyNone, "Be brief."},
		{models.DifficultyEasy, "Be brief."},
		{models.DifficultyHard, "Be brief.\n\nThink step by step."},
	}
	for _, tt := range tests {
		task := models.NewTask("q")
		task.SetDifficulty(tt.difficulty)
		if _, err := a.Execute(context.Background(), task); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if gotSystem != tt.want {
			t.Errorf("difficulty %q: system = %q, want %q", tt.difficulty, gotSystem, tt.want)
		}
	}
}

func TestExecute_PersistenceFailureKeepsResponse(t *testing.T) {
	a := New("helper", echo, WithStore(brokenStore{}))
	got, err := a.Think(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Think() error = %v", err)
	}
	if got != "re: hello" {
		t.Errorf("Think() = %q", got)
	}
	if len(a.Log()) != 1 {
		t.Errorf("len(Log()) = %d, want 1", len(a.Log()))
	}
}

// countingStore records how often Save is called.
type countingStore struct {
	mu    sync.Mutex
	saves int
}

func (s *countingStore) Load(string) ([]models.ConversationEntry, error) { return nil, nil }

func (s *countingStore) Save(string, []models.ConversationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

func TestExecute_PersistenceFollowsCasteMemory(t *testing.T) {
	tests := []struct {
		caste     models.Caste
		wantSaves int
	}{
		{models.CasteMinor, 1},
		{models.CasteMajor, 1},
		{models.CasteScribe, 0},
		{models.CasteLarva, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.caste), func(t *testing.T) {
			store := &countingStore{}
			a := New("w", echo, WithCaste(tt.caste), WithStore(store))
			if _, err := a.Think(context.Background(), "hello"); err != nil {
				t.Fatalf("Think() error = %v", err)
			}
			if store.saves != tt.wantSaves {
				t.Errorf("saves = %d, want %d", store.saves, tt.wantSaves)
			}
			if len(a.Log()) != 1 {
				t.Errorf("len(Log()) = %d, want 1", len(a.Log()))
			}
		})
	}
}

func TestAccept_ConcurrentAdmitsOne(t *testing.T) {
	const callers = 10
	release := make(chan struct{})
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt, system string) (string, error) {
		<-release
		return "done", nil
	})
	a := New("researcher", gen, WithTaskType("research"))

	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Accept(context.Background(), models.NewTypedTask("t", "research"))
			results <- err
		}()
	}

	// Everyone but the admitted caller returns before release.
	for i := 0; i < callers-1; i++ {
		if err := <-results; !errors.Is(err, ErrRejected) {
			t.Errorf("caller error = %v, want ErrRejected", err)
		}
	}
	close(release)
	wg.Wait()
	if err := <-results; err != nil {
		t.Errorf("admitted caller error = %v", err)
	}
	if len(a.Log()) != 1 {
		t.Errorf("len(Log()) = %d, want 1", len(a.Log()))
	}
}

func TestLog_RoundTrip(t *testing.T) {
	store := memory.NewJSONStore(t.TempDir())
	f := NewFactory(echo, store)

	a, err := f.Build("scribe", Overrides{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, q := range []string{"first", "second"} {
		if _, err := a.Think(context.Background(), q); err != nil {
			t.Fatalf("Think(%q) error = %v", q, err)
		}
	}

	reloaded, err := f.Build("scribe", Overrides{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if diff := cmp.Diff(a.Log(), reloaded.Log()); diff != "" {
		t.Errorf("reloaded log mismatch (-want +got):\n%s", diff)
	}
}

func TestLog_ReturnsCopy(t *testing.T) {
	a := New("helper", echo, WithLog([]models.ConversationEntry{{Task: "a", Response: "b"}}))
	log := a.Log()
	log[0].Response = "changed"
	if a.Log()[0].Response != "b" {
		t.Error("Log() exposed internal state")
	}
}

func TestCanCommunicateWith(t *testing.T) {
	queen := New("queen", echo, WithCaste(models.CasteQueen))
	major := New("major", echo, WithCaste(models.CasteMajor))
	minor := New("minor", echo, WithCaste(models.CasteMinor))

	tests := []struct {
		from, to *Agent
		want     bool
	}{
		{queen, minor, true},
		{major, minor, true},
		{minor, major, false},
		{minor, queen, false},
		{minor, minor, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanCommunicateWith(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from.Name(), tt.to.Name(), got, tt.want)
		}
	}
}

func TestInfo(t *testing.T) {
	a := New("analyst", echo, WithRole("data analyst"), WithTaskType("analysis"), WithCaste(models.CasteMajor))
	if _, err := a.Think(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	want := Info{Name: "analyst", Role: "data analyst", TaskType: "analysis", Caste: models.CasteMajor, Entries: 1}
	if diff := cmp.Diff(want, a.Info()); diff != "" {
		t.Errorf("Info() mismatch (-want +got):\n%s", diff)
	}
}
