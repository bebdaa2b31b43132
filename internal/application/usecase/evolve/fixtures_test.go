package evolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/evolve/internal/app"
	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
	appservice "github.com/YoshitsuguKoike/evolve/internal/application/service"
	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
	"github.com/YoshitsuguKoike/evolve/internal/domain/service"
	"github.com/YoshitsuguKoike/evolve/internal/infra/persistence/file"
)

// bodyExecutor fails while the file on disk contains "bug"
type bodyExecutor struct {
	fs    afero.Fs
	calls int
}

func (e *bodyExecutor) Execute(ctx context.Context, target script.Target, number int) (*script.Attempt, error) {
	e.calls++
	data, err := afero.ReadFile(e.fs, target.Path())
	if err != nil {
		return nil, err
	}
	attempt := &script.Attempt{ID: script.NewAttemptID(), Number: number, StartedAt: time.Now()}
	if strings.Contains(string(data), "bug") {
		attempt.ExitCode = 1
		attempt.Output = fmt.Sprintf("Traceback: error on run %d\r\n", number)
	} else {
		attempt.Output = "done\r\n"
	}
	return attempt, nil
}

// directiveSpawner refuses to start a file whose directive names a missing
// interpreter, the way exec does, and otherwise runs it cleanly.
type directiveSpawner struct {
	fs afero.Fs
}

func (s directiveSpawner) Spawn(ctx context.Context, inv output.Invocation) (output.ProcessSession, error) {
	data, err := afero.ReadFile(s.fs, inv.Argv[0])
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(string(data), "#!/no/such/") {
		return nil, &fs.PathError{Op: "fork/exec", Path: inv.Argv[0], Err: syscall.ENOENT}
	}
	out := make(chan []byte, 1)
	out <- []byte("done\r\n")
	close(out)
	return doneSession{out: out}, nil
}

type doneSession struct {
	out chan []byte
}

func (s doneSession) Output() <-chan []byte { return s.out }
func (s doneSession) Wait() (int, error)    { return 0, nil }
func (s doneSession) Close() error          { return nil }

type stubResponse struct {
	body string
	err  error
}

// stubGateway replays responses in order and repeats the last one
type stubGateway struct {
	mu        sync.Mutex
	responses []stubResponse
	requests  []output.RepairRequest
}

func (g *stubGateway) Repair(ctx context.Context, req output.RepairRequest) (*output.RepairResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	idx := len(g.requests) - 1
	if idx >= len(g.responses) {
		idx = len(g.responses) - 1
	}
	r := g.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &output.RepairResponse{Body: r.body, StatusCode: 200}, nil
}

func (g *stubGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type memJournal struct {
	entries []output.JournalEntry
}

func (j *memJournal) Append(e output.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

var errServer = fmt.Errorf("%w: status 500", script.ErrRepairUnavailable)

type harness struct {
	fs         afero.Fs
	executor   *bodyExecutor
	gateway    *stubGateway
	journal    *memJournal
	sleeps     []time.Duration
	useCase    *RunScriptUseCase
	normalizer ScriptNormalizer
	classifier service.FailureClassifier
	repairer   *RepairCoordinator
}

func newHarness(t *testing.T, body string, responses ...stubResponse) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/w/app.py", []byte(body), 0o755))

	h := &harness{
		fs:       fs,
		executor: &bodyExecutor{fs: fs},
		gateway:  &stubGateway{responses: responses},
		journal:  &memJournal{},
	}
	store := file.NewScriptStore(fs)
	resolver := appservice.NewContentTypeResolver(appservice.WithLookPath(func(name string) (string, error) {
		if name == "python3" {
			return "/usr/bin/python3", nil
		}
		return "", errors.New("not found")
	}))
	classifier, err := service.NewPatternClassifier(service.DefaultErrorPatterns, false)
	require.NoError(t, err)
	h.normalizer = appservice.NewShebangNormalizer(resolver, store)
	h.classifier = classifier
	h.repairer = NewRepairCoordinator(h.gateway, store, app.NopLogger{})
	h.useExecutor(h.executor)
	return h
}

// useExecutor rebuilds the loop around executor
func (h *harness) useExecutor(executor AttemptExecutor) {
	h.useCase = NewRunScriptUseCase(
		h.normalizer,
		executor,
		h.classifier,
		h.repairer,
		h.journal,
		app.NopLogger{},
	).WithSleep(func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	})
}

func (h *harness) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(h.fs, path)
	require.NoError(t, err)
	return string(data)
}
