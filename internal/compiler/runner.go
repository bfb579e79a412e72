package compiler

import (
	"bytes"
	"context"
	osexec "os/exec"
	"strings"
	"sync"
)

// Runner executes external commands. Inject it instead of calling
// exec.Command directly so the compiler can be faked in tests.
type Runner interface {
	// RunSeparate executes a command and returns stdout and stderr separately.
	RunSeparate(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
	// WorkDir is the directory commands run in ("" = inherit).
	WorkDir() string
}

// OSRunner implements Runner using os/exec.
type OSRunner struct {
	// Dir is the working directory ("" = inherit).
	Dir string
	// Env overrides environment variables (nil = inherit from parent).
	Env []string
}

// NewOSRunner creates a runner that executes in dir.
func NewOSRunner(dir string) *OSRunner {
	return &OSRunner{Dir: dir}
}

// WorkDir returns r.Dir.
func (r *OSRunner) WorkDir() string {
	return r.Dir
}

// RunSeparate executes and returns stdout and stderr separately.
func (r *OSRunner) RunSeparate(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// MockRunner implements Runner for testing.
type MockRunner struct {
	mu sync.Mutex

	// Dir is reported as the working directory.
	Dir string

	// Calls records all command invocations
	Calls []MockCall

	// Responses maps a command name to its response
	Responses map[string]MockResponse

	// OnRun, when set, runs before the response is returned. Tests use it
	// to write output files the way a real compiler would.
	OnRun func(call MockCall)
}

// MockCall records a single command invocation.
type MockCall struct {
	Name string
	Args []string
}

// CommandLine returns the call as a single space-separated string.
func (c MockCall) CommandLine() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockResponse defines the response for a mocked command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Responses: make(map[string]MockResponse),
	}
}

// AddResponse sets the response for a command name.
func (m *MockRunner) AddResponse(name string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[name] = resp
}

func (m *MockRunner) WorkDir() string {
	return m.Dir
}

func (m *MockRunner) RunSeparate(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	call := MockCall{Name: name, Args: args}

	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	resp := m.Responses[name]
	onRun := m.OnRun
	m.mu.Unlock()

	if onRun != nil {
		onRun(call)
	}
	return resp.Stdout, resp.Stderr, resp.Err
}
