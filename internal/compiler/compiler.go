// Package compiler runs the external FPP compiler and analyzer processes and
// turns their failures into domain errors.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fpp-modeler/backend/internal/config"
	"github.com/fpp-modeler/backend/internal/models"
)

// ErrUnknownAnalyzer is returned when no analyzer with the requested name is
// configured.
var ErrUnknownAnalyzer = errors.New("unknown analyzer")

// Analysis is the output of one analyzer run.
type Analysis struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Output string `json:"output"`
	// OutputFile is set when the analyzer wrote its result to a file.
	OutputFile string `json:"outputFile,omitempty"`
}

// Invoker runs the configured compiler and analyzers.
type Invoker struct {
	cfg     config.ModelConfig
	runner  Runner
	timeout time.Duration
	logger  *slog.Logger
}

// NewInvoker creates an invoker. A zero timeout means no deadline.
func NewInvoker(cfg config.ModelConfig, runner Runner, timeout time.Duration, logger *slog.Logger) *Invoker {
	return &Invoker{
		cfg:     cfg,
		runner:  runner,
		timeout: timeout,
		logger:  logger.With("component", "compiler"),
	}
}

// Compile runs the compiler and returns the XML it produced. The output is
// read from FPPCompilerOutputPath when configured, otherwise from stdout.
func (i *Invoker) Compile(ctx context.Context) ([]byte, error) {
	if i.cfg.FPPCompilerPath == "" {
		return nil, &models.ExternalProcessError{Name: "compiler", Err: errors.New("no compiler configured")}
	}

	args, unmatched, err := ExpandArgs(i.cfg.FPPCompilerParameters, i.runner.WorkDir())
	if err != nil {
		return nil, &models.ExternalProcessError{Name: "compiler", Err: err}
	}
	for _, pattern := range unmatched {
		i.logger.Warn("compiler parameter matched no files", "pattern", pattern, "dir", i.runner.WorkDir())
	}

	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	i.logger.Info("running compiler", "path", i.cfg.FPPCompilerPath, "args", len(args))

	stdout, stderr, err := i.runner.RunSeparate(ctx, i.cfg.FPPCompilerPath, args...)
	if err != nil {
		i.logger.Error("compiler failed", "error", err, "stderr", strings.TrimSpace(string(stderr)))
		return nil, &models.ExternalProcessError{Name: "compiler", Stderr: string(stderr), Err: err}
	}
	i.logger.Debug("compiler finished", "duration", time.Since(start))

	if i.cfg.FPPCompilerOutputPath == "" {
		return stdout, nil
	}
	data, err := os.ReadFile(i.cfg.FPPCompilerOutputPath)
	if err != nil {
		return nil, &models.ExternalProcessError{
			Name:   "compiler",
			Stderr: string(stderr),
			Err:    fmt.Errorf("reading compiler output: %w", err),
		}
	}
	return data, nil
}

// Analyze runs the named analyzer against the compiler output file.
func (i *Invoker) Analyze(ctx context.Context, name string) (*Analysis, error) {
	a, ok := i.cfg.Analyzer(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnalyzer, name)
	}

	var args []string
	if i.cfg.FPPCompilerOutputPath != "" {
		args = append(args, i.cfg.FPPCompilerOutputPath)
	}
	if a.OutputFilePath != "" {
		args = append(args, a.OutputFilePath)
	}

	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	i.logger.Info("running analyzer", "name", a.Name, "path", a.Path)
	stdout, stderr, err := i.runner.RunSeparate(ctx, a.Path, args...)
	if err != nil {
		i.logger.Error("analyzer failed", "name", a.Name, "error", err)
		return nil, &models.ExternalProcessError{Name: "analyzer " + a.Name, Stderr: string(stderr), Err: err}
	}

	result := &Analysis{Name: a.Name, Type: a.Type, Output: string(stdout)}
	if a.OutputFilePath != "" {
		data, err := os.ReadFile(a.OutputFilePath)
		if err != nil {
			return nil, &models.ExternalProcessError{
				Name: "analyzer " + a.Name,
				Err:  fmt.Errorf("reading analyzer output: %w", err),
			}
		}
		result.Output = string(data)
		result.OutputFile = a.OutputFilePath
	}
	return result, nil
}

func (i *Invoker) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, i.timeout)
}

// ExpandArgs splits the compiler parameter string on whitespace and expands
// every glob field (doublestar syntax, so "**" matches across directories).
// Relative globs are matched under dir, the directory the compiler runs in,
// and expand to paths relative to it. A glob that matches nothing
// contributes no arguments and is returned in unmatched.
func ExpandArgs(params, dir string) (args, unmatched []string, err error) {
	for _, field := range strings.Fields(params) {
		if !isGlob(field) {
			args = append(args, field)
			continue
		}

		var matches []string
		if filepath.IsAbs(field) || dir == "" {
			matches, err = doublestar.FilepathGlob(field)
		} else {
			matches, err = doublestar.Glob(os.DirFS(dir), filepath.ToSlash(field))
			for i, m := range matches {
				matches[i] = filepath.FromSlash(m)
			}
		}
		if err != nil {
			return nil, nil, fmt.Errorf("bad compiler parameter %q: %w", field, err)
		}
		if len(matches) == 0 {
			unmatched = append(unmatched, field)
			continue
		}
		sort.Strings(matches)
		args = append(args, matches...)
	}
	return args, unmatched, nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
