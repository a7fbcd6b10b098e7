package shapefile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ScriptExecutor runs a multi-statement SQL script.
type ScriptExecutor interface {
	ExecScript(ctx context.Context, script string) error
}

// Loader converts each hydrograph's shapefile with shp2pgsql and executes the
// generated SQL. It implements pipeline.Loader.
type Loader struct {
	runner   Runner
	executor ScriptExecutor
	command  string
	srid     int
	logger   *slog.Logger
}

// NewLoader creates a shapefile Loader. command is the shp2pgsql executable.
func NewLoader(runner Runner, executor ScriptExecutor, command string, srid int, logger *slog.Logger) *Loader {
	return &Loader{
		runner:   runner,
		executor: executor,
		command:  command,
		srid:     srid,
		logger:   logger,
	}
}

// Load (re)creates one geometry table per hydrograph. Tables are dropped first
// (-d), so repeating a load replaces the geometry.
func (l *Loader) Load(ctx context.Context, hs []domain.Hydrograph) error {
	for _, h := range hs {
		if err := l.loadOne(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadOne(ctx context.Context, h domain.Hydrograph) error {
	args := l.args(h)
	l.logger.Info("inserting shapefile", "file", h.ShapefilePath, "table", h.TableName,
		"command", l.command+" "+strings.Join(args, " "))

	script, err := l.runner.Output(ctx, l.command, args...)
	if err != nil {
		return fmt.Errorf("convert %s: %w", h.ShapefilePath, err)
	}
	if err := l.executor.ExecScript(ctx, string(script)); err != nil {
		return fmt.Errorf("load %s into %s: %w", h.ShapefilePath, h.TableName, err)
	}
	return nil
}

func (l *Loader) args(h domain.Hydrograph) []string {
	return []string{"-s", strconv.Itoa(l.srid), "-d", h.ShapefilePath, h.TableName}
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// CommandError carries the exit code and stderr of a failed command.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s returned with an error and code %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &CommandError{
				Command:  name,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return stdout.Bytes(), nil
}
