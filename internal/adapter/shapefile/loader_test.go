package shapefile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"testing"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls []call
	err   error
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return []byte("-- sql for " + args[len(args)-1]), nil
}

type fakeExecutor struct {
	scripts []string
	err     error
}

func (f *fakeExecutor) ExecScript(_ context.Context, script string) error {
	if f.err != nil {
		return f.err
	}
	f.scripts = append(f.scripts, script)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testHydrographs = []domain.Hydrograph{
	{TableName: "geo_lenk_lwr_q75", ShapefilePath: "/data/Lenk/out_lwr/Q75/area.shp"},
	{TableName: "geo_thunersee_h55825", ShapefilePath: "/data/Thunersee/out/H55825/lake.shp"},
}

func TestLoader_Load(t *testing.T) {
	runner := &fakeRunner{}
	executor := &fakeExecutor{}
	l := NewLoader(runner, executor, "shp2pgsql", 21781, discardLogger())

	require.NoError(t, l.Load(context.Background(), testHydrographs))

	assert.Equal(t, []call{
		{name: "shp2pgsql", args: []string{"-s", "21781", "-d", "/data/Lenk/out_lwr/Q75/area.shp", "geo_lenk_lwr_q75"}},
		{name: "shp2pgsql", args: []string{"-s", "21781", "-d", "/data/Thunersee/out/H55825/lake.shp", "geo_thunersee_h55825"}},
	}, runner.calls)
	assert.Equal(t, []string{"-- sql for geo_lenk_lwr_q75", "-- sql for geo_thunersee_h55825"}, executor.scripts)
}

func TestLoader_CommandFailureStops(t *testing.T) {
	runner := &fakeRunner{err: &CommandError{Command: "shp2pgsql", ExitCode: 1, Stderr: "cannot open"}}
	l := NewLoader(runner, &fakeExecutor{}, "shp2pgsql", 21781, discardLogger())

	err := l.Load(context.Background(), testHydrographs)
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.Contains(t, err.Error(), "area.shp")
	assert.Len(t, runner.calls, 1)
}

func TestLoader_ExecFailure(t *testing.T) {
	l := NewLoader(&fakeRunner{}, &fakeExecutor{err: errors.New("relation exists")}, "shp2pgsql", 2056, discardLogger())

	err := l.Load(context.Background(), testHydrographs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo_lenk_lwr_q75")
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := ExecRunner{}.Output(context.Background(), "sh", "-c", "printf 'BEGIN;'")
	require.NoError(t, err)
	assert.Equal(t, "BEGIN;", string(out))

	_, err = ExecRunner{}.Output(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "broken", cmdErr.Stderr)
}
