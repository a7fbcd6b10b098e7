package filesystem

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanner_Extract(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Simme", "out", "Q300", "sdh.txt"), "0 0\n")
	writeFile(t, filepath.Join(root, "Lenk", "out_lwr", "Q75", "sdh.txt"), "0 0\n")
	writeFile(t, filepath.Join(root, "Lenk", "out_lwr", "Q75", "notes.txt"), "")
	writeFile(t, filepath.Join(root, "Lenk", "out_lwr", "sdh.txt.bak"), "")

	s := NewScanner(root, "sdh.txt", discardLogger())
	files, err := s.Extract(context.Background())
	require.NoError(t, err)

	want := []domain.SourceFile{
		{Path: filepath.ToSlash(filepath.Join(root, "Lenk", "out_lwr", "Q75", "sdh.txt"))},
		{Path: filepath.ToSlash(filepath.Join(root, "Simme", "out", "Q300", "sdh.txt"))},
	}
	assert.Equal(t, want, files)
}

func TestScanner_ExtractMissingRoot(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "missing"), "sdh.txt", discardLogger())
	_, err := s.Extract(context.Background())
	assert.Error(t, err)
}

func TestScanner_ExtractCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "sdh.txt"), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(root, "sdh.txt", discardLogger()).Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_Open(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "sdh.txt")
	writeFile(t, path, "0 1\n")

	rc, err := NewScanner(root, "sdh.txt", discardLogger()).Open(domain.SourceFile{Path: filepath.ToSlash(path)})
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "0 1\n", string(data))
}

func TestFindShapefile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "area.shp"), "")
	writeFile(t, filepath.Join(dir, "area.dbf"), "")
	writeFile(t, filepath.Join(dir, "area.shx"), "")

	path, err := FindShapefile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "area.shp")), path)
}

func TestFindShapefile_None(t *testing.T) {
	_, err := FindShapefile(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapefile)
	assert.Contains(t, err.Error(), "no shapefile")
}

func TestFindShapefile_Ambiguous(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.shp"), "")
	writeFile(t, filepath.Join(dir, "b.SHP"), "")

	_, err := FindShapefile(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapefile)
	assert.Contains(t, err.Error(), "2 shapefiles")
}

func TestScanner_Shapefile(t *testing.T) {
	root := t.TempDir()
	sdh := filepath.Join(root, "Lenk", "out", "Q75", "sdh.txt")
	writeFile(t, sdh, "")
	writeFile(t, filepath.Join(root, "Lenk", "out", "Q75", "lenk.shp"), "")

	path, err := NewScanner(root, "sdh.txt", discardLogger()).Shapefile(domain.SourceFile{Path: filepath.ToSlash(sdh)})
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "Lenk", "out", "Q75", "lenk.shp")), path)
}
