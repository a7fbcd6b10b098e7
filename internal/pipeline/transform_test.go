package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/hydrograph-etl/internal/adapter/filesystem"
	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/couchcryptid/hydrograph-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plateauSDH = "# t Q\n0\t0\n3600\t1\n7200\t1\n10800\t0\n"

// makeScenario writes a hydrograph and its shapefiles below root and returns the hydrograph path.
func makeScenario(t *testing.T, root string, rel string, content string, shapefiles ...string) domain.SourceFile {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "sdh.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	for _, shp := range shapefiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, shp), nil, 0o644))
	}
	return domain.SourceFile{Path: filepath.ToSlash(path)}
}

func TestHydrographTransformer_River(t *testing.T) {
	root := t.TempDir()
	src := makeScenario(t, root, "Lenk/out_lwr/Q75", plateauSDH, "lenk_q75.shp")

	tfm := pipeline.NewTransformer(filesystem.NewScanner(root, "sdh.txt", discardLogger()), domain.InterpolationLinear, discardLogger())
	h, err := tfm.Transform(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "lenk", h.Floodplain)
	assert.Equal(t, domain.FloodplainRiver, h.Type)
	assert.Equal(t, "geo_lenk_lwr_q75", h.TableName)
	assert.Equal(t, 1.0, h.Peak)
	require.NotNil(t, h.Volume)
	assert.Equal(t, int64(7200), *h.Volume)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "Lenk", "out_lwr", "Q75", "lenk_q75.shp")), h.ShapefilePath)
}

func TestHydrographTransformer_CubicDegradesForShortSeries(t *testing.T) {
	root := t.TempDir()
	src := makeScenario(t, root, "Lenk/out/Q10", "0 0\n10 2\n20 0\n", "a.shp")

	tfm := pipeline.NewTransformer(filesystem.NewScanner(root, "sdh.txt", discardLogger()), domain.InterpolationCubic, discardLogger())
	h, err := tfm.Transform(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "linear", h.Interpolation)
	assert.Equal(t, int64(20), *h.Volume)
}

func TestHydrographTransformer_Lake(t *testing.T) {
	root := t.TempDir()
	src := makeScenario(t, root, "Thunersee/out/H55825", "not a hydrograph", "lake.shp")

	tfm := pipeline.NewTransformer(filesystem.NewScanner(root, "sdh.txt", discardLogger()), domain.InterpolationCubic, discardLogger())
	h, err := tfm.Transform(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, domain.FloodplainLake, h.Type)
	assert.Equal(t, 55825.0, h.Peak)
	assert.Nil(t, h.Volume)
}

func TestHydrographTransformer_MissingShapefile(t *testing.T) {
	root := t.TempDir()
	src := makeScenario(t, root, "Lenk/out/Q75", plateauSDH)

	tfm := pipeline.NewTransformer(filesystem.NewScanner(root, "sdh.txt", discardLogger()), domain.InterpolationCubic, discardLogger())
	_, err := tfm.Transform(context.Background(), src)
	assert.ErrorIs(t, err, filesystem.ErrShapefile)
}

func TestHydrographTransformer_NonMonotonicTimes(t *testing.T) {
	root := t.TempDir()
	src := makeScenario(t, root, "Lenk/out/Q75", "0 0\n20 1\n10 0\n", "a.shp")

	tfm := pipeline.NewTransformer(filesystem.NewScanner(root, "sdh.txt", discardLogger()), domain.InterpolationCubic, discardLogger())
	_, err := tfm.Transform(context.Background(), src)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_EndToEndWithScanner(t *testing.T) {
	root := t.TempDir()
	makeScenario(t, root, "Lenk/out_lwr/Q75", plateauSDH, "a.shp")
	makeScenario(t, root, "Lenk/out_upr/Q75", plateauSDH, "b.shp")
	makeScenario(t, root, "Broken/results/Q1", plateauSDH, "c.shp")

	scanner := filesystem.NewScanner(root, "sdh.txt", discardLogger())
	db := &mockLoader{}
	p := pipeline.New(scanner,
		pipeline.NewTransformer(scanner, domain.InterpolationLinear, discardLogger()),
		[]pipeline.Stage{{Name: "database", Loader: db}},
		discardLogger(), newTestMetrics(), pipeline.Options{})

	report, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Found)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, db.loaded, 2)
	assert.Equal(t, "geo_lenk_lwr_q75", db.loaded[0].TableName)
	assert.Equal(t, "geo_lenk_upr_q75", db.loaded[1].TableName)
}
