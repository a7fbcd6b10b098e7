package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T) options {
	t.Helper()
	out := t.TempDir()
	return options{
		out:           out,
		manifest:      filepath.Join(out, "manifest.json"),
		seed:          7,
		rivers:        2,
		lakes:         1,
		step:          600,
		interpolation: domain.InterpolationCubic,
	}
}

func TestGenerate(t *testing.T) {
	opts := testOptions(t)
	records, err := generate(opts)
	require.NoError(t, err)

	var lakesSeen, riversSeen int
	for _, h := range records {
		assert.True(t, strings.HasPrefix(h.TableName, "geo_"), h.TableName)
		assert.FileExists(t, filepath.FromSlash(h.SourcePath))
		assert.FileExists(t, filepath.FromSlash(h.ShapefilePath))
		assert.Equal(t, processedAt, h.ProcessedAt)

		switch h.Type {
		case domain.FloodplainLake:
			lakesSeen++
			assert.Nil(t, h.Volume)
			assert.GreaterOrEqual(t, h.Peak, 55800.0)
		case domain.FloodplainRiver:
			riversSeen++
			require.NotNil(t, h.Volume)
			assert.Positive(t, *h.Volume)
			assert.Positive(t, h.Peak)
			assert.Equal(t, "cubic", h.Interpolation)
		}
	}
	assert.Equal(t, 2, lakesSeen)
	// At least the unsplit reach of each river, one file per return period.
	assert.GreaterOrEqual(t, riversSeen, 2*len(returnPeriods))

	data, err := os.ReadFile(opts.manifest)
	require.NoError(t, err)
	var manifest []domain.Hydrograph
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Len(t, manifest, len(records))
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := generate(testOptions(t))
	require.NoError(t, err)
	b, err := generate(testOptions(t))
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].TableName, b[i].TableName)
		assert.Equal(t, a[i].Peak, b[i].Peak)
		assert.Equal(t, a[i].Volume, b[i].Volume)
	}
}

func TestSyntheticSeries(t *testing.T) {
	series := syntheticSeries(50, 600, 6)

	require.NoError(t, domain.ValidateSeries(series))
	assert.Equal(t, 0.0, series[0].Flow)

	peak := 0.0
	for _, s := range series {
		peak = max(peak, s.Flow)
	}
	assert.InDelta(t, 50, peak, 1e-9)
}
