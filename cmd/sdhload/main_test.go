package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/hydrograph-etl/internal/adapter/postgres"
	"github.com/couchcryptid/hydrograph-etl/internal/config"
	"github.com/couchcryptid/hydrograph-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
)

func stageNames(stages []pipeline.Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}

func TestBuildStages(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := postgres.NewStore(nil, postgres.Tables{Floodplain: "floodplain", SDHMetadata: "sdh_metadata"}, false, logger)

	tests := []struct {
		name string
		cfg  config.Config
		want []string
	}{
		{
			name: "shapefiles before metadata",
			cfg:  config.Config{ShapefilesEnabled: true, Shp2pgsqlPath: "shp2pgsql", SRID: 21781},
			want: []string{"shapefile", "database"},
		},
		{
			name: "shapefiles disabled",
			cfg:  config.Config{},
			want: []string{"database"},
		},
		{
			name: "kafka last",
			cfg: config.Config{
				ShapefilesEnabled: true,
				Shp2pgsqlPath:     "shp2pgsql",
				SRID:              21781,
				KafkaBrokers:      []string{"localhost:9092"},
				KafkaTopic:        "hydrograph-metrics",
			},
			want: []string{"shapefile", "database", "kafka"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages, closeStages := buildStages(&tt.cfg, store, logger)
			defer closeStages()
			assert.Equal(t, tt.want, stageNames(stages))
		})
	}
}
