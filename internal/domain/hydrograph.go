package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// SourceFile is a hydrograph found by the scanner.
type SourceFile struct {
	Path string // forward-slash separated
}

// Hydrograph is the record loaded for one scenario.
type Hydrograph struct {
	Floodplain    string         `json:"floodplain_name"`
	Type          FloodplainType `json:"floodplain_type"`
	Reach         Reach          `json:"reach,omitempty"`
	Key           string         `json:"key"`
	Peak          float64        `json:"qmax"`
	Volume        *int64         `json:"qvol"`                    // nil for lakes
	Interpolation string         `json:"interpolation,omitempty"` // empty for lakes
	Samples       int            `json:"samples,omitempty"`
	TableName     string         `json:"shapefile_tablename"`
	ShapefilePath string         `json:"shapefile_path"`
	SourcePath    string         `json:"source_path"`
	ProcessedAt   time.Time      `json:"processed_at"`
}

// BuildHydrograph derives the record for a source file. The reader is only
// consumed for river scenarios; lake levels come from the path alone.
func BuildHydrograph(src SourceFile, shapefile string, r io.Reader, kind Interpolation) (Hydrograph, error) {
	loc, err := ParseLocation(src.Path)
	if err != nil {
		return Hydrograph{}, err
	}

	h := Hydrograph{
		Floodplain:    loc.Floodplain,
		Type:          loc.Type(),
		Reach:         loc.Reach,
		Key:           loc.Key,
		TableName:     loc.TableName(),
		ShapefilePath: NormalizePath(shapefile),
		SourcePath:    NormalizePath(src.Path),
	}

	switch h.Type {
	case FloodplainLake:
		level, err := loc.LakeLevel()
		if err != nil {
			return Hydrograph{}, err
		}
		h.Peak = level
	default:
		series, err := ParseSeries(r)
		if err != nil {
			return Hydrograph{}, fmt.Errorf("parse %s: %w", src.Path, err)
		}
		m, err := ComputeMetrics(series, kind)
		if err != nil {
			return Hydrograph{}, fmt.Errorf("compute metrics for %s: %w", src.Path, err)
		}
		h.Peak = m.Peak
		h.Volume = &m.Volume
		h.Interpolation = m.Interpolation.String()
		h.Samples = len(series)
	}

	h.ProcessedAt = clock.Now()
	return h, nil
}

// SerializeHydrograph marshals h for publishing.
func SerializeHydrograph(h Hydrograph) ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("serialize hydrograph %s: %w", h.TableName, err)
	}
	return data, nil
}
