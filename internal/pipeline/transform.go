package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
)

// SourceReader resolves the files belonging to a hydrograph.
type SourceReader interface {
	Open(src domain.SourceFile) (io.ReadCloser, error)
	Shapefile(src domain.SourceFile) (string, error)
}

// HydrographTransformer implements Transformer using the domain metrics calculator.
type HydrographTransformer struct {
	reader        SourceReader
	interpolation domain.Interpolation
	logger        *slog.Logger
}

// NewTransformer creates a HydrographTransformer integrating with the given interpolation.
func NewTransformer(reader SourceReader, interpolation domain.Interpolation, logger *slog.Logger) *HydrographTransformer {
	return &HydrographTransformer{
		reader:        reader,
		interpolation: interpolation,
		logger:        logger,
	}
}

func (t *HydrographTransformer) Transform(_ context.Context, src domain.SourceFile) (domain.Hydrograph, error) {
	shapefile, err := t.reader.Shapefile(src)
	if err != nil {
		return domain.Hydrograph{}, err
	}

	rc, err := t.reader.Open(src)
	if err != nil {
		return domain.Hydrograph{}, fmt.Errorf("open %s: %w", src.Path, err)
	}
	defer rc.Close()

	h, err := domain.BuildHydrograph(src, shapefile, rc, t.interpolation)
	if err != nil {
		return domain.Hydrograph{}, err
	}

	if h.Interpolation != "" && h.Interpolation != t.interpolation.String() {
		t.logger.Warn("interpolation degraded", "path", src.Path, "samples", h.Samples, "used", h.Interpolation)
	}
	return h, nil
}
