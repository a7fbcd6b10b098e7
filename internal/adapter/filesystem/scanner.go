package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
)

// ErrShapefile is returned when a hydrograph directory does not hold exactly one shapefile.
var ErrShapefile = errors.New("shapefile lookup failed")

// Scanner finds hydrograph files below a root directory.
// It implements pipeline.Extractor and pipeline.SourceReader.
type Scanner struct {
	root     string
	filename string
	logger   *slog.Logger
}

// NewScanner creates a Scanner looking for files named exactly filename.
func NewScanner(root, filename string, logger *slog.Logger) *Scanner {
	return &Scanner{root: root, filename: filename, logger: logger}
}

// Extract walks the root and returns every matching file, sorted by path.
func (s *Scanner) Extract(ctx context.Context) ([]domain.SourceFile, error) {
	s.logger.Info("scanning for hydrographs", "root", s.root, "filename", s.filename)

	var files []domain.SourceFile
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() && d.Name() == s.filename {
			files = append(files, domain.SourceFile{Path: filepath.ToSlash(path)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	slices.SortFunc(files, func(a, b domain.SourceFile) int { return strings.Compare(a.Path, b.Path) })
	s.logger.Info("scan complete", "root", s.root, "found", len(files))
	return files, nil
}

// Open opens a hydrograph for reading.
func (s *Scanner) Open(src domain.SourceFile) (io.ReadCloser, error) {
	return os.Open(filepath.FromSlash(src.Path))
}

// Shapefile returns the single *.shp file next to the hydrograph.
func (s *Scanner) Shapefile(src domain.SourceFile) (string, error) {
	return FindShapefile(filepath.Dir(filepath.FromSlash(src.Path)))
}

// FindShapefile returns the path of the only *.shp file in dir.
func FindShapefile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrShapefile, err)
	}

	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".shp") {
			found = append(found, e.Name())
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no shapefile in %s", ErrShapefile, filepath.ToSlash(dir))
	case 1:
		return filepath.ToSlash(filepath.Join(dir, found[0])), nil
	default:
		return "", fmt.Errorf("%w: %d shapefiles in %s (%s)", ErrShapefile, len(found), filepath.ToSlash(dir), strings.Join(found, ", "))
	}
}
