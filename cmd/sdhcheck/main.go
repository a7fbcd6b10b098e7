// Command sdhcheck is an offline dry run of the loader. It scans a directory
// tree, computes peak discharge and flood volume for every hydrograph and
// prints the result without touching a database. With -expect it also compares
// the results against a manifest written by gensdh.
//
// Usage:
//
//	go run ./cmd/sdhcheck -root /data/hazard -interpolation cubic
//	go run ./cmd/sdhcheck -root data/synthetic -expect data/synthetic/manifest.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/hydrograph-etl/internal/adapter/filesystem"
	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/couchcryptid/hydrograph-etl/internal/pipeline"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	root          string
	filename      string
	interpolation domain.Interpolation
	jsonOut       bool
	expect        string
}

func main() {
	root := flag.String("root", "", "directory tree to scan")
	filename := flag.String("filename", "sdh.txt", "hydrograph file name")
	interpolation := flag.String("interpolation", "cubic", "interpolation: cubic or linear")
	jsonOut := flag.Bool("json", false, "print one JSON record per hydrograph")
	expect := flag.String("expect", "", "manifest of expected records to compare against")
	flag.Parse()

	if *root == "" {
		flag.Usage()
		os.Exit(1)
	}
	kind, err := domain.ParseInterpolation(*interpolation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(context.Background(), os.Stdout, options{
		root:          *root,
		filename:      *filename,
		interpolation: kind,
		jsonOut:       *jsonOut,
		expect:        *expect,
	}))
}

func run(ctx context.Context, w io.Writer, opts options) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scanner := filesystem.NewScanner(opts.root, opts.filename, logger)
	transformer := pipeline.NewTransformer(scanner, opts.interpolation, logger)

	sources, err := scanner.Extract(ctx)
	if err != nil {
		fmt.Fprintf(w, "FATAL: scan: %v\n", err)
		return 1
	}

	compute := &phase{name: "Phase 1: Compute metrics"}
	var records []domain.Hydrograph
	for _, src := range sources {
		h, err := transformer.Transform(ctx, src)
		if err != nil {
			compute.errorf("%v", err)
			continue
		}
		records = append(records, h)
	}

	if opts.jsonOut {
		enc := json.NewEncoder(w)
		for _, h := range records {
			if err := enc.Encode(h); err != nil {
				fmt.Fprintf(w, "FATAL: encode: %v\n", err)
				return 1
			}
		}
	} else {
		printTable(w, records)
	}

	phases := []*phase{compute}
	if opts.expect != "" {
		expected, err := loadManifest(opts.expect)
		if err != nil {
			fmt.Fprintf(w, "FATAL: load manifest: %v\n", err)
			return 1
		}
		phases = append(phases, compareManifest(records, expected))
	}

	return report(w, len(sources), phases)
}

func printTable(w io.Writer, records []domain.Hydrograph) {
	fmt.Fprintf(w, "%-36s %-6s %14s %14s %s\n", "TABLE", "TYPE", "QMAX", "QVOL", "INTERP")
	for _, h := range records {
		vol := "-"
		if h.Volume != nil {
			vol = fmt.Sprint(*h.Volume)
		}
		interp := h.Interpolation
		if interp == "" {
			interp = "-"
		}
		fmt.Fprintf(w, "%-36s %-6s %14g %14s %s\n", h.TableName, h.Type, h.Peak, vol, interp)
	}
}

func report(w io.Writer, found int, phases []*phase) int {
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}
	fmt.Fprintf(w, "\nHydrographs found: %d\n", found)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(w, "\nCheck FAILED.")
	return 1
}

func loadManifest(path string) ([]domain.Hydrograph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []domain.Hydrograph
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// compareManifest matches records to expected entries by table name.
func compareManifest(records, expected []domain.Hydrograph) *phase {
	p := &phase{name: "Phase 2: Expected metrics (manifest)"}

	got := make(map[string]domain.Hydrograph, len(records))
	for _, h := range records {
		got[h.TableName] = h
	}

	for _, want := range expected {
		h, ok := got[want.TableName]
		if !ok {
			p.errorf("%s: missing from scan", want.TableName)
			continue
		}
		delete(got, want.TableName)

		if h.Type != want.Type {
			p.errorf("%s: type: expected %q, got %q", want.TableName, want.Type, h.Type)
		}
		if math.Abs(h.Peak-want.Peak) > 1e-9 {
			p.errorf("%s: qmax: expected %g, got %g", want.TableName, want.Peak, h.Peak)
		}
		if !volumeEq(h.Volume, want.Volume) {
			p.errorf("%s: qvol: expected %s, got %s", want.TableName, volumeStr(want.Volume), volumeStr(h.Volume))
		}
	}
	for _, table := range slices.Sorted(maps.Keys(got)) {
		p.errorf("%s: not in manifest", table)
	}
	return p
}

func volumeEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func volumeStr(v *int64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprint(*v)
}
