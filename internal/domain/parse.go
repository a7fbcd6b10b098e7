package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxLineBytes bounds a single line, ignored trailing columns included.
const maxLineBytes = 16 << 20

// ParseSeries reads a hydrograph file: one "<time> <flow>" pair per line,
// separated by any run of tabs or spaces. Blank lines and lines starting with
// '#' are skipped, columns after the second are ignored.
func ParseSeries(r io.Reader) ([]Sample, error) {
	var series []Sample

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, &ParseError{Line: line, Err: errors.New("expected time and flow columns")}
		}

		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("time %q: %w", fields[0], err)}
		}
		q, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("flow %q: %w", fields[1], err)}
		}
		series = append(series, Sample{Time: t, Flow: q})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read hydrograph: %w", err)
	}
	return series, nil
}
