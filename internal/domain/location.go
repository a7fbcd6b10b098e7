package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FloodplainType distinguishes river discharge scenarios from lake levels.
type FloodplainType string

const (
	FloodplainRiver FloodplainType = "river"
	FloodplainLake  FloodplainType = "lake"
)

// Reach marks the upper or lower part of a floodplain. Empty when the
// scenario covers the whole floodplain.
type Reach string

const (
	ReachNone  Reach = ""
	ReachUpper Reach = "upr"
	ReachLower Reach = "lwr"
)

// Location is the information encoded in a hydrograph's path.
type Location struct {
	Floodplain string // lower-cased
	Reach      Reach
	Key        string // e.g. "Q75" or "H12345", case preserved
}

// Type derives the floodplain type from the key prefix.
func (l Location) Type() FloodplainType {
	if strings.HasPrefix(l.Key, "H") {
		return FloodplainLake
	}
	return FloodplainRiver
}

// TableName returns the geometry table name, e.g. "geo_lenk_lwr_q75".
func (l Location) TableName() string {
	var b strings.Builder
	b.WriteString("geo_")
	b.WriteString(l.Floodplain)
	if l.Reach != ReachNone {
		b.WriteString("_")
		b.WriteString(string(l.Reach))
	}
	b.WriteString("_")
	b.WriteString(l.Key)
	return strings.ToLower(b.String())
}

// LakeLevel returns the level digits of an "H" key, e.g. "H12345" -> 12345.
func (l Location) LakeLevel() (float64, error) {
	if l.Type() != FloodplainLake {
		return 0, fmt.Errorf("key %q is not a lake level", l.Key)
	}
	v, err := strconv.ParseFloat(l.Key[1:], 64)
	if err != nil {
		return 0, fmt.Errorf("lake level %q: %w", l.Key, err)
	}
	return v, nil
}

// ParseLocation extracts floodplain, reach and key from a hydrograph path.
// Both '/' and '\' are accepted as separators.
func ParseLocation(path string) (Location, error) {
	path = NormalizePath(path)
	parts := strings.Split(path, "/")

	marker, reach, err := outMarker(parts)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %s: %v", ErrPathConvention, path, err)
	}

	idx := -1
	for i, p := range parts {
		if p == marker {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Location{}, fmt.Errorf("%w: %s: no path element equals %q", ErrPathConvention, path, marker)
	}
	if idx == 0 || idx+1 >= len(parts) {
		return Location{}, fmt.Errorf("%w: %s: %q needs a floodplain before and a key after it", ErrPathConvention, path, marker)
	}

	loc := Location{
		Floodplain: strings.ToLower(parts[idx-1]),
		Reach:      reach,
		Key:        parts[idx+1],
	}
	if loc.Floodplain == "" || loc.Key == "" {
		return Location{}, fmt.Errorf("%w: %s: empty floodplain or key", ErrPathConvention, path)
	}
	if !strings.HasPrefix(loc.Key, "Q") && !strings.HasPrefix(loc.Key, "H") {
		return Location{}, fmt.Errorf("%w: %s: key %q must start with Q (river discharge) or H (lake level)", ErrPathConvention, path, loc.Key)
	}
	return loc, nil
}

// NormalizePath replaces backslashes with forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// outMarker picks the "out" element variant present in parts. An upper reach
// wins over a lower one when both appear.
func outMarker(parts []string) (string, Reach, error) {
	var hasOut, hasUpper, hasLower bool
	for _, p := range parts {
		hasOut = hasOut || strings.Contains(p, "out")
		hasUpper = hasUpper || strings.Contains(p, "out_upr")
		hasLower = hasLower || strings.Contains(p, "out_lwr")
	}
	switch {
	case !hasOut:
		return "", ReachNone, fmt.Errorf("the substring 'out' and optionally 'upr' or 'lwr' must be contained in the path")
	case hasUpper:
		return "out_upr", ReachUpper, nil
	case hasLower:
		return "out_lwr", ReachLower, nil
	default:
		return "out", ReachNone, nil
	}
}
