package domain

import (
	"fmt"
	"strings"
)

// Interpolation selects the interpolant used to reconstruct the flow curve.
type Interpolation int

const (
	InterpolationCubic Interpolation = iota
	InterpolationLinear
)

func (k Interpolation) String() string {
	switch k {
	case InterpolationCubic:
		return "cubic"
	case InterpolationLinear:
		return "linear"
	default:
		return fmt.Sprintf("interpolation(%d)", int(k))
	}
}

// ParseInterpolation accepts "cubic" or "linear", case-insensitively.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cubic":
		return InterpolationCubic, nil
	case "linear":
		return InterpolationLinear, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q (want cubic or linear)", s)
	}
}
