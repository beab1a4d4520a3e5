package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cosine-zoom/internal/algorithms"
)

// ParseScale parses "num/den" or a bare "num" (den = 1). It only checks syntax;
// a zero denominator parses and is rejected later by Scale.Validate.
func ParseScale(s string) (algorithms.Scale, error) {
	numStr, denStr, hasDen := strings.Cut(strings.TrimSpace(s), "/")
	num, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return algorithms.Scale{}, fmt.Errorf("%w: scale %q", ErrInvalidArguments, s)
	}
	scale := algorithms.Scale{Num: num, Den: 1}
	if hasDen {
		den, err := strconv.ParseUint(strings.TrimSpace(denStr), 10, 64)
		if err != nil {
			return algorithms.Scale{}, fmt.Errorf("%w: scale denominator %q", ErrInvalidArguments, denStr)
		}
		scale.Den = den
	}
	return scale, nil
}

// ParseViewport parses "WxH". Both sides must be positive.
func ParseViewport(s string) (width, height int, err error) {
	wStr, hStr, ok := cutX(s)
	if !ok {
		return 0, 0, fmt.Errorf("%w: viewport %q, want WxH", ErrInvalidArguments, s)
	}
	width, errW := strconv.Atoi(wStr)
	height, errH := strconv.Atoi(hStr)
	if errW != nil || errH != nil {
		return 0, 0, fmt.Errorf("%w: viewport %q", ErrInvalidArguments, s)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", algorithms.ErrInvalidViewport, width, height)
	}
	return width, height, nil
}

// ParseOffset parses "XxY" with floating components, e.g. "1.5x-2".
func ParseOffset(s string) (x, y float64, err error) {
	xStr, yStr, ok := cutX(s)
	if !ok {
		return 0, 0, fmt.Errorf("%w: offset %q, want XxY", ErrInvalidArguments, s)
	}
	x, errX := strconv.ParseFloat(xStr, 64)
	y, errY := strconv.ParseFloat(yStr, 64)
	if errX != nil || errY != nil || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, fmt.Errorf("%w: offset %q", ErrInvalidArguments, s)
	}
	return x, y, nil
}

// cutX splits on the first 'x' or 'X'.
func cutX(s string) (string, string, bool) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, "xX")
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}
