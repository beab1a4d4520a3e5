// Basis and overlay mode registries
package algorithms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrInvalidScale      = errors.New("invalid scale")
	ErrInvalidViewport   = errors.New("invalid viewport")
	ErrUnknownBasis      = errors.New("unknown basis")
	ErrUnknownOverlay    = errors.New("unknown overlay mode")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrUnknownPassOrder  = errors.New("unknown pass order")
)

// BasisMode selects how continuous reconstruction coordinates map to cosine phase.
type BasisMode int

const (
	Interpolated BasisMode = iota
	Centered
	Native
	Unitary
)

func (m BasisMode) String() string {
	switch m {
	case Interpolated:
		return "interpolated"
	case Centered:
		return "centered"
	case Native:
		return "native"
	case Unitary:
		return "unitary"
	}
	return fmt.Sprintf("basis(%d)", int(m))
}

// OverlayMode selects the debug marker pattern drawn over the output.
type OverlayMode int

const (
	OverlayNone OverlayMode = iota
	OverlayPoints
	OverlayGrid
)

func (m OverlayMode) String() string {
	switch m {
	case OverlayNone:
		return "none"
	case OverlayPoints:
		return "point"
	case OverlayGrid:
		return "grid"
	}
	return fmt.Sprintf("overlay(%d)", int(m))
}

// PassOrder selects which axis the reconstructor sums first.
type PassOrder int

const (
	RowsFirst PassOrder = iota
	ColumnsFirst
)

func (o PassOrder) String() string {
	if o == ColumnsFirst {
		return "columns"
	}
	return "rows"
}

var (
	basisModes   = make(map[string]BasisMode)
	overlayModes = make(map[string]OverlayMode)
	passOrders   = make(map[string]PassOrder)
)

func RegisterBasis(name string, mode BasisMode) {
	basisModes[name] = mode
}

func RegisterOverlay(name string, mode OverlayMode) {
	overlayModes[name] = mode
}

// LookupBasis resolves a basis name. Names are matched exactly; there is no fallback.
func LookupBasis(name string) (BasisMode, error) {
	mode, exists := basisModes[name]
	if !exists {
		return 0, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBasis, name, strings.Join(BasisNames(), ", "))
	}
	return mode, nil
}

// LookupOverlay resolves an overlay name. The numeric aliases follow the historical
// --showsamples=1|2 convention.
func LookupOverlay(name string) (OverlayMode, error) {
	mode, exists := overlayModes[name]
	if !exists {
		return 0, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownOverlay, name, strings.Join(OverlayNames(), ", "))
	}
	return mode, nil
}

func LookupPassOrder(name string) (PassOrder, error) {
	order, exists := passOrders[name]
	if !exists {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPassOrder, name)
	}
	return order, nil
}

func IsValidBasis(name string) bool {
	_, exists := basisModes[name]
	return exists
}

// BasisNames lists registered basis names in sorted order.
func BasisNames() []string {
	names := lo.Keys(basisModes)
	sort.Strings(names)
	return names
}

func OverlayNames() []string {
	names := lo.Keys(overlayModes)
	sort.Strings(names)
	return names
}

func init() {
	RegisterBasis("interpolated", Interpolated)
	RegisterBasis("centered", Centered)
	RegisterBasis("native", Native)
	RegisterBasis("unitary", Unitary)

	RegisterOverlay("", OverlayNone)
	RegisterOverlay("0", OverlayNone)
	RegisterOverlay("none", OverlayNone)
	RegisterOverlay("1", OverlayPoints)
	RegisterOverlay("point", OverlayPoints)
	RegisterOverlay("2", OverlayGrid)
	RegisterOverlay("grid", OverlayGrid)

	passOrders["rows"] = RowsFirst
	passOrders["columns"] = ColumnsFirst
}
