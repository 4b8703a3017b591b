// Package printer resolves printers and paper sizes, configures page
// settings, and renders label bitmaps through a pluggable backend.
package printer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dancollins/labelprinter/bmp"
)

// Error kinds. Every failure in this package wraps exactly one of these,
// so callers can classify with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("paper size not found")
	ErrDriver        = errors.New("printer driver failure")
	ErrRender        = errors.New("render failure")
)

// PaperNameSize bounds paper size names for matching, mirroring the
// fixed-width name fields printer drivers report. The fields are not
// guaranteed to be null-terminated.
const PaperNameSize = 64

// Orientation selects how the page is turned.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

// ParseOrientation accepts "portrait" or "landscape", ignoring case.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "portrait":
		return Portrait, nil
	case "landscape":
		return Landscape, nil
	}
	return Portrait, fmt.Errorf("invalid orientation: %s", s)
}

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// PaperSize is one entry of a driver's paper catalog.
type PaperSize struct {
	Name string
	// Code is the driver-specific numeric size identifier.
	Code     int16
	WidthMM  float64
	HeightMM float64
}

// PageConfig is an applied (or, in dry runs, merely requested) page
// settings record, owned by the backend that produced it.
type PageConfig interface {
	PaperCode() int16
	Orientation() Orientation
}

// Metrics describes an open device context: the physical page, the
// printable area and its offset from the page origin, all in device
// pixels, and the device resolution in pixels per meter.
type Metrics struct {
	PageW, PageH           int
	PrintableW, PrintableH int
	ResX, ResY             int
	OffsetX, OffsetY       int
}

// Mapping is an anisotropic logical-to-device coordinate mapping: the
// window extent is the image's pixel size, the viewport extent the target
// size in device pixels, and the origin the centering offset. Origins may
// be negative; oversized images clip against the page.
type Mapping struct {
	WindowW, WindowH     int
	ViewportW, ViewportH int
	OriginX, OriginY     int
}

// Context is an open printer device context. Calls are never made
// concurrently.
type Context interface {
	Metrics() (Metrics, error)
	SaveState() error
	RestoreState() error
	SetMapping(m Mapping) error

	StartDoc(name string) error
	StartPage() error
	// DrawImage blits the whole source image at a 1:1 logical-pixel
	// mapping; scaling happens entirely through the viewport extents.
	DrawImage(img *bmp.Image) error
	EndPage() error
	EndDoc() error

	Close() error
}

// Backend abstracts the host's printing subsystem.
type Backend interface {
	// DefaultPrinter returns the host's configured default printer.
	DefaultPrinter() (string, error)

	// DefaultPaperName returns the printer's currently configured
	// paper form name.
	DefaultPaperName(printer string) (string, error)

	// PaperSizes returns the driver's paper catalog. A driver reporting
	// a zero or negative count is an error, not an empty catalog.
	PaperSizes(printer string) ([]PaperSize, error)

	// ConfigurePage overwrites the paper size and orientation in the
	// driver's current settings. With apply unset the final driver call
	// is skipped, but the returned record still reflects the requested
	// values.
	ConfigurePage(printer string, paper PaperSize, o Orientation,
		apply bool) (PageConfig, error)

	// OpenContext opens a device context for rendering with the given
	// page settings.
	OpenContext(printer string, cfg PageConfig) (Context, error)
}

// ResolvePrinter passes an explicit printer name through unchanged, and
// otherwise asks the backend for the host default.
func ResolvePrinter(b Backend, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	name, err := b.DefaultPrinter()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: no default printer", ErrConfiguration)
	}
	return name, nil
}

// FindPaperSize looks up a paper size by name in the printer's catalog.
// An empty name means the driver's current default form. Matching is
// exact and case-sensitive, bounded to the driver name field width;
// the first match wins.
func FindPaperSize(b Backend, printer, name string) (PaperSize, error) {
	if name == "" {
		var err error
		if name, err = b.DefaultPaperName(printer); err != nil {
			return PaperSize{}, fmt.Errorf("%w: %v", ErrDriver, err)
		}
	}

	sizes, err := b.PaperSizes(printer)
	if err != nil {
		return PaperSize{}, fmt.Errorf("%w: %v", ErrDriver, err)
	}

	want := boundName(name)
	for _, ps := range sizes {
		if boundName(ps.Name) == want {
			return ps, nil
		}
	}
	return PaperSize{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func boundName(s string) string {
	if len(s) > PaperNameSize {
		return s[:PaperNameSize]
	}
	return s
}
