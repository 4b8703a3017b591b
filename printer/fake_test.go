package printer_test

import (
	"errors"

	"github.com/dancollins/labelprinter/bmp"
	"github.com/dancollins/labelprinter/printer"
)

// fakeBackend serves fixed catalogs and records what the pipeline asks
// of it.
type fakeBackend struct {
	defaultPrinter    string
	defaultPrinterErr error
	defaultPaper      string
	defaultPaperErr   error
	catalog           []printer.PaperSize
	catalogErr        error

	paperQueries int
	configures   []configureCall
	configureErr error
	openErr      error
	ctx          *fakeContext
}

type configureCall struct {
	printer string
	paper   printer.PaperSize
	o       printer.Orientation
	apply   bool
}

func (b *fakeBackend) DefaultPrinter() (string, error) {
	return b.defaultPrinter, b.defaultPrinterErr
}

func (b *fakeBackend) DefaultPaperName(printer string) (string, error) {
	b.paperQueries++
	return b.defaultPaper, b.defaultPaperErr
}

func (b *fakeBackend) PaperSizes(printer string) ([]printer.PaperSize, error) {
	return b.catalog, b.catalogErr
}

func (b *fakeBackend) ConfigurePage(printerName string,
	paper printer.PaperSize, o printer.Orientation,
	apply bool) (printer.PageConfig, error) {
	b.configures = append(b.configures,
		configureCall{printerName, paper, o, apply})
	if b.configureErr != nil {
		return nil, b.configureErr
	}
	return fakeConfig{paper.Code, o}, nil
}

func (b *fakeBackend) OpenContext(printerName string,
	cfg printer.PageConfig) (printer.Context, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	if b.ctx == nil {
		b.ctx = &fakeContext{}
	}
	return b.ctx, nil
}

type fakeConfig struct {
	code int16
	o    printer.Orientation
}

func (c fakeConfig) PaperCode() int16                 { return c.code }
func (c fakeConfig) Orientation() printer.Orientation { return c.o }

// fakeContext records the device context call sequence and can be told
// to fail at a named step.
type fakeContext struct {
	metrics  printer.Metrics
	failAt   string
	calls    []string
	mappings []printer.Mapping
	closed   bool
}

func (c *fakeContext) step(name string) error {
	c.calls = append(c.calls, name)
	if c.failAt == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (c *fakeContext) Metrics() (printer.Metrics, error) {
	return c.metrics, c.step("Metrics")
}

func (c *fakeContext) SaveState() error    { return c.step("SaveState") }
func (c *fakeContext) RestoreState() error { return c.step("RestoreState") }

func (c *fakeContext) SetMapping(m printer.Mapping) error {
	c.mappings = append(c.mappings, m)
	return c.step("SetMapping")
}

func (c *fakeContext) StartDoc(name string) error { return c.step("StartDoc") }
func (c *fakeContext) StartPage() error           { return c.step("StartPage") }

func (c *fakeContext) DrawImage(img *bmp.Image) error {
	return c.step("DrawImage")
}

func (c *fakeContext) EndPage() error { return c.step("EndPage") }
func (c *fakeContext) EndDoc() error  { return c.step("EndDoc") }

func (c *fakeContext) Close() error {
	c.closed = true
	return nil
}
