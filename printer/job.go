package printer

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dancollins/labelprinter/bmp"
)

// Job is one print run: the target printer and page settings to resolve,
// and the label files to print, processed strictly in the order given.
// The first failure stops the run; pages already printed stay printed.
type Job struct {
	Backend Backend

	// Printer and PaperName may be empty to use the host default printer
	// and the driver's default paper form.
	Printer     string
	PaperName   string
	Orientation Orientation

	// DryRun performs all resolution and computation but skips applying
	// driver settings and submitting the spool job.
	DryRun bool

	Files []string

	Out io.Writer      // progress lines
	Log *logrus.Logger // diagnostics
}

// Run executes the pipeline: resolve printer, resolve paper size,
// configure the page, then decode, fit and render each file.
func (j *Job) Run() error {
	out := j.Out
	if out == nil {
		out = io.Discard
	}
	log := j.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	if len(j.Files) == 0 {
		return fmt.Errorf("%w: no files to process", ErrConfiguration)
	}

	name, err := ResolvePrinter(j.Backend, j.Printer)
	if err != nil {
		return err
	}
	log.WithField("printer", name).Debug("resolved printer")

	paper, err := FindPaperSize(j.Backend, name, j.PaperName)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"name": paper.Name,
		"code": paper.Code,
	}).Debug("resolved paper size")

	fmt.Fprintf(out, " 🖨️ %s\n", name)
	fmt.Fprintf(out, " 📄 %s (%s) %.1f x %.1f mm\n",
		paper.Name, j.Orientation, paper.WidthMM, paper.HeightMM)
	if j.DryRun {
		fmt.Fprintf(out, " ⚠️ Dry run only.\n")
	}

	cfg, err := j.Backend.ConfigurePage(name, paper, j.Orientation, !j.DryRun)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDriver, err)
	}
	log.WithFields(logrus.Fields{
		"code":        cfg.PaperCode(),
		"orientation": cfg.Orientation(),
	}).Debug("page settings")

	ctx, err := j.Backend.OpenContext(name, cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDriver, err)
	}
	defer ctx.Close()

	for _, path := range j.Files {
		if err := j.printFile(ctx, path, log); err != nil {
			return err
		}
		fmt.Fprintf(out, " 🏷️ %s\n", path)
	}
	return nil
}

// printFile produces exactly one page, or in a dry run simulates one.
// Device context state is saved up front and restored on every path, so
// subsequent files start from the same baseline.
func (j *Job) printFile(ctx Context, path string, log *logrus.Logger) error {
	img, err := bmp.Open(path)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"width":   img.Width,
		"height":  img.Height,
		"density": fmt.Sprintf("%dx%d px/m", img.DensityX, img.DensityY),
	}).Debug("decoded label")

	m, err := ctx.Metrics()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	log.WithFields(logrus.Fields{
		"page":      fmt.Sprintf("%dx%d px", m.PageW, m.PageH),
		"printable": fmt.Sprintf("%dx%d px", m.PrintableW, m.PrintableH),
		"res":       fmt.Sprintf("%dx%d px/m", m.ResX, m.ResY),
		"offset":    fmt.Sprintf("%dx%d px", m.OffsetX, m.OffsetY),
	}).Debug("device metrics")

	fit := Fit(m, img)
	log.WithFields(logrus.Fields{
		"size":   fmt.Sprintf("%dx%d px", fit.ViewportW, fit.ViewportH),
		"offset": fmt.Sprintf("%dx%d px", fit.OriginX, fit.OriginY),
	}).Debug("label placement")

	if err := ctx.SaveState(); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	err = j.renderPage(ctx, path, img, fit)
	if rerr := ctx.RestoreState(); rerr != nil && err == nil {
		err = fmt.Errorf("%w: %v", ErrRender, rerr)
	}
	return err
}

func (j *Job) renderPage(ctx Context, path string,
	img *bmp.Image, fit Mapping) error {
	if err := ctx.SetMapping(fit); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if j.DryRun {
		return nil
	}

	// One document with just one page in it.
	if err := ctx.StartDoc(path); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := ctx.StartPage(); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := ctx.DrawImage(img); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := ctx.EndPage(); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := ctx.EndDoc(); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}
