// label-gen composes a label image from text and writes it out as a
// bitmap file that labelprinter can send to a printer.
package main

import (
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/dancollins/labelprinter/bmp"
	"github.com/dancollins/labelprinter/imgutil"
	"github.com/dancollins/labelprinter/label"
	"github.com/dancollins/labelprinter/printer"
)

var (
	output = flag.StringP("output", "o", "label.bmp",
		"output bitmap path")
	qrMode = flag.BoolP("qr", "q", false,
		"stack a QR code of the text above it")
	height = flag.Int("height", 300,
		"total label height in pixels, QR mode only")
	scale = flag.Int("scale", 4,
		"integer text upscaling")
	density = flag.Int("density", 300,
		"pixel density to record, in DPI")
	rotate = flag.BoolP("rotate", "r", false,
		"rotate the label 90 degrees")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] TEXT...\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	text := strings.Join(flag.Args(), "\n")

	var img image.Image
	var err error
	if *qrMode {
		img, err = label.RenderQR(text, *height, *scale)
		if err != nil {
			log.Fatalln(err)
		}
	} else {
		img = label.Render(text, *scale)
	}
	if *rotate {
		img = &imgutil.LeftRotate{Image: img}
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalln(err)
	}
	if err := bmp.Encode(f, imgutil.Flatten(img),
		printer.DPIToPixelsPerMeter(*density)); err != nil {
		f.Close()
		log.Fatalln(err)
	}
	if err := f.Close(); err != nil {
		log.Fatalln(err)
	}
}
