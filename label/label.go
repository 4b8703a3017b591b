// Package label composes printable label images from text.
package label

import (
	"errors"
	"image"
	"image/draw"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dancollins/labelprinter/imgutil"
)

var face = basicfont.Face7x13

// Render draws the text, line by line, black on white, upscaled by the
// given integer factor.
func Render(text string, scale int) image.Image {
	if scale < 1 {
		scale = 1
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSuffix(line, "\r"))
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	width := 1
	for _, line := range lines {
		if advance := font.MeasureString(face, line).Ceil(); advance > width {
			width = advance
		}
	}

	rect := image.Rect(0, 0, width, lineHeight*len(lines))
	img := image.NewRGBA(rect)
	draw.Draw(img, rect, image.White, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}
	for i, line := range lines {
		d.Dot = fixed.P(0, i*lineHeight+ascent)
		d.DrawString(line)
	}

	return &imgutil.Scale{Image: img, Factor: scale}
}

// RenderQR stacks a QR code of the text above the text itself, centered
// within the given total height.
func RenderQR(text string, height, scale int) (image.Image, error) {
	textImg := Render(text, scale)
	textRect := textImg.Bounds()

	// Whatever the text doesn't need, the QR code gets, minus a gap.
	remains := height - textRect.Dy() - 20
	if remains <= 0 {
		return nil, errors.New("label height too small for the text")
	}

	width := textRect.Dx()
	if remains > width {
		width = remains
	}

	code, err := qr.Encode(text, qr.H, qr.Auto)
	if err != nil {
		return nil, err
	}
	code, err = barcode.Scale(code, remains, remains)
	if err != nil {
		return nil, err
	}
	codeRect := code.Bounds()

	combinedRect := image.Rect(0, 0, width, height)
	combined := image.NewRGBA(combinedRect)
	draw.Draw(combined, combinedRect, image.White, image.Point{}, draw.Src)
	draw.Draw(combined,
		combinedRect.Add(image.Point{X: (width - codeRect.Dx()) / 2}),
		code, image.Point{}, draw.Src)

	target := image.Rect(
		(width-textRect.Dx())/2, codeRect.Dy()+20,
		combinedRect.Max.X, combinedRect.Max.Y)
	draw.Draw(combined, target, textImg, textRect.Min, draw.Src)
	return combined, nil
}
