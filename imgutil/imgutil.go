// Package imgutil provides small image.Image adaptors used when
// composing label graphics. All adaptors report bounds starting at the
// origin, whatever coordinate space the source lives in.
package imgutil

import (
	"image"
	"image/color"
	"image/draw"
)

// Scale upscales an image by an integer factor, nearest-neighbour.
type Scale struct {
	Image  image.Image
	Factor int
}

// ColorModel implements image.Image.
func (s *Scale) ColorModel() color.Model {
	return s.Image.ColorModel()
}

// Bounds implements image.Image.
func (s *Scale) Bounds() image.Rectangle {
	r := s.Image.Bounds()
	return image.Rect(0, 0, r.Dx()*s.Factor, r.Dy()*s.Factor)
}

// At implements image.Image.
func (s *Scale) At(x, y int) color.Color {
	r := s.Image.Bounds()
	return s.Image.At(r.Min.X+x/s.Factor, r.Min.Y+y/s.Factor)
}

// LeftRotate turns an image 90 degrees counter-clockwise, so that the
// source's rightmost column becomes the top row.
type LeftRotate struct {
	Image image.Image
}

// ColorModel implements image.Image.
func (lr *LeftRotate) ColorModel() color.Model {
	return lr.Image.ColorModel()
}

// Bounds implements image.Image.
func (lr *LeftRotate) Bounds() image.Rectangle {
	r := lr.Image.Bounds()
	return image.Rect(0, 0, r.Dy(), r.Dx())
}

// At implements image.Image.
func (lr *LeftRotate) At(x, y int) color.Color {
	r := lr.Image.Bounds()
	return lr.Image.At(r.Max.X-1-y, r.Min.Y+x)
}

// Flatten composes an image over an opaque white background at the
// origin. Encoders that cannot express transparency want their input
// put through this first.
func Flatten(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Over)
	return out
}
