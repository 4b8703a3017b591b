package printer

import "github.com/dancollins/labelprinter/bmp"

// DPIToPixelsPerMeter converts a resolution in dots per inch to pixels
// per meter, the unit bitmap files record densities in.
func DPIToPixelsPerMeter(dpi int) int {
	return dpi * 10000 / 254
}

// Fit computes the coordinate mapping that scales img to the device's
// resolution and centers it within the printable area.
//
// The target extent per axis is the image's pixel size converted through
// the ratio of device resolution to image pixel density, so a label keeps
// its physical dimensions regardless of the printer it lands on. The two
// axes scale independently. Centering offsets go negative when the image
// is larger than the printable area and are deliberately not clamped;
// the page clips the overflow.
func Fit(m Metrics, img *bmp.Image) Mapping {
	targetW := img.Width * m.ResX / img.DensityX
	targetH := img.Height * m.ResY / img.DensityY
	return Mapping{
		WindowW:   img.Width,
		WindowH:   img.Height,
		ViewportW: targetW,
		ViewportH: targetH,
		OriginX:   (m.PrintableW - targetW) / 2,
		OriginY:   (m.PrintableH - targetH) / 2,
	}
}
