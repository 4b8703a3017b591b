// Package bmp reads and writes the uncompressed Windows bitmap files
// used as label images.
package bmp

// Resources:
//  https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader
//  https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapinfoheader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
)

// ErrInvalidFormat marks files that cannot be used as label images,
// whether missing, oversized, or internally inconsistent.
var ErrInvalidFormat = errors.New("invalid label image")

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	headerSize     = fileHeaderSize + infoHeaderSize

	// "BM" read as a little-endian 16-bit word.
	signature = 0x4d42
)

// Image is a decoded label bitmap. The whole file stays in one buffer
// owned by the Image; Info and Pixels return views into it.
type Image struct {
	Path          string
	Width, Height int // pixels, magnitudes
	// Pixel densities in pixels per meter.
	DensityX, DensityY int

	data   []byte
	offset int
}

// Open reads a label bitmap into memory and validates its headers.
// All failures wrap ErrInvalidFormat and name the offending file.
func Open(path string) (*Image, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if fi.Size() > math.MaxUint32 {
		return nil, fmt.Errorf("%s: %w: too large to process", path, ErrInvalidFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	img, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img.Path = path
	return img, nil
}

func decode(data []byte) (*Image, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidFormat)
	}
	if binary.LittleEndian.Uint16(data[0:2]) != signature {
		return nil, fmt.Errorf("%w: not a bitmap file", ErrInvalidFormat)
	}

	// The file must be exactly as long as it claims to be, and the pixel
	// data must start past the header region and within the file.
	declared := binary.LittleEndian.Uint32(data[2:6])
	if declared != uint32(len(data)) {
		return nil, fmt.Errorf("%w: declared size %d, actual size %d",
			ErrInvalidFormat, declared, len(data))
	}
	offset := binary.LittleEndian.Uint32(data[10:14])
	if offset < headerSize || offset > uint32(len(data)) {
		return nil, fmt.Errorf("%w: pixel data offset %d out of bounds",
			ErrInvalidFormat, offset)
	}
	if offset == uint32(len(data)) {
		return nil, fmt.Errorf("%w: no pixel data", ErrInvalidFormat)
	}

	width := abs32(data[18:22])
	height := abs32(data[22:26])
	densityX := abs32(data[38:42])
	densityY := abs32(data[42:46])
	if densityX == 0 || densityY == 0 {
		return nil, fmt.Errorf("%w: zero pixel density", ErrInvalidFormat)
	}

	return &Image{
		Width:    width,
		Height:   height,
		DensityX: densityX,
		DensityY: densityY,
		data:     data,
		offset:   int(offset),
	}, nil
}

// abs32 reads a little-endian 32-bit integer as a magnitude. The height
// field in particular may be negative to signal top-down row order.
func abs32(b []byte) int {
	v := int(int32(binary.LittleEndian.Uint32(b)))
	if v < 0 {
		return -v
	}
	return v
}

// Info returns the BITMAPINFO region verbatim, i.e. the info header
// followed by any color table, as the renderer needs it.
func (img *Image) Info() []byte {
	return img.data[fileHeaderSize:img.offset]
}

// Pixels returns the raw pixel data.
func (img *Image) Pixels() []byte {
	return img.data[img.offset:]
}

// Encode writes img as a 24-bit uncompressed bitmap with the given pixel
// density, in pixels per meter, recorded for both axes. The output decodes
// back through Open.
func Encode(w io.Writer, img image.Image, density int) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return errors.New("refusing to encode an empty image")
	}

	// Rows are padded to four bytes.
	rowSize := (width*3 + 3) &^ 3
	fileSize := headerSize + rowSize*height

	header := make([]byte, headerSize)
	header[0], header[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(header[2:], uint32(fileSize))
	binary.LittleEndian.PutUint32(header[10:], headerSize)
	binary.LittleEndian.PutUint32(header[14:], infoHeaderSize)
	binary.LittleEndian.PutUint32(header[18:], uint32(width))
	binary.LittleEndian.PutUint32(header[22:], uint32(height))
	binary.LittleEndian.PutUint16(header[26:], 1)
	binary.LittleEndian.PutUint16(header[28:], 24)
	binary.LittleEndian.PutUint32(header[34:], uint32(rowSize*height))
	binary.LittleEndian.PutUint32(header[38:], uint32(density))
	binary.LittleEndian.PutUint32(header[42:], uint32(density))
	if _, err := w.Write(header); err != nil {
		return err
	}

	// Bottom-up BGR rows.
	row := make([]byte, rowSize)
	for y := bounds.Max.Y - 1; y >= bounds.Min.Y; y-- {
		i := 0
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			row[i+0] = byte(b >> 8)
			row[i+1] = byte(g >> 8)
			row[i+2] = byte(r >> 8)
			i += 3
		}
		for ; i < rowSize; i++ {
			row[i] = 0
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
