// Package vision provides the pure-Go image math for the recognition
// pipeline: grayscale conversion, the canonical face normalization
// transform, enrollment augmentations, and LBPH feature extraction.
package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ToGray converts any image to 8-bit grayscale using the ITU-R BT.601
// luma formula.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: clamp8(luma)})
		}
	}
	return gray
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Resize scales a grayscale image to size×size using bicubic
// (Catmull-Rom) interpolation.
func Resize(img *image.Gray, size int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// EqualizeHist applies histogram equalization for lighting invariance.
func EqualizeHist(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return img
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}

	// Map each level through the cumulative distribution.
	var lut [256]uint8
	cdf := 0
	for i := range 256 {
		cdf += hist[i]
		lut[i] = clamp8(float64(cdf) * 255.0 / float64(total))
	}

	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: lut[img.GrayAt(x, y).Y]})
		}
	}
	return out
}

// GaussianBlur3 applies a single pass of the 3×3 gaussian kernel
// (1 2 1; 2 4 2; 1 2 1)/16 for light noise reduction.
func GaussianBlur3(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) int {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return int(img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	for y := range h {
		for x := range w {
			sum := at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1) +
				2*at(x-1, y) + 4*at(x, y) + 2*at(x+1, y) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			out.SetGray(x, y, color.Gray{Y: uint8((sum + 8) / 16)})
		}
	}
	return out
}

// FlipHorizontal mirrors the image left-to-right.
func FlipHorizontal(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			out.SetGray(x, y, color.Gray{Y: img.GrayAt(bounds.Min.X+w-1-x, bounds.Min.Y+y).Y})
		}
	}
	return out
}

// Gamma applies gamma correction. Values above 1 brighten the image,
// values below 1 darken it.
func Gamma(img *image.Gray, gamma float64) *image.Gray {
	if gamma <= 0 {
		gamma = 1
	}
	var lut [256]uint8
	inv := 1.0 / gamma
	for i := range 256 {
		lut[i] = clamp8(255.0 * math.Pow(float64(i)/255.0, inv))
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			out.SetGray(x, y, color.Gray{Y: lut[img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y]})
		}
	}
	return out
}

// Normalize is the canonical face transform: bicubic resize to
// size×size, histogram equalization, light gaussian blur. It is applied
// identically at enrollment, training, and recognition so that all
// three stages compare like-for-like representations.
func Normalize(img image.Image, size int) *image.Gray {
	gray := ToGray(img)
	resized := Resize(gray, size)
	equalized := EqualizeHist(resized)
	return GaussianBlur3(equalized)
}

// Crop extracts a rectangular region, clamped to the image bounds.
// Returns nil when the clamped region is empty.
func Crop(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil
	}
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(rect)
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(out, image.Point{}, img, rect, draw.Src, nil)
	return out
}

// LoadGray decodes an image file into grayscale.
func LoadGray(path string) (*image.Gray, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return ToGray(img), nil
}

// SavePNG writes a grayscale image as PNG.
func SavePNG(path string, img *image.Gray) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}
