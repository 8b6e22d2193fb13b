package vision

import "image"

// LBPH parameters: radius-1, 8-neighbor local binary patterns over an
// 8×8 spatial grid of 256-bin histograms. Each cell histogram is
// normalized by the number of sampled pixels before concatenation, so
// feature vectors from equally sized images are directly comparable.
const (
	lbpGridX = 8
	lbpGridY = 8
	lbpBins  = 256
)

// FeatureDim is the length of an LBPH feature vector.
const FeatureDim = lbpGridX * lbpGridY * lbpBins

// LBPHistogram computes the spatial LBP histogram of a grayscale image.
// Border pixels have no full 8-neighborhood and are skipped.
func LBPHistogram(img *image.Gray) []float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	hist := make([]float64, FeatureDim)
	if w < 3 || h < 3 {
		return hist
	}

	at := func(x, y int) uint8 {
		return img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
	}

	cellW := float64(w) / lbpGridX
	cellH := float64(h) / lbpGridY
	counts := make([]float64, lbpGridX*lbpGridY)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := at(x, y)

			// Neighbors clockwise from top-left; each comparison
			// contributes one bit of the pattern.
			var code uint8
			if at(x-1, y-1) >= center {
				code |= 1 << 7
			}
			if at(x, y-1) >= center {
				code |= 1 << 6
			}
			if at(x+1, y-1) >= center {
				code |= 1 << 5
			}
			if at(x+1, y) >= center {
				code |= 1 << 4
			}
			if at(x+1, y+1) >= center {
				code |= 1 << 3
			}
			if at(x, y+1) >= center {
				code |= 1 << 2
			}
			if at(x-1, y+1) >= center {
				code |= 1 << 1
			}
			if at(x-1, y) >= center {
				code |= 1
			}

			cx := int(float64(x) / cellW)
			cy := int(float64(y) / cellH)
			if cx >= lbpGridX {
				cx = lbpGridX - 1
			}
			if cy >= lbpGridY {
				cy = lbpGridY - 1
			}
			cell := cy*lbpGridX + cx
			hist[cell*lbpBins+int(code)]++
			counts[cell]++
		}
	}

	// Normalize each cell histogram by its pixel count.
	for cell, n := range counts {
		if n == 0 {
			continue
		}
		for b := range lbpBins {
			hist[cell*lbpBins+b] /= n
		}
	}

	return hist
}

// ChiSquare computes the chi-square distance between two histograms.
// Lower means more similar; identical histograms yield 0.
func ChiSquare(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := range n {
		d := a[i] - b[i]
		s := a[i] + b[i]
		if s > 0 {
			sum += d * d / s
		}
	}
	return sum
}
