package detect

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/face-clock/internal/config"
)

// HaarSource detects faces using an OpenCV Haar cascade classifier.
// It is not safe for concurrent use; the kiosk loop keeps one frame in
// flight at a time.
type HaarSource struct {
	classifier gocv.CascadeClassifier
	cfg        config.DetectorConfig
}

// NewHaarSource loads the cascade XML from cfg.CascadePath. The caller
// must Close the returned source.
func NewHaarSource(cfg config.DetectorConfig) (*HaarSource, error) {
	if _, err := os.Stat(cfg.CascadePath); err != nil {
		return nil, fmt.Errorf("cascade file %q not readable: %w", cfg.CascadePath, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		_ = classifier.Close()
		return nil, fmt.Errorf("could not load cascade from %q", cfg.CascadePath)
	}

	return &HaarSource{classifier: classifier, cfg: cfg}, nil
}

// DetectBoxes runs the cascade over an equalized grayscale copy of the
// frame and returns the resulting bounding boxes.
func (h *HaarSource) DetectBoxes(frame image.Image) ([]image.Rectangle, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("could not convert frame to mat: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)
	gocv.EqualizeHist(gray, &gray)

	b := frame.Bounds()
	minSide := h.cfg.MinFacePx
	maxSide := h.cfg.MaxFacePx
	if longest := max(b.Dx(), b.Dy()); maxSide > longest {
		maxSide = longest
	}
	if minSide >= maxSide {
		return nil, nil
	}

	boxes := h.classifier.DetectMultiScaleWithParams(
		gray,
		h.cfg.ScaleFactor,
		h.cfg.MinNeighbors,
		0,
		image.Pt(minSide, minSide),
		image.Pt(maxSide, maxSide),
	)
	return boxes, nil
}

func (h *HaarSource) Close() error {
	return h.classifier.Close()
}
