// Package detect locates faces in frames and gates them by proximity.
// The cascade itself sits behind the BoxSource interface so the gating
// logic stays testable without OpenCV.
package detect

import (
	"image"
	"log"
	"math"
	"sort"

	"github.com/kozaktomas/face-clock/internal/config"
)

// BoxSource finds candidate face bounding boxes in a frame.
type BoxSource interface {
	DetectBoxes(frame image.Image) ([]image.Rectangle, error)
}

// Detector wraps a BoxSource with size-, area-, and distance-based
// gating. A nil BoxSource is the explicit degraded mode: the camera
// stays usable but every query returns no faces.
type Detector struct {
	src BoxSource
	cfg config.DetectorConfig
}

func New(src BoxSource, cfg config.DetectorConfig) *Detector {
	return &Detector{src: src, cfg: cfg}
}

// Degraded reports whether detection is disabled.
func (d *Detector) Degraded() bool {
	return d.src == nil
}

// Detect returns all face boxes in the frame. Detector failures on a
// single frame are swallowed so the frame loop keeps running.
func (d *Detector) Detect(frame image.Image) []image.Rectangle {
	if d.src == nil || frame == nil {
		return nil
	}
	boxes, err := d.src.DetectBoxes(frame)
	if err != nil {
		log.Printf("face detection failed, skipping frame: %v", err)
		return nil
	}
	return boxes
}

// ClosestFace returns the largest box that passes the recognition size
// and area-ratio gates, or ok=false when none qualify. This is the
// query used when capturing enrollment samples.
func (d *Detector) ClosestFace(frame image.Image) (image.Rectangle, bool) {
	boxes := d.Detect(frame)
	if len(boxes) == 0 {
		return image.Rectangle{}, false
	}

	sortByAreaDesc(boxes)

	b := frame.Bounds()
	frameArea := float64(b.Dx() * b.Dy())
	for _, box := range boxes {
		if d.closeEnough(box, frameArea) {
			return box, true
		}
	}
	return image.Rectangle{}, false
}

// OptimalFaces returns boxes whose estimated physical distance falls in
// the configured range, largest first. This is the gate used for
// recognition; plain Detect is for feedback only.
func (d *Detector) OptimalFaces(frame image.Image) []image.Rectangle {
	boxes := d.Detect(frame)
	if len(boxes) == 0 {
		return nil
	}

	optimal := boxes[:0]
	for _, box := range boxes {
		dist := d.DistanceInches(box)
		if dist >= d.cfg.MinDistanceInches && dist <= d.cfg.MaxDistanceInches {
			optimal = append(optimal, box)
		}
	}
	sortByAreaDesc(optimal)
	return optimal
}

// DistanceInches estimates how far a face is from the camera using the
// pinhole relation: distance = (averageFaceWidth × focalLength) / boxWidthPx.
func (d *Detector) DistanceInches(box image.Rectangle) float64 {
	w := box.Dx()
	if w <= 0 {
		return math.MaxFloat64
	}
	return d.cfg.AvgFaceWidthInches * d.cfg.FocalLength / float64(w)
}

func (d *Detector) closeEnough(box image.Rectangle, frameArea float64) bool {
	if box.Dx() < d.cfg.MinRecognitionPx || box.Dy() < d.cfg.MinRecognitionPx {
		return false
	}
	if frameArea <= 0 {
		return false
	}
	areaRatio := float64(box.Dx()*box.Dy()) / frameArea
	return areaRatio >= d.cfg.MinAreaRatio
}

func sortByAreaDesc(boxes []image.Rectangle) {
	sort.Slice(boxes, func(i, j int) bool {
		return boxes[i].Dx()*boxes[i].Dy() > boxes[j].Dx()*boxes[j].Dy()
	})
}
