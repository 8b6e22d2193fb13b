// Package recognition trains and queries the face classifier. A trained
// model is an immutable snapshot; the recognizer swaps snapshots
// atomically so recognition never observes a half-trained state.
package recognition

import (
	"image"
	"math"

	"github.com/kozaktomas/face-clock/internal/vision"
)

// Match is a successful identification of a face.
type Match struct {
	EmployeeID int64
	Distance   float64
	Confidence float64
}

// instance is one training example: a texture histogram and the
// employee it belongs to.
type instance struct {
	hist       []float64
	employeeID int64
}

// Model is an immutable nearest-neighbor classifier over local binary
// pattern histograms. Never mutated after Build returns.
type Model struct {
	instances []instance
	employees int
	faceSize  int
}

// Instances returns the number of training examples in the model.
func (m *Model) Instances() int {
	return len(m.instances)
}

// Employees returns the number of distinct people the model knows.
func (m *Model) Employees() int {
	return m.employees
}

// Classify finds the nearest training instance to the normalized face
// and returns its owner together with the chi-square distance. ok is
// false only for an empty model.
func (m *Model) Classify(face *image.Gray) (employeeID int64, distance float64, ok bool) {
	if m == nil || len(m.instances) == 0 {
		return 0, 0, false
	}

	hist := vision.LBPHistogram(face)
	best := math.MaxFloat64
	var bestID int64
	for _, inst := range m.instances {
		d := vision.ChiSquare(hist, inst.hist)
		if d < best {
			best = d
			bestID = inst.employeeID
		}
	}
	return bestID, best, true
}

// Confidence converts a raw distance into a 0-100 score. A perfect
// match scores 100; distances past 100 clamp to zero.
func Confidence(distance float64) float64 {
	c := 100 - distance
	if c < 0 {
		return 0
	}
	return c
}
