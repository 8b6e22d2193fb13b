// Package camera opens a local video device and hands out frames as
// standard library images.
package camera

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/face-clock/internal/config"
)

// Source is an open video device. Not safe for concurrent use.
type Source struct {
	capture *gocv.VideoCapture
	device  int
	mat     gocv.Mat
}

// Open probes device indices starting at cfg.DeviceIndex until one
// opens and delivers a frame, trying cfg.MaxProbe indices in total.
// Webcams frequently enumerate at an unexpected index, so a single
// fixed index is not reliable.
func Open(cfg config.CameraConfig) (*Source, error) {
	probe := cfg.MaxProbe
	if probe < 1 {
		probe = 1
	}

	var lastErr error
	for i := cfg.DeviceIndex; i < cfg.DeviceIndex+probe; i++ {
		capture, err := gocv.OpenVideoCapture(i)
		if err != nil {
			lastErr = err
			continue
		}

		// Some backends report opened but never produce a frame.
		// Grab one to prove the device works before committing.
		test := gocv.NewMat()
		if ok := capture.Read(&test); !ok || test.Empty() {
			_ = test.Close()
			_ = capture.Close()
			lastErr = fmt.Errorf("device %d opened but produced no frame", i)
			continue
		}
		_ = test.Close()

		return &Source{
			capture: capture,
			device:  i,
			mat:     gocv.NewMat(),
		}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no device responded")
	}
	return nil, fmt.Errorf("could not open camera (probed %d devices from index %d): %w",
		probe, cfg.DeviceIndex, lastErr)
}

// Device returns the index of the device that was opened.
func (s *Source) Device() int {
	return s.device
}

// NextFrame grabs the next frame from the device.
func (s *Source) NextFrame() (image.Image, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, fmt.Errorf("could not read frame from device %d", s.device)
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("could not convert frame to image: %w", err)
	}
	return img, nil
}

// Close releases the device. Safe to call more than once.
func (s *Source) Close() error {
	if s.capture == nil {
		return nil
	}
	_ = s.mat.Close()
	err := s.capture.Close()
	s.capture = nil
	return err
}
