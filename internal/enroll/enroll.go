// Package enroll registers new employees from a captured frame and
// persists their training samples.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/detect"
	"github.com/kozaktomas/face-clock/internal/recognition"
	"github.com/kozaktomas/face-clock/internal/store"
	"github.com/kozaktomas/face-clock/internal/vision"
)

// ErrNoFace means the frame holds no face close enough to capture.
var ErrNoFace = errors.New("no usable face in frame")

// DuplicateError reports that the captured face already matches an
// enrolled employee. The operator must confirm before enrolling anyway.
type DuplicateError struct {
	Employee   *store.Employee
	Confidence float64
}

func (e *DuplicateError) Error() string {
	name := "an already enrolled employee"
	if e.Employee != nil {
		name = fmt.Sprintf("%s (%s)", e.Employee.Name, e.Employee.Code)
	}
	return fmt.Sprintf("face matches %s with confidence %.0f", name, e.Confidence)
}

// Service captures faces, guards against double enrollment, and keeps
// the model retrained as samples change.
type Service struct {
	st         store.Store
	detector   *detect.Detector
	recognizer *recognition.Recognizer
	faceSize   int
	dir        string
}

func NewService(st store.Store, detector *detect.Detector, recognizer *recognition.Recognizer,
	recog config.RecognitionConfig, samples config.SamplesConfig) *Service {
	return &Service{
		st:         st,
		detector:   detector,
		recognizer: recognizer,
		faceSize:   recog.FaceSize,
		dir:        samples.Dir,
	}
}

// Enroll creates a new employee from the closest face in the frame and
// stores the face with its augmentations as training samples. Unless
// force is set, a face that matches an existing employee is rejected
// with a DuplicateError carrying that identity. The model is retrained
// before returning.
func (s *Service) Enroll(ctx context.Context, name string, frame image.Image, force bool) (store.Employee, error) {
	face, err := s.captureFace(frame)
	if err != nil {
		return store.Employee{}, err
	}

	if !force {
		if match, dup := s.recognizer.CheckDuplicate(vision.Normalize(face, s.faceSize)); dup {
			existing, err := s.st.GetEmployeeByID(ctx, match.EmployeeID)
			if err != nil {
				return store.Employee{}, fmt.Errorf("could not look up duplicate candidate: %w", err)
			}
			return store.Employee{}, &DuplicateError{Employee: existing, Confidence: match.Confidence}
		}
	}

	emp, err := s.st.AddEmployee(ctx, name)
	if err != nil {
		return store.Employee{}, fmt.Errorf("could not create employee: %w", err)
	}

	if err := s.persistSamples(ctx, emp.ID, face); err != nil {
		return store.Employee{}, err
	}
	if _, err := s.recognizer.Train(ctx, nil); err != nil {
		return store.Employee{}, fmt.Errorf("could not retrain after enrollment: %w", err)
	}
	return emp, nil
}

// AddSamples captures another face for an existing employee and
// retrains. Used to improve recognition with extra angles.
func (s *Service) AddSamples(ctx context.Context, employeeID int64, frame image.Image) error {
	emp, err := s.st.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("could not look up employee: %w", err)
	}
	if emp == nil {
		return fmt.Errorf("employee %d not found", employeeID)
	}

	face, err := s.captureFace(frame)
	if err != nil {
		return err
	}
	if err := s.persistSamples(ctx, employeeID, face); err != nil {
		return err
	}
	if _, err := s.recognizer.Train(ctx, nil); err != nil {
		return fmt.Errorf("could not retrain after adding samples: %w", err)
	}
	return nil
}

// captureFace crops the closest face and scales it to the canonical
// size. The stored sample stays un-equalized: the trainer applies the
// full normalization itself, exactly as recognition does to live crops.
func (s *Service) captureFace(frame image.Image) (*image.Gray, error) {
	box, ok := s.detector.ClosestFace(frame)
	if !ok {
		return nil, ErrNoFace
	}
	crop := vision.Crop(frame, box)
	if crop == nil {
		return nil, ErrNoFace
	}
	return vision.Resize(vision.ToGray(crop), s.faceSize), nil
}

// persistSamples stores the face plus its lighting and mirror variants
// so one capture still trains a usable model.
func (s *Service) persistSamples(ctx context.Context, employeeID int64, face *image.Gray) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("could not create samples directory: %w", err)
	}

	variants := []struct {
		suffix string
		img    *image.Gray
	}{
		{"orig", face},
		{"flip", vision.FlipHorizontal(face)},
		{"bright", vision.Gamma(face, 1.3)},
		{"dark", vision.Gamma(face, 0.7)},
	}

	for _, v := range variants {
		path := filepath.Join(s.dir, fmt.Sprintf("%d-%s-%s.png", employeeID, uuid.NewString(), v.suffix))
		if err := vision.SavePNG(path, v.img); err != nil {
			return fmt.Errorf("could not save face sample: %w", err)
		}
		if err := s.st.AddFaceSample(ctx, employeeID, path); err != nil {
			return fmt.Errorf("could not record face sample: %w", err)
		}
	}
	return nil
}
