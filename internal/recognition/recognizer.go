package recognition

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/detect"
	"github.com/kozaktomas/face-clock/internal/store"
	"github.com/kozaktomas/face-clock/internal/vision"
)

// RetrainEvent describes the outcome of one training run.
type RetrainEvent struct {
	Trained   bool `json:"trained"`
	Employees int  `json:"employees"`
	Instances int  `json:"instances"`
}

// Result is the outcome of recognizing one frame.
type Result struct {
	FaceFound bool            // a face passed the proximity gate
	Box       image.Rectangle // where it was, zero when FaceFound is false
	Match     *Match          // nil when the face is unknown or no model is trained
}

// Recognizer pairs a face detector with the trained model. Recognize
// and Train may run concurrently; the model pointer is swapped
// atomically.
type Recognizer struct {
	cfg      config.RecognitionConfig
	detector *detect.Detector
	samples  store.SampleStore
	model    atomic.Pointer[Model]

	mu        sync.Mutex
	listeners []chan RetrainEvent
}

func New(detector *detect.Detector, samples store.SampleStore, cfg config.RecognitionConfig) *Recognizer {
	return &Recognizer{
		cfg:      cfg,
		detector: detector,
		samples:  samples,
	}
}

// Trained reports whether a model is currently available.
func (r *Recognizer) Trained() bool {
	return r.model.Load() != nil
}

// Model returns the current snapshot, nil when untrained.
func (r *Recognizer) Model() *Model {
	return r.model.Load()
}

// AddListener subscribes to retrain events.
func (r *Recognizer) AddListener() chan RetrainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan RetrainEvent, 4)
	r.listeners = append(r.listeners, ch)
	return ch
}

// RemoveListener unsubscribes and closes the channel.
func (r *Recognizer) RemoveListener(ch chan RetrainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, listener := range r.listeners {
		if listener == ch {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

func (r *Recognizer) sendEvent(event RetrainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, listener := range r.listeners {
		select {
		case listener <- event:
		default:
			// listener buffer full, skip
		}
	}
}

// Train rebuilds the model from every stored face sample and swaps it
// in. With fewer than two usable samples the recognizer becomes
// untrained; a half-trained or failed run never leaves a stale model
// behind. progress may be nil.
func (r *Recognizer) Train(ctx context.Context, progress func(done, total int)) (RetrainEvent, error) {
	samples, err := r.samples.AllSamples(ctx)
	if err != nil {
		r.model.Store(nil)
		event := RetrainEvent{}
		r.sendEvent(event)
		return event, fmt.Errorf("could not list face samples: %w", err)
	}

	var instances []instance
	labels := make(map[int64]bool)
	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			r.model.Store(nil)
			event := RetrainEvent{}
			r.sendEvent(event)
			return event, err
		}

		gray, err := vision.LoadGray(sample.Path)
		if err != nil {
			// A missing or corrupt file must not sink the whole run.
			log.Printf("skipping unreadable face sample %s: %v", sample.Path, err)
			continue
		}
		face := vision.Normalize(gray, r.cfg.FaceSize)

		// Each sample trains twice: as captured and mirrored, so a
		// slightly turned head still matches.
		instances = append(instances,
			instance{hist: vision.LBPHistogram(face), employeeID: sample.EmployeeID},
			instance{hist: vision.LBPHistogram(vision.FlipHorizontal(face)), employeeID: sample.EmployeeID},
		)
		labels[sample.EmployeeID] = true

		if progress != nil {
			progress(i+1, len(samples))
		}
	}

	if len(instances) < 2 {
		r.model.Store(nil)
		event := RetrainEvent{}
		r.sendEvent(event)
		return event, nil
	}

	model := &Model{
		instances: instances,
		employees: len(labels),
		faceSize:  r.cfg.FaceSize,
	}
	r.model.Store(model)

	event := RetrainEvent{
		Trained:   true,
		Employees: model.Employees(),
		Instances: model.Instances(),
	}
	r.sendEvent(event)
	return event, nil
}

// Recognize detects the closest in-range face in the frame and
// classifies it. An unknown face, or any face while untrained, yields
// FaceFound=true with a nil Match.
func (r *Recognizer) Recognize(frame image.Image) Result {
	faces := r.detector.OptimalFaces(frame)
	if len(faces) == 0 {
		return Result{}
	}

	box := faces[0]
	result := Result{FaceFound: true, Box: box}

	model := r.model.Load()
	if model == nil {
		return result
	}

	crop := vision.Crop(frame, box)
	if crop == nil {
		return result
	}
	face := vision.Normalize(crop, r.cfg.FaceSize)

	employeeID, distance, ok := model.Classify(face)
	if !ok || distance >= r.cfg.UnknownThreshold {
		return result
	}

	result.Match = &Match{
		EmployeeID: employeeID,
		Distance:   distance,
		Confidence: Confidence(distance),
	}
	return result
}

// CheckDuplicate classifies an already-normalized face and reports
// whether it matches an enrolled employee strongly enough to be the
// same person. Used to stop the same face enrolling twice.
func (r *Recognizer) CheckDuplicate(face *image.Gray) (*Match, bool) {
	model := r.model.Load()
	if model == nil {
		return nil, false
	}

	employeeID, distance, ok := model.Classify(face)
	if !ok {
		return nil, false
	}
	confidence := Confidence(distance)
	if confidence <= r.cfg.DuplicateThreshold {
		return nil, false
	}
	return &Match{EmployeeID: employeeID, Distance: distance, Confidence: confidence}, true
}
