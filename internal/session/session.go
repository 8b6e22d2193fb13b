// Package session runs the kiosk loop: pull a frame, recognize, debounce,
// then let the attendance policy decide what to log. One frame is in
// flight at a time.
package session

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/policy"
	"github.com/kozaktomas/face-clock/internal/recognition"
	"github.com/kozaktomas/face-clock/internal/store"
	"github.com/kozaktomas/face-clock/internal/track"
)

// State is the visible phase of the kiosk loop.
type State string

const (
	StateScanning  State = "scanning"  // camera on, looking for a face
	StateStandby   State = "standby"   // no face for a while, display dimmed
	StateVerifying State = "verifying" // candidate seen, not yet stable
	StateResolved  State = "resolved"  // identity stable, logging attempted
)

// frameErrorDelay throttles retries when the frame source keeps failing.
const frameErrorDelay = 250 * time.Millisecond

// FrameSource delivers frames. The session owns the source and closes
// it when the loop ends.
type FrameSource interface {
	NextFrame() (image.Image, error)
	Close() error
}

// FaceRecognizer is the slice of the recognizer the session needs.
type FaceRecognizer interface {
	Recognize(frame image.Image) recognition.Result
	AddListener() chan recognition.RetrainEvent
	RemoveListener(ch chan recognition.RetrainEvent)
}

// Event is one display update from the loop.
type Event struct {
	State      State
	Message    string
	Employee   *store.Employee
	Confidence float64
	Logged     bool
}

// ChoiceFunc resolves an ambiguous period by asking the operator to
// pick one of the allowed actions. ok=false means nothing was chosen.
type ChoiceFunc func(emp store.Employee, d policy.Decision) (store.Action, bool)

// Session drives one camera. Construct with New, run with Run.
type Session struct {
	frames     FrameSource
	recognizer FaceRecognizer
	st         store.Store
	cfg        config.SessionConfig
	window     int

	// Notify receives every display update. May be nil.
	Notify func(Event)
	// Choose resolves ambiguous periods. Nil means ambiguous periods
	// log nothing.
	Choose ChoiceFunc
	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func New(frames FrameSource, recognizer FaceRecognizer, st store.Store, cfg config.SessionConfig, stabilityWindow int) *Session {
	return &Session{
		frames:     frames,
		recognizer: recognizer,
		st:         st,
		cfg:        cfg,
		window:     stabilityWindow,
		Now:        time.Now,
	}
}

func (s *Session) notify(event Event) {
	if s.Notify != nil {
		s.Notify(event)
	}
}

// Run processes frames until the context is cancelled. The frame source
// is closed on every exit path. Per-frame failures are logged and
// skipped; they never stop the loop.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		if err := s.frames.Close(); err != nil {
			log.Printf("could not close frame source: %v", err)
		}
	}()

	retrained := s.recognizer.AddListener()
	defer s.recognizer.RemoveListener(retrained)

	tracker := track.NewStabilityTracker(s.window)
	noFaceFrames := 0
	standby := false

	s.notify(Event{State: StateScanning, Message: "Looking for a face"})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retrained:
			// The model changed under us; whatever was stabilizing
			// must start over.
			tracker.Break()
		default:
		}

		frame, err := s.frames.NextFrame()
		if err != nil {
			log.Printf("skipping frame: %v", err)
			// An unplugged camera fails every read; pause so the loop
			// does not spin.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(frameErrorDelay):
			}
			continue
		}

		result := s.recognizer.Recognize(frame)
		if !result.FaceFound {
			tracker.Break()
			noFaceFrames++
			if !standby && noFaceFrames >= s.cfg.StandbyAfterFrames {
				standby = true
				s.notify(Event{State: StateStandby, Message: "Standby"})
			}
			continue
		}

		noFaceFrames = 0
		if standby {
			standby = false
			s.notify(Event{State: StateScanning, Message: "Looking for a face"})
		}

		if result.Match == nil {
			// Unknown face: a gap in identity, the window restarts.
			tracker.Break()
			continue
		}

		if !tracker.Observe(result.Match.EmployeeID) {
			s.notify(Event{State: StateVerifying})
			continue
		}

		s.resolve(ctx, result.Match)
		tracker.Break()

		// Hold the result on screen, then clear back to scanning.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.DisplayClearDelay()):
		}
		s.notify(Event{State: StateScanning, Message: "Looking for a face"})
	}
}

// resolve looks the employee up, asks the policy what to do, and logs.
// Store failures surface on the display but never stop the loop.
func (s *Session) resolve(ctx context.Context, match *recognition.Match) {
	emp, err := s.st.GetEmployeeByID(ctx, match.EmployeeID)
	if err != nil {
		log.Printf("could not load employee %d: %v", match.EmployeeID, err)
		return
	}
	if emp == nil {
		// Trained on an employee that has since been deleted.
		log.Printf("recognized unknown employee id %d, model is stale", match.EmployeeID)
		return
	}

	now := s.Now()
	status, err := s.st.DayStatus(ctx, emp.ID, now)
	if err != nil {
		log.Printf("could not load day status for %s: %v", emp.Code, err)
		s.notify(Event{State: StateResolved, Employee: emp, Confidence: match.Confidence,
			Message: "Attendance unavailable, try again"})
		return
	}

	decision := policy.Decide(now, status)
	switch decision.Kind {
	case policy.KindNone:
		s.notify(Event{State: StateResolved, Employee: emp, Confidence: match.Confidence,
			Message: decision.Message})
		return
	case policy.KindChoice:
		if s.Choose == nil {
			s.notify(Event{State: StateResolved, Employee: emp, Confidence: match.Confidence,
				Message: "Manual action required"})
			return
		}
		action, ok := s.Choose(*emp, decision)
		if !ok {
			s.notify(Event{State: StateResolved, Employee: emp, Confidence: match.Confidence,
				Message: "No action chosen"})
			return
		}
		decision.Action = action
	}

	logged, message, err := s.st.LogAttendance(ctx, emp.ID, decision.Action, now)
	if err != nil {
		log.Printf("could not log %s for %s: %v", decision.Action, emp.Code, err)
		message = "Attendance unavailable, try again"
	}
	if message == "" {
		message = fmt.Sprintf("%s recorded.", decision.Action.Label())
	}
	s.notify(Event{
		State:      StateResolved,
		Employee:   emp,
		Confidence: match.Confidence,
		Message:    message,
		Logged:     logged,
	})
}
