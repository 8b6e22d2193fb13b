package session

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/policy"
	"github.com/kozaktomas/face-clock/internal/recognition"
	"github.com/kozaktomas/face-clock/internal/store"
	"github.com/kozaktomas/face-clock/internal/store/mock"
)

// fakeFrames delivers one dummy frame per scripted recognizer step and
// cancels the context when the script runs out.
type fakeFrames struct {
	remaining int
	cancel    context.CancelFunc
	closed    bool
}

func (f *fakeFrames) NextFrame() (image.Image, error) {
	if f.remaining <= 0 {
		f.cancel()
		return nil, errors.New("out of frames")
	}
	f.remaining--
	return image.NewGray(image.Rect(0, 0, 640, 480)), nil
}

func (f *fakeFrames) Close() error {
	f.closed = true
	return nil
}

// scriptedRecognizer returns a fixed sequence of results.
type scriptedRecognizer struct {
	results []recognition.Result
	idx     int
}

func (s *scriptedRecognizer) Recognize(image.Image) recognition.Result {
	if s.idx >= len(s.results) {
		return recognition.Result{}
	}
	r := s.results[s.idx]
	s.idx++
	return r
}

func (s *scriptedRecognizer) AddListener() chan recognition.RetrainEvent {
	return make(chan recognition.RetrainEvent, 1)
}

func (s *scriptedRecognizer) RemoveListener(ch chan recognition.RetrainEvent) {}

func match(employeeID int64) recognition.Result {
	return recognition.Result{
		FaceFound: true,
		Box:       image.Rect(0, 0, 100, 100),
		Match:     &recognition.Match{EmployeeID: employeeID, Distance: 10, Confidence: 90},
	}
}

func unknownFace() recognition.Result {
	return recognition.Result{FaceFound: true, Box: image.Rect(0, 0, 100, 100)}
}

func noFace() recognition.Result {
	return recognition.Result{}
}

type runResult struct {
	events []Event
	frames *fakeFrames
	store  *mock.MockStore
}

func runScript(t *testing.T, st *mock.MockStore, now time.Time, window int, choose ChoiceFunc, results ...recognition.Result) runResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames := &fakeFrames{remaining: len(results), cancel: cancel}
	cfg := config.SessionConfig{StandbyAfterFrames: 2, DisplayClearSeconds: 0}

	s := New(frames, &scriptedRecognizer{results: results}, st, cfg, window)
	s.Now = func() time.Time { return now }
	s.Choose = choose

	var events []Event
	s.Notify = func(e Event) { events = append(events, e) }

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected run to end with cancellation, got %v", err)
	}
	return runResult{events: events, frames: frames, store: st}
}

func resolvedEvents(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.State == StateResolved {
			out = append(out, e)
		}
	}
	return out
}

func morning() time.Time {
	return time.Date(2026, 8, 31, 9, 30, 0, 0, time.Local)
}

func TestStableIdentityLogsTimeIn(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")

	res := runScript(t, st, morning(), 2, nil, match(emp.ID), match(emp.ID))

	resolved := resolvedEvents(res.events)
	if len(resolved) != 1 {
		t.Fatalf("expected one resolution, got %d: %+v", len(resolved), res.events)
	}
	if !resolved[0].Logged {
		t.Fatalf("expected the action to be logged, got %+v", resolved[0])
	}
	if resolved[0].Employee == nil || resolved[0].Employee.ID != emp.ID {
		t.Fatalf("expected Jane on the display, got %+v", resolved[0])
	}

	status, _ := st.DayStatus(context.Background(), emp.ID, morning())
	if !status.HasTimeIn {
		t.Fatal("expected time in to be recorded")
	}
	if !res.frames.closed {
		t.Fatal("the frame source must be closed when the loop ends")
	}
}

func TestAlreadyRecordedSurfacesWithoutError(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")
	st.LogAttendance(context.Background(), emp.ID, store.ActionTimeIn, morning())

	res := runScript(t, st, morning(), 2, nil, match(emp.ID), match(emp.ID))

	resolved := resolvedEvents(res.events)
	if len(resolved) != 1 {
		t.Fatalf("expected one resolution, got %+v", res.events)
	}
	if resolved[0].Logged {
		t.Fatal("nothing should be logged the second time")
	}
	if resolved[0].Message == "" || resolved[0].Employee == nil {
		t.Fatalf("the display must still show identity and a message, got %+v", resolved[0])
	}
}

func TestUnknownFaceRestartsStabilization(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")

	res := runScript(t, st, morning(), 2, nil,
		match(emp.ID), unknownFace(), match(emp.ID), match(emp.ID))

	if got := len(resolvedEvents(res.events)); got != 1 {
		t.Fatalf("expected exactly one resolution after the restart, got %d", got)
	}
}

func TestStandbyAfterNoFaceFramesAndWake(t *testing.T) {
	st := mock.NewMockStore()

	res := runScript(t, st, morning(), 3, nil,
		noFace(), noFace(), noFace(), unknownFace())

	var sawStandby, wokeUp bool
	for _, e := range res.events {
		if e.State == StateStandby {
			sawStandby = true
		}
		if sawStandby && e.State == StateScanning {
			wokeUp = true
		}
	}
	if !sawStandby {
		t.Fatalf("expected standby after consecutive empty frames, got %+v", res.events)
	}
	if !wokeUp {
		t.Fatalf("expected instant wake on the next face, got %+v", res.events)
	}
}

func TestLunchChoiceLogsChosenAction(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")
	lunch := time.Date(2026, 8, 31, 12, 30, 0, 0, time.Local)

	choose := func(e store.Employee, d policy.Decision) (store.Action, bool) {
		if d.Kind != policy.KindChoice {
			t.Errorf("expected a choice decision, got %+v", d)
		}
		return store.ActionStartBreak, true
	}

	runScript(t, st, lunch, 2, choose, match(emp.ID), match(emp.ID))

	status, _ := st.DayStatus(context.Background(), emp.ID, lunch)
	if !status.HasStartBreak {
		t.Fatal("expected the chosen break to be recorded")
	}
}

func TestChoiceWithoutHandlerLogsNothing(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")
	lunch := time.Date(2026, 8, 31, 12, 30, 0, 0, time.Local)

	runScript(t, st, lunch, 2, nil, match(emp.ID), match(emp.ID))

	status, _ := st.DayStatus(context.Background(), emp.ID, lunch)
	if status.HasStartBreak || status.HasTimeIn || status.HasStopBreak || status.HasTimeOut {
		t.Fatalf("expected nothing recorded without an operator, got %+v", status)
	}
}

func TestStaleModelIdentitySkipped(t *testing.T) {
	st := mock.NewMockStore()

	res := runScript(t, st, morning(), 2, nil, match(99), match(99))

	if got := len(resolvedEvents(res.events)); got != 0 {
		t.Fatalf("a deleted employee must not resolve, got %+v", res.events)
	}
}

// failingFrames simulates an unplugged camera: every read errors.
type failingFrames struct {
	calls  int
	closed bool
}

func (f *failingFrames) NextFrame() (image.Image, error) {
	f.calls++
	return nil, errors.New("device gone")
}

func (f *failingFrames) Close() error {
	f.closed = true
	return nil
}

func TestFailingFrameSourceDoesNotSpin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	frames := &failingFrames{}
	cfg := config.SessionConfig{StandbyAfterFrames: 2, DisplayClearSeconds: 0}
	s := New(frames, &scriptedRecognizer{}, mock.NewMockStore(), cfg, 2)

	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the run to end on the deadline, got %v", err)
	}
	if frames.calls > 5 {
		t.Fatalf("expected throttled retries on a dead camera, got %d reads", frames.calls)
	}
	if !frames.closed {
		t.Fatal("the frame source must be closed when the loop ends")
	}
}

func TestStoreFailureKeepsLoopAlive(t *testing.T) {
	st := mock.NewMockStore()
	emp, _ := st.AddEmployee(context.Background(), "Jane Doe")
	st.DayStatusError = errors.New("db down")

	res := runScript(t, st, morning(), 2, nil,
		match(emp.ID), match(emp.ID), noFace())

	resolved := resolvedEvents(res.events)
	if len(resolved) != 1 {
		t.Fatalf("expected a resolution event despite the store failure, got %+v", res.events)
	}
	if resolved[0].Logged {
		t.Fatal("nothing can be logged while the store is down")
	}
}
