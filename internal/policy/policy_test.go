package policy

import (
	"testing"
	"time"

	"github.com/kozaktomas/face-clock/internal/store"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, 8, 31, hour, minute, second, 0, time.Local)
}

func TestPeriodBoundaries(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want Period
	}{
		{"midnight", at(0, 0, 0), EarlyLogin},
		{"last second of early login", at(8, 59, 59), EarlyLogin},
		{"morning starts", at(9, 0, 0), MorningWork},
		{"last second of morning", at(11, 59, 59), MorningWork},
		{"lunch starts", at(12, 0, 0), LunchBreak},
		{"last second of lunch", at(12, 59, 59), LunchBreak},
		{"afternoon starts", at(13, 0, 0), AfternoonWork},
		{"last second of afternoon", at(17, 59, 59), AfternoonWork},
		{"after work starts", at(18, 0, 0), AfterWork},
		{"last second of day", at(23, 59, 59), AfterWork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodOf(tt.now); got != tt.want {
				t.Errorf("PeriodOf(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestEarlyLoginAsksForAllFourActions(t *testing.T) {
	d := Decide(at(7, 30, 0), store.DayStatus{})
	if d.Kind != KindChoice {
		t.Fatalf("expected a choice, got %v", d.Kind)
	}
	if len(d.Allowed) != 4 {
		t.Fatalf("expected all four actions offered, got %v", d.Allowed)
	}
}

func TestMorningAutoTimeInOnce(t *testing.T) {
	d := Decide(at(9, 30, 0), store.DayStatus{})
	if d.Kind != KindAuto || d.Action != store.ActionTimeIn {
		t.Fatalf("expected auto time in, got %+v", d)
	}

	d = Decide(at(9, 30, 0), store.DayStatus{HasTimeIn: true})
	if d.Kind != KindNone {
		t.Fatalf("expected no action when already timed in, got %+v", d)
	}
	if d.Message == "" {
		t.Fatal("expected an already-recorded message for the display")
	}
}

func TestLunchOffersBreaksAndTimeIn(t *testing.T) {
	d := Decide(at(12, 15, 0), store.DayStatus{})
	if d.Kind != KindChoice {
		t.Fatalf("expected a choice, got %v", d.Kind)
	}
	want := []store.Action{store.ActionStartBreak, store.ActionStopBreak, store.ActionTimeIn}
	if len(d.Allowed) != len(want) {
		t.Fatalf("expected %v, got %v", want, d.Allowed)
	}
	for i, action := range want {
		if d.Allowed[i] != action {
			t.Fatalf("expected %v, got %v", want, d.Allowed)
		}
	}
}

func TestChoiceExcludesRecordedActions(t *testing.T) {
	d := Decide(at(12, 15, 0), store.DayStatus{HasStartBreak: true})
	if d.Kind != KindChoice {
		t.Fatalf("expected a choice, got %v", d.Kind)
	}
	want := []store.Action{store.ActionStopBreak, store.ActionTimeIn}
	if len(d.Allowed) != len(want) {
		t.Fatalf("expected %v, got %v", want, d.Allowed)
	}
	for i, action := range want {
		if d.Allowed[i] != action {
			t.Fatalf("expected %v, got %v", want, d.Allowed)
		}
	}

	d = Decide(at(7, 30, 0), store.DayStatus{HasTimeIn: true, HasStartBreak: true})
	for _, action := range d.Allowed {
		if action == store.ActionTimeIn || action == store.ActionStartBreak {
			t.Fatalf("recorded action %v still offered in %v", action, d.Allowed)
		}
	}
	if len(d.Allowed) != 2 {
		t.Fatalf("expected the two remaining actions, got %v", d.Allowed)
	}
}

func TestChoiceWithNothingLeftIsNoAction(t *testing.T) {
	full := store.DayStatus{
		HasTimeIn:     true,
		HasTimeOut:    true,
		HasStartBreak: true,
		HasStopBreak:  true,
	}
	d := Decide(at(7, 30, 0), full)
	if d.Kind != KindNone {
		t.Fatalf("expected no action with a full day, got %+v", d)
	}
	if d.Message == "" {
		t.Fatal("expected an already-recorded message for the display")
	}
}

func TestAfternoonAutoTimeInOnce(t *testing.T) {
	d := Decide(at(14, 0, 0), store.DayStatus{})
	if d.Kind != KindAuto || d.Action != store.ActionTimeIn {
		t.Fatalf("expected auto time in for a late arrival, got %+v", d)
	}

	d = Decide(at(14, 0, 0), store.DayStatus{HasTimeIn: true})
	if d.Kind != KindNone {
		t.Fatalf("expected no action when already timed in, got %+v", d)
	}
}

func TestAfterWorkAutoTimeOutOnce(t *testing.T) {
	d := Decide(at(18, 30, 0), store.DayStatus{HasTimeIn: true})
	if d.Kind != KindAuto || d.Action != store.ActionTimeOut {
		t.Fatalf("expected auto time out, got %+v", d)
	}

	d = Decide(at(18, 30, 0), store.DayStatus{HasTimeIn: true, HasTimeOut: true})
	if d.Kind != KindNone {
		t.Fatalf("expected no action when already timed out, got %+v", d)
	}
}

func TestEndToEndMorningScenario(t *testing.T) {
	// An employee recognized at 09:30 with an empty day gets a time in.
	d := Decide(at(9, 30, 0), store.DayStatus{})
	if d.Kind != KindAuto || d.Action != store.ActionTimeIn {
		t.Fatalf("expected time in at 09:30, got %+v", d)
	}
}
