// Package policy maps a stable identity plus the time of day onto a
// concrete attendance action.
package policy

import (
	"fmt"
	"time"

	"github.com/kozaktomas/face-clock/internal/store"
)

// Period is one of the five wall-clock partitions of a working day.
type Period string

const (
	EarlyLogin    Period = "early_login"    // [00:00, 09:00)
	MorningWork   Period = "morning_work"   // [09:00, 12:00)
	LunchBreak    Period = "lunch_break"    // [12:00, 13:00)
	AfternoonWork Period = "afternoon_work" // [13:00, 18:00)
	AfterWork     Period = "after_work"     // [18:00, 24:00)
)

// PeriodOf classifies a wall-clock time. Only the time of day matters.
func PeriodOf(now time.Time) Period {
	minutes := now.Hour()*60 + now.Minute()
	switch {
	case minutes < 9*60:
		return EarlyLogin
	case minutes < 12*60:
		return MorningWork
	case minutes < 13*60:
		return LunchBreak
	case minutes < 18*60:
		return AfternoonWork
	}
	return AfterWork
}

// Kind tells the session what a decision requires of it.
type Kind string

const (
	// KindAuto carries exactly one action to log without asking.
	KindAuto Kind = "auto"
	// KindChoice means the time of day is ambiguous and the operator
	// must pick from Allowed.
	KindChoice Kind = "choice"
	// KindNone means everything for this period is already recorded;
	// show the message, log nothing.
	KindNone Kind = "none"
)

// Decision is the policy's verdict for one stable identity.
type Decision struct {
	Kind    Kind
	Period  Period
	Action  store.Action   // set when Kind is auto
	Allowed []store.Action // set when Kind is choice
	Message string         // set when Kind is none
}

// Decide resolves what should happen for an employee seen at the given
// time, considering what is already recorded for them today.
//
// Mornings auto time-in and evenings auto time-out. The early hours and
// the lunch window are ambiguous, so they ask the operator. Afternoons
// auto time-in once for late arrivals rather than prompting.
func Decide(now time.Time, status store.DayStatus) Decision {
	period := PeriodOf(now)
	switch period {
	case EarlyLogin:
		return choice(period, status,
			store.ActionTimeIn,
			store.ActionTimeOut,
			store.ActionStartBreak,
			store.ActionStopBreak,
		)
	case MorningWork:
		return autoOnce(period, store.ActionTimeIn, status)
	case LunchBreak:
		return choice(period, status,
			store.ActionStartBreak,
			store.ActionStopBreak,
			store.ActionTimeIn,
		)
	case AfternoonWork:
		return autoOnce(period, store.ActionTimeIn, status)
	}
	return autoOnce(AfterWork, store.ActionTimeOut, status)
}

// choice offers the actions not yet recorded today. With nothing left
// to record there is nothing to ask.
func choice(period Period, status store.DayStatus, actions ...store.Action) Decision {
	allowed := make([]store.Action, 0, len(actions))
	for _, a := range actions {
		if !status.Has(a) {
			allowed = append(allowed, a)
		}
	}
	if len(allowed) == 0 {
		return Decision{
			Kind:    KindNone,
			Period:  period,
			Message: "Everything already recorded today.",
		}
	}
	return Decision{Kind: KindChoice, Period: period, Allowed: allowed}
}

func autoOnce(period Period, action store.Action, status store.DayStatus) Decision {
	if status.Has(action) {
		return Decision{
			Kind:    KindNone,
			Period:  period,
			Message: fmt.Sprintf("%s already recorded today.", action.Label()),
		}
	}
	return Decision{Kind: KindAuto, Period: period, Action: action}
}
