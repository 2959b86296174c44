package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CallbackDay is the relative day choice offered to the operator when scheduling a callback.
type CallbackDay int

const (
	// CallbackDayUnset means no relative day was chosen.
	CallbackDayUnset CallbackDay = iota
	CallbackDayToday
	CallbackDayTomorrow
	CallbackDayAfterTomorrow
)

// String returns the label shown to the operator.
func (d CallbackDay) String() string {
	switch d {
	case CallbackDayToday:
		return "Hoje"
	case CallbackDayTomorrow:
		return "Amanhã"
	case CallbackDayAfterTomorrow:
		return "Depois de Amanhã"
	}
	return ""
}

func (d CallbackDay) offset() int { return int(d) - 1 }

var callbackTimeRegexp = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ScheduleRequest is the raw input of the operator to schedule a callback.
type ScheduleRequest struct {
	// Day is the relative day chosen, ignored when Date is set.
	Day CallbackDay
	// Date is an explicit date in dd/mm/yyyy format.
	Date string
	// Time is the callback time in 24h HH:MM format.
	Time string
}

// Schedule is a validated callback date and time.
type Schedule struct {
	Date string
	Time string
}

// NewCallbackSchedule validates the operator input and resolves the relative day against now.
func NewCallbackSchedule(req ScheduleRequest, now time.Time) (Schedule, error) {
	var date string
	switch explicit := strings.TrimSpace(req.Date); {
	case explicit != "":
		t, err := time.ParseInLocation(RecordDateLayout, explicit, now.Location())
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid date %q, use dd/mm/yyyy: %w", explicit, ErrNotValid)
		}
		date = t.Format(RecordDateLayout)
	case req.Day >= CallbackDayToday && req.Day <= CallbackDayAfterTomorrow:
		date = now.AddDate(0, 0, req.Day.offset()).Format(RecordDateLayout)
	default:
		return Schedule{}, fmt.Errorf("a callback date must be selected: %w", ErrNotValid)
	}

	hour := strings.TrimSpace(req.Time)
	if !callbackTimeRegexp.MatchString(hour) {
		return Schedule{}, fmt.Errorf("invalid time %q, use HH:MM: %w", hour, ErrNotValid)
	}

	return Schedule{Date: date, Time: hour}, nil
}
