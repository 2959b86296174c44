package model

import (
	"strings"
	"time"
)

// OutcomeKind groups result observations for reporting.
type OutcomeKind string

const (
	OutcomeInvalidCode   OutcomeKind = "invalid_code"
	OutcomePhoneNotFound OutcomeKind = "phone_not_found"
	OutcomeDivergence    OutcomeKind = "divergence"
	OutcomeDialError     OutcomeKind = "dial_error"
	OutcomeCallback      OutcomeKind = "callback"
	OutcomeOperator      OutcomeKind = "operator"
)

// OutcomeKinds are all the outcome kinds in report order.
var OutcomeKinds = []OutcomeKind{
	OutcomeOperator,
	OutcomeCallback,
	OutcomeDialError,
	OutcomePhoneNotFound,
	OutcomeDivergence,
	OutcomeInvalidCode,
}

// ClassifyObservation returns the outcome kind of a result observation. Anything not written
// by the dialer itself is an operator observation.
func ClassifyObservation(obs string) OutcomeKind {
	switch {
	case obs == ObservationInvalidCode:
		return OutcomeInvalidCode
	case obs == ObservationPhoneNotFound:
		return OutcomePhoneNotFound
	case obs == ObservationDialError:
		return OutcomeDialError
	case strings.HasPrefix(obs, "DIVERGÊNCIA:"):
		return OutcomeDivergence
	case strings.HasPrefix(obs, "RETORNO AGENDADO"):
		return OutcomeCallback
	}
	return OutcomeOperator
}

// Summary is the state of the task store.
type Summary struct {
	GeneratedAt       time.Time
	Contacts          int
	ContactsWithPhone int
	// PendingContacts are the contacts whose code is not in the results yet.
	PendingContacts int
	Results         int
	Callbacks       int
	PendingPriority int
	Outcomes        map[OutcomeKind]int
}
