package model

import (
	"fmt"
	"time"
)

const (
	// RecordTimeLayout is the layout used for the HORA column.
	RecordTimeLayout = "15:04:05"
	// RecordDateLayout is the layout used for the DATA column.
	RecordDateLayout = "02/01/2006"
	// CallbackTimeLayout is the layout the operator uses to schedule callbacks.
	CallbackTimeLayout = "15:04"
)

// Observations written by the dialer itself.
const (
	ObservationInvalidCode   = "CÓDIGO/CNPJ INVÁLIDO"
	ObservationPhoneNotFound = "TELEFONE NÃO ENCONTRADO"
	ObservationDialError     = "ERRO AO DISCAR"
	ObservationEmpty         = "N/A"
)

// CallbackStatusWaiting is the status of a freshly scheduled callback.
const CallbackStatusWaiting = "aguardando"

// ObservationDivergence returns the observation used when the CRM returned a different code
// than the one searched.
func ObservationDivergence(searched, found string) string {
	return fmt.Sprintf("DIVERGÊNCIA: Buscou %s, encontrou %s", searched, found)
}

// ObservationCallbackScheduled returns the observation logged alongside a scheduled callback.
func ObservationCallbackScheduled(date, hour string) string {
	return fmt.Sprintf("RETORNO AGENDADO para %s às %s", date, hour)
}

// ResultRecord is the terminal outcome of a code. Append only.
type ResultRecord struct {
	Code        string
	Phone       string
	Time        string
	Date        string
	Observation string
}

// NewResultRecord returns a result record stamped with the time and date of t.
func NewResultRecord(code, phone, observation string, t time.Time) ResultRecord {
	return ResultRecord{
		Code:        code,
		Phone:       phone,
		Time:        t.Format(RecordTimeLayout),
		Date:        t.Format(RecordDateLayout),
		Observation: observation,
	}
}

// CallbackRecord is a scheduled future contact. Append only.
type CallbackRecord struct {
	Code   string
	Phone  string
	Time   string
	Date   string
	Status string
}
