package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gavet/crmdialer/internal/model"
)

// JSONPrinter prints the reports in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type summaryOutput struct {
	GeneratedAt       time.Time      `json:"generated_at"`
	Contacts          int            `json:"contacts"`
	ContactsWithPhone int            `json:"contacts_with_phone"`
	PendingContacts   int            `json:"pending_contacts"`
	Results           int            `json:"results"`
	Callbacks         int            `json:"callbacks"`
	PendingPriority   int            `json:"pending_priority"`
	Outcomes          map[string]int `json:"outcomes"`
}

type callbackItem struct {
	Code   string `json:"code"`
	Phone  string `json:"phone"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintSummary prints the store summary in JSON format.
func (j *JSONPrinter) PrintSummary(sum model.Summary) error {
	output := summaryOutput{
		GeneratedAt:       sum.GeneratedAt.UTC(),
		Contacts:          sum.Contacts,
		ContactsWithPhone: sum.ContactsWithPhone,
		PendingContacts:   sum.PendingContacts,
		Results:           sum.Results,
		Callbacks:         sum.Callbacks,
		PendingPriority:   sum.PendingPriority,
		Outcomes:          make(map[string]int, len(sum.Outcomes)),
	}
	for kind, n := range sum.Outcomes {
		output.Outcomes[string(kind)] = n
	}

	return j.encode(output)
}

// PrintCallbacks prints the scheduled callbacks in JSON format.
func (j *JSONPrinter) PrintCallbacks(callbacks []model.CallbackRecord) error {
	items := make([]callbackItem, len(callbacks))
	for i, c := range callbacks {
		items[i] = callbackItem{
			Code:   c.Code,
			Phone:  c.Phone,
			Date:   c.Date,
			Time:   c.Time,
			Status: c.Status,
		}
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
