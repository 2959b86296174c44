package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gavet/crmdialer/internal/model"
)

// TablePrinter prints the reports in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintSummary prints the store summary.
func (t *TablePrinter) PrintSummary(sum model.Summary) error {
	fmt.Fprintf(t.writer, "Generated:      %s\n", FormatTimestamp(sum.GeneratedAt))
	fmt.Fprintf(t.writer, "Contacts:       %d (%d with phone)\n", sum.Contacts, sum.ContactsWithPhone)
	fmt.Fprintf(t.writer, "Pending:        %s\n", Percent(sum.PendingContacts, sum.Contacts))
	fmt.Fprintf(t.writer, "Results:        %d\n", sum.Results)
	fmt.Fprintf(t.writer, "Callbacks:      %d\n", sum.Callbacks)
	fmt.Fprintf(t.writer, "Priority queue: %d\n", sum.PendingPriority)

	if sum.Results == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "OUTCOME\tCOUNT")

	// Print rows.
	for _, kind := range model.OutcomeKinds {
		n := sum.Outcomes[kind]
		if n == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\n", kind, n)
	}

	return nil
}

// PrintCallbacks prints the scheduled callbacks in a table format.
func (t *TablePrinter) PrintCallbacks(callbacks []model.CallbackRecord) error {
	if len(callbacks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "CODE\tPHONE\tDATE\tTIME\tSTATUS")

	// Print rows.
	for _, c := range callbacks {
		phone := c.Phone
		if phone == "" {
			phone = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Code, phone, c.Date, c.Time, c.Status)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
