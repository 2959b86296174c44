package printer

import "github.com/gavet/crmdialer/internal/model"

// Printer knows how to print the dialer store reports in different formats.
type Printer interface {
	PrintSummary(sum model.Summary) error
	PrintCallbacks(callbacks []model.CallbackRecord) error
	PrintMessage(msg string) error
}
