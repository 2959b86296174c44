package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/printer"
)

func summaryFixture() model.Summary {
	return model.Summary{
		GeneratedAt:       time.Date(2026, 1, 30, 18, 0, 0, 0, time.UTC),
		Contacts:          10,
		ContactsWithPhone: 8,
		PendingContacts:   4,
		Results:           6,
		Callbacks:         1,
		PendingPriority:   2,
		Outcomes: map[model.OutcomeKind]int{
			model.OutcomeOperator:    4,
			model.OutcomeCallback:    1,
			model.OutcomeInvalidCode: 1,
		},
	}
}

func callbacksFixture() []model.CallbackRecord {
	return []model.CallbackRecord{
		{Code: "111111", Phone: "1199990001", Date: "31/01/2026", Time: "14:30", Status: model.CallbackStatusWaiting},
		{Code: "222222", Date: "01/02/2026", Time: "09:00", Status: model.CallbackStatusWaiting},
	}
}

func TestTablePrinterPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintSummary(summaryFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Generated:      2026-01-30 18:00:00 UTC")
	assert.Contains(t, out, "Contacts:       10 (8 with phone)")
	assert.Contains(t, out, "Pending:        4 (40%)")
	assert.Contains(t, out, "Priority queue: 2")
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "invalid_code")
	assert.NotContains(t, out, "dial_error")

	// Outcomes keep their display order.
	assert.Less(t, strings.Index(out, "operator"), strings.Index(out, "callback"))
}

func TestTablePrinterPrintSummaryWithoutResults(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintSummary(model.Summary{Contacts: 3, PendingContacts: 3})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "OUTCOME")
}

func TestTablePrinterPrintCallbacks(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintCallbacks(callbacksFixture())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"CODE", "PHONE", "DATE", "TIME", "STATUS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"222222", "-", "01/02/2026", "09:00", "aguardando"}, strings.Fields(lines[2]))
}

func TestJSONPrinterPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintSummary(summaryFixture())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2026-01-30T18:00:00Z", got["generated_at"])
	assert.Equal(t, float64(4), got["pending_contacts"])
	assert.Equal(t, map[string]any{"operator": float64(4), "callback": float64(1), "invalid_code": float64(1)}, got["outcomes"])
}

func TestJSONPrinterPrintCallbacks(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintCallbacks(callbacksFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"code": "111111"`)
	assert.Contains(t, out, `"status": "aguardando"`)
}

func TestJSONPrinterPrintCallbacksEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	require.NoError(t, p.PrintCallbacks(nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}
