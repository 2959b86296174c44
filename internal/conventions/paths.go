package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default crmdialer data directory name (relative to home).
	DefaultDataDir = ".crmdialer"

	// WorkbookFile is the spreadsheet task store filename.
	WorkbookFile = "automacao_weon.xlsx"
	// SQLiteFile is the SQLite task store filename.
	SQLiteFile = "crmdialer.db"
	// CredentialsFile is the CRM credentials filename.
	CredentialsFile = "login.txt"
	// CRMConfigFile is the optional CRM selectors and timeouts YAML filename.
	CRMConfigFile = "crm.yaml"
	// LogFile is the log filename used while the operator console owns the terminal.
	LogFile = "log_automacao.log"

	// Record set names.

	// SheetContacts holds the bulk contact list.
	SheetContacts = "contatos"
	// SheetResults holds the terminal outcome of each code.
	SheetResults = "resultados"
	// SheetCallbacks holds the scheduled callbacks.
	SheetCallbacks = "retornos"
	// SheetPriority holds the one shot priority list.
	SheetPriority = "PRIORIDADE"
)

var (
	// ContactsHeader is the contacts record set header.
	ContactsHeader = []string{"COD", "TELEFONE"}
	// ResultsHeader is the results record set header.
	ResultsHeader = []string{"COD", "TELEFONE", "HORA", "DATA", "OBSERVACAO"}
	// CallbacksHeader is the callbacks record set header.
	CallbacksHeader = []string{"COD", "TELEFONE", "HORA", "DATA", "STATUS"}
	// PriorityHeader is the priority record set header.
	PriorityHeader = []string{"COD"}
)

// DataFilePath returns the full path to a file inside the data directory.
func DataFilePath(dataDir, filename string) string {
	return filepath.Join(dataDir, filename)
}
