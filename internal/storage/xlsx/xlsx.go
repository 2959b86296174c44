package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/gavet/crmdialer/internal/conventions"
	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/utils/file"
)

const (
	defaultSheet   = "Sheet1"
	lockFileSuffix = ".lock"
)

var sheets = []struct {
	name   string
	header []string
}{
	{name: conventions.SheetContacts, header: conventions.ContactsHeader},
	{name: conventions.SheetResults, header: conventions.ResultsHeader},
	{name: conventions.SheetCallbacks, header: conventions.CallbacksHeader},
	{name: conventions.SheetPriority, header: conventions.PriorityHeader},
}

// RepositoryConfig is the configuration for the workbook repository.
type RepositoryConfig struct {
	Path   string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Path == "" {
		return fmt.Errorf("workbook path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.XLSX"})
	return nil
}

// Repository is a spreadsheet implementation of storage.Repository. Every operation opens the
// workbook, and every mutation replaces the whole file only after it was fully written.
type Repository struct {
	path   string
	mu     sync.Mutex
	logger log.Logger
}

// NewRepository creates a new workbook repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{path: cfg.Path, logger: cfg.Logger}, nil
}

// EnsureSchema creates the workbook with the four sheets, or adds the sheets missing on an
// existing workbook.
func (r *Repository) EnsureSchema(ctx context.Context) (bool, error) {
	unlock, err := r.lock()
	if err != nil {
		return false, err
	}
	defer unlock()

	_, err = os.Stat(r.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("could not stat workbook: %w", err)
	}

	if errors.Is(err, fs.ErrNotExist) {
		if err := r.create(); err != nil {
			return false, err
		}
		r.logger.Infof("Workbook created at %s", r.path)
		return true, nil
	}

	repaired := false
	err = r.mutateLocked(func(f *excelize.File) (bool, error) {
		for _, s := range sheets {
			idx, err := f.GetSheetIndex(s.name)
			if err != nil {
				return false, fmt.Errorf("could not get sheet %s: %w", s.name, err)
			}
			if idx < 0 {
				if _, err := f.NewSheet(s.name); err != nil {
					return false, fmt.Errorf("could not create sheet %s: %w", s.name, err)
				}
			}

			rows, err := f.GetRows(s.name)
			if err != nil {
				return false, fmt.Errorf("could not read sheet %s: %w", s.name, err)
			}
			if len(rows) > 0 {
				continue
			}
			if err := setRow(f, s.name, 1, toRow(s.header...)); err != nil {
				return false, err
			}
			r.logger.Warningf("Sheet %s was missing its header, repaired", s.name)
			repaired = true
		}
		return repaired, nil
	})
	if err != nil {
		return false, err
	}

	return false, nil
}

func (r *Repository) create() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("could not create workbook directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.name); err != nil {
				return fmt.Errorf("could not rename default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("could not create sheet %s: %w", s.name, err)
		}

		if err := setRow(f, s.name, 1, toRow(s.header...)); err != nil {
			return err
		}
	}

	return r.save(f)
}

// ListContacts returns the contacts in sheet order. Rows without code are ignored.
func (r *Repository) ListContacts(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := r.read(func(f *excelize.File) error {
		rows, err := dataRows(f, conventions.SheetContacts)
		if err != nil {
			return err
		}

		for _, row := range rows {
			code := cell(row, 0)
			if code == "" {
				continue
			}
			tasks = append(tasks, model.Task{Code: code, Phone: cell(row, 1), Origin: model.TaskOriginBulk})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// AppendContact appends a contact row.
func (r *Repository) AppendContact(ctx context.Context, t model.Task) error {
	return r.appendRows(conventions.SheetContacts, toRow(t.Code, t.Phone))
}

// UpdateContactPhone sets the phone of the first contact row with the code.
func (r *Repository) UpdateContactPhone(ctx context.Context, code, phone string) error {
	return r.mutate(func(f *excelize.File) (bool, error) {
		rows, err := f.GetRows(conventions.SheetContacts)
		if err != nil {
			return false, fmt.Errorf("could not read sheet %s: %w", conventions.SheetContacts, err)
		}

		for i := 1; i < len(rows); i++ {
			if cell(rows[i], 0) != code {
				continue
			}

			axis, err := excelize.CoordinatesToCellName(2, i+1)
			if err != nil {
				return false, fmt.Errorf("invalid cell: %w", err)
			}
			if err := f.SetCellStr(conventions.SheetContacts, axis, phone); err != nil {
				return false, fmt.Errorf("could not set phone: %w", err)
			}
			r.logger.Infof("Phone %s updated for code %s", phone, code)
			return true, nil
		}

		r.logger.Warningf("Contact %s not found, phone not updated", code)
		return false, nil
	})
}

// ListPriorityCodes returns the codes on the priority sheet.
func (r *Repository) ListPriorityCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.read(func(f *excelize.File) error {
		rows, err := dataRows(f, conventions.SheetPriority)
		if err != nil {
			return err
		}

		for _, row := range rows {
			if code := cell(row, 0); code != "" {
				codes = append(codes, code)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return codes, nil
}

// AppendPriorityCodes appends codes to the priority sheet.
func (r *Repository) AppendPriorityCodes(ctx context.Context, codes []string) error {
	rows := make([][]any, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, toRow(c))
	}
	return r.appendRows(conventions.SheetPriority, rows...)
}

// ClearPriority removes every data row of the priority sheet, keeping the header.
func (r *Repository) ClearPriority(ctx context.Context) error {
	return r.mutate(func(f *excelize.File) (bool, error) {
		rows, err := f.GetRows(conventions.SheetPriority)
		if err != nil {
			return false, fmt.Errorf("could not read sheet %s: %w", conventions.SheetPriority, err)
		}
		if len(rows) <= 1 {
			return false, nil
		}

		for n := len(rows); n >= 2; n-- {
			if err := f.RemoveRow(conventions.SheetPriority, n); err != nil {
				return false, fmt.Errorf("could not remove row %d: %w", n, err)
			}
		}
		r.logger.Infof("Sheet %s cleared", conventions.SheetPriority)
		return true, nil
	})
}

// AppendResult appends a result row.
func (r *Repository) AppendResult(ctx context.Context, rec model.ResultRecord) error {
	return r.appendRows(conventions.SheetResults, toRow(rec.Code, rec.Phone, rec.Time, rec.Date, rec.Observation))
}

// ListResults returns the result rows in sheet order.
func (r *Repository) ListResults(ctx context.Context) ([]model.ResultRecord, error) {
	var results []model.ResultRecord
	err := r.read(func(f *excelize.File) error {
		rows, err := dataRows(f, conventions.SheetResults)
		if err != nil {
			return err
		}

		for _, row := range rows {
			if cell(row, 0) == "" {
				continue
			}
			results = append(results, model.ResultRecord{
				Code:        cell(row, 0),
				Phone:       cell(row, 1),
				Time:        cell(row, 2),
				Date:        cell(row, 3),
				Observation: cell(row, 4),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// ListResultCodes returns the codes present on the result sheet.
func (r *Repository) ListResultCodes(ctx context.Context) ([]string, error) {
	results, err := r.ListResults(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(results))
	for _, res := range results {
		codes = append(codes, res.Code)
	}
	return codes, nil
}

// AppendCallback appends a callback row.
func (r *Repository) AppendCallback(ctx context.Context, c model.CallbackRecord) error {
	return r.appendRows(conventions.SheetCallbacks, toRow(c.Code, c.Phone, c.Time, c.Date, c.Status))
}

// ListCallbacks returns the callback rows in sheet order.
func (r *Repository) ListCallbacks(ctx context.Context) ([]model.CallbackRecord, error) {
	var callbacks []model.CallbackRecord
	err := r.read(func(f *excelize.File) error {
		rows, err := dataRows(f, conventions.SheetCallbacks)
		if err != nil {
			return err
		}

		for _, row := range rows {
			if cell(row, 0) == "" {
				continue
			}
			callbacks = append(callbacks, model.CallbackRecord{
				Code:   cell(row, 0),
				Phone:  cell(row, 1),
				Time:   cell(row, 2),
				Date:   cell(row, 3),
				Status: cell(row, 4),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return callbacks, nil
}

func (r *Repository) appendRows(sheet string, rows ...[]any) error {
	if len(rows) == 0 {
		return nil
	}

	return r.mutate(func(f *excelize.File) (bool, error) {
		existing, err := f.GetRows(sheet)
		if err != nil {
			return false, fmt.Errorf("could not read sheet %s: %w", sheet, err)
		}

		next := len(existing) + 1
		for i, row := range rows {
			if err := setRow(f, sheet, next+i, row); err != nil {
				return false, err
			}
		}
		r.logger.Debugf("%d rows appended to sheet %s", len(rows), sheet)
		return true, nil
	})
}

func (r *Repository) read(fn func(f *excelize.File) error) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	f, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()

	return fn(f)
}

// mutate runs fn on the opened workbook and saves it when fn reports a change.
func (r *Repository) mutate(fn func(f *excelize.File) (changed bool, err error)) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	return r.mutateLocked(fn)
}

func (r *Repository) mutateLocked(fn func(f *excelize.File) (changed bool, err error)) error {
	f, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()

	changed, err := fn(f)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	return r.save(f)
}

// lock acquires the repository lock and the workbook lock file shared with other processes.
// Platforms without file locks only get the in process lock.
func (r *Repository) lock() (unlock func(), err error) {
	r.mu.Lock()

	fl, err := file.LockExclusive(r.path + lockFileSuffix)
	switch {
	case err == nil:
	case errors.Is(err, file.ErrLockUnsupported), errors.Is(err, fs.ErrNotExist):
		r.logger.Debugf("Workbook file lock not used: %s", err)
	default:
		r.mu.Unlock()
		return nil, fmt.Errorf("could not lock workbook: %w", err)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			r.logger.Warningf("Could not unlock workbook: %s", err)
		}
		r.mu.Unlock()
	}, nil
}

func (r *Repository) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workbook %s: %w", r.path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not open workbook: %w", err)
	}
	return f, nil
}

// save replaces the workbook file only after the new content was fully written.
func (r *Repository) save(f *excelize.File) error {
	err := file.WriteAtomic(r.path, func(w io.Writer) error { return f.Write(w) })
	if err != nil {
		return fmt.Errorf("could not save workbook: %w", err)
	}
	return nil
}

func dataRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %s: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, axis, &values); err != nil {
		return fmt.Errorf("could not write row %d on sheet %s: %w", row, sheet, err)
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func toRow(values ...string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
