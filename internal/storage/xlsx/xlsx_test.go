package xlsx_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gavet/crmdialer/internal/conventions"
	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage"
	"github.com/gavet/crmdialer/internal/storage/storagetest"
	"github.com/gavet/crmdialer/internal/storage/xlsx"
)

func newRepo(t *testing.T, path string) *xlsx.Repository {
	t.Helper()
	repo, err := xlsx.NewRepository(xlsx.RepositoryConfig{Path: path, Logger: log.Noop})
	require.NoError(t, err)
	return repo
}

func TestRepository(t *testing.T) {
	storagetest.RunRepositoryTests(t, func(t *testing.T) storage.Repository {
		return newRepo(t, filepath.Join(t.TempDir(), conventions.WorkbookFile))
	})
}

func TestNewRepositoryRequiresPath(t *testing.T) {
	_, err := xlsx.NewRepository(xlsx.RepositoryConfig{})
	assert.Error(t, err)
}

func TestEnsureSchemaCreatesSheetsWithHeaders(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "nested", conventions.WorkbookFile)
	repo := newRepo(t, path)

	created, err := repo.EnsureSchema(context.Background())
	require.NoError(err)
	assert.True(created)

	f, err := excelize.OpenFile(path)
	require.NoError(err)
	defer f.Close()

	assert.Equal([]string{conventions.SheetContacts, conventions.SheetResults, conventions.SheetCallbacks, conventions.SheetPriority}, f.GetSheetList())

	expHeaders := map[string][]string{
		conventions.SheetContacts:  conventions.ContactsHeader,
		conventions.SheetResults:   conventions.ResultsHeader,
		conventions.SheetCallbacks: conventions.CallbacksHeader,
		conventions.SheetPriority:  conventions.PriorityHeader,
	}
	for sheet, header := range expHeaders {
		rows, err := f.GetRows(sheet)
		require.NoError(err)
		require.Len(rows, 1)
		assert.Equal(header, rows[0])
	}
}

func TestEnsureSchemaRepairsMissingSheets(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	// A workbook made by hand that only has the contacts sheet.
	path := filepath.Join(t.TempDir(), conventions.WorkbookFile)
	f := excelize.NewFile()
	require.NoError(f.SetSheetName("Sheet1", conventions.SheetContacts))
	require.NoError(f.SetSheetRow(conventions.SheetContacts, "A1", &[]any{"COD", "TELEFONE"}))
	require.NoError(f.SetSheetRow(conventions.SheetContacts, "A2", &[]any{"12345678"}))
	require.NoError(f.SaveAs(path))
	require.NoError(f.Close())

	repo := newRepo(t, path)
	created, err := repo.EnsureSchema(context.Background())
	require.NoError(err)
	assert.False(created)

	codes, err := repo.ListPriorityCodes(context.Background())
	require.NoError(err)
	assert.Empty(codes)

	contacts, err := repo.ListContacts(context.Background())
	require.NoError(err)
	assert.Equal([]model.Task{{Code: "12345678", Origin: model.TaskOriginBulk}}, contacts)
}

func TestMissingWorkbookShouldFailWithNotFound(t *testing.T) {
	repo := newRepo(t, filepath.Join(t.TempDir(), conventions.WorkbookFile))

	_, err := repo.ListContacts(context.Background())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSavesLeaveNoTemporaryFiles(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	repo := newRepo(t, filepath.Join(dir, conventions.WorkbookFile))
	ctx := context.Background()

	_, err := repo.EnsureSchema(ctx)
	require.NoError(err)
	require.NoError(repo.AppendContact(ctx, model.Task{Code: "12345678"}))
	require.NoError(repo.AppendResult(ctx, model.ResultRecord{Code: "12345678", Observation: "ok"}))

	entries, err := os.ReadDir(dir)
	require.NoError(err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{conventions.WorkbookFile, conventions.WorkbookFile + ".lock"}, names)
}
