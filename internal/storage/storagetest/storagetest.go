// Package storagetest has the behavior tests every storage.Repository implementation must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage"
)

// RunRepositoryTests runs the shared repository behavior tests. newRepo must return an empty
// repository on every call.
func RunRepositoryTests(t *testing.T, newRepo func(t *testing.T) storage.Repository) {
	tests := map[string]struct {
		run func(ctx context.Context, t *testing.T, repo storage.Repository)
	}{
		"Ensuring the schema twice should only create it once.": {
			run: func(ctx context.Context, t *testing.T, repo storage.Repository) {
				created, err := repo.EnsureSchema(ctx)
				require.NoError(t, err)
				assert.True(t, created)

				created, err = repo.EnsureSchema(ctx)
				require.NoError(t, err)
				assert.False(t, created)
			},
		},

		"Contacts should be listed in insertion order with empty phones normalized.": {
			run: func(ctx context.Context, t *testing.T, repo storage.Repository) {
				mustSchema(ctx, t, repo)
				require.NoError(t, repo.AppendContact(ctx, model.Task{Code: "111111", Phone: "1199990001"}))
				require.NoError(t, repo.AppendContact(ctx, model.Task{Code: "222222"}))
				require.NoError(t, repo.AppendContact(ctx, model.Task{Code: "333333", Phone: "1199990003"}))

				got, err := repo.ListContacts(ctx)
				require.NoError(t, err)
				assert.Equal(t, []model.Task{
					{Code: "111111", Phone: "1199990001", Origin: model.TaskOriginBulk},
					{Code: "222222", Phone: "", Origin: model.TaskOriginBulk},
					{Code: "333333", Phone: "1199990003", Origin: model.TaskOriginBulk},
				}, got)
			},
		},

		"Updating a contact phone should only update the first matching contact.": {
			run: func(ctx context.Context, t *testing.T, repo storage.Repository) {
				mustSchema(ctx, t, repo)
				require.NoError(t, repo.AppendContact(ctx, model.Task{Code: "111111"}))
				require.NoError(t, repo.AppendContact(ctx, model.Task{Code: "222222"}))
				require.NoError(t, repo.AppendContact(ctx, model.Task{Code: "222222"}))

				require.NoError(t, repo.UpdateContactPhone(ctx, "222222", "1133334444"))

				got, err := repo.ListContacts(ctx)
				require.NoError(t, err)
				require.Len(t, got, 3)
				assert.Equal(t, "", got[0].Phone)
				assert.Equal(t, "1133334444", got[1].Phone)
				assert.Equal(t, "", got[2].Phone)
			},
		},

		"Updating a missing contact phone should be a no-op.": {
			run: func(ctx context.Context, t *testing.T, repo storage.Repository) {
				mustSchema(ctx, t, repo)
				require.NoError(t, repo.AppendContact(ctx, model.Task{Code: "111111"}))

				require.NoError(t, repo.UpdateContactPhone(ctx, "999999", "1133334444"))

				got, err := repo.ListContacts(ctx)
				require.NoError(t, err)
				assert.Equal(t, []model.Task{{Code: "111111", Origin: model.TaskOriginBulk}}, got)
			},
		},

		"Priority codes should be listed in order and cleared.": {
			run: func(ctx context.Context, t *testing.T, repo storage.Repository) {
				mustSchema(ctx, t, repo)
				require.NoError(t, repo.AppendPriorityCodes(ctx, []string{"555555", "444444"}))
				require.NoError(t, repo.AppendPriorityCodes(ctx, []string{"666666"}))

				got, err := repo.ListPriorityCodes(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"555555", "444444", "666666"}, got)

				require.NoError(t, repo.ClearPriority(ctx))
				got, err = repo.ListPriorityCodes(ctx)
				require.NoError(t, err)
				assert.Empty(t, got)

				// Clearing an empty list is fine.
				require.NoError(t, repo.ClearPriority(ctx))
			},
		},

		"Results should be appended and their codes listed.": {
			run: func(ctx context.Context, t *testing.T, repo storage.Repository) {
				mustSchema(ctx, t, repo)
				r1 := model.ResultRecord{Code: "111111", Phone: "1199990001", Time: "10:00:00", Date: "30/01/2026", Observation: "no answer"}
				r2 := model.ResultRecord{Code: "2222", Time: "10:01:00", Date: "30/01/2026", Observation: model.ObservationInvalidCode}
				require.NoError(t, repo.AppendResult(ctx, r1))
				require.NoError(t, repo.AppendResult(ctx, r2))

				results, err := repo.ListResults(ctx)
				require.NoError(t, err)
				assert.Equal(t, []model.ResultRecord{r1, r2}, results)

				codes, err := repo.ListResultCodes(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"111111", "2222"}, codes)
			},
		},

		"Callbacks should be appended and listed.": {
			run: func(ctx context.Context, t *testing.T, repo storage.Repository) {
				mustSchema(ctx, t, repo)
				c := model.CallbackRecord{Code: "111111", Phone: "1199990001", Time: "14:30", Date: "31/01/2026", Status: model.CallbackStatusWaiting}
				require.NoError(t, repo.AppendCallback(ctx, c))

				got, err := repo.ListCallbacks(ctx)
				require.NoError(t, err)
				assert.Equal(t, []model.CallbackRecord{c}, got)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test.run(context.Background(), t, newRepo(t))
		})
	}
}

func mustSchema(ctx context.Context, t *testing.T, repo storage.Repository) {
	t.Helper()
	_, err := repo.EnsureSchema(ctx)
	require.NoError(t, err)
}
