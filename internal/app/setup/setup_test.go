package setup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/app/setup"
	storageio "github.com/gavet/crmdialer/internal/storage/io"
	"github.com/gavet/crmdialer/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	_, err := setup.NewService(setup.ServiceConfig{})
	assert.Error(t, err)

	svc, err := setup.NewService(setup.ServiceConfig{Repository: &storagemock.MockRepository{}})
	assert.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		mock          func(m *storagemock.MockRepository)
		existingCreds string
		skipCreds     bool
		expErr        bool
		expRes        *setup.Result
		expCreds      string
	}{
		"A fresh data dir should create the store and the credentials template.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("EnsureSchema", mock.Anything).Once().Return(true, nil)
			},
			expRes:   &setup.Result{StoreCreated: true, CredentialsCreated: true},
			expCreds: storageio.CredentialsTemplate,
		},

		"An existing setup should not modify anything.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("EnsureSchema", mock.Anything).Once().Return(false, nil)
			},
			existingCreds: "Usuário=operator\nSenha=secret\nURL=https://crm.example.com\n",
			expRes:        &setup.Result{},
			expCreds:      "Usuário=operator\nSenha=secret\nURL=https://crm.example.com\n",
		},

		"Without credentials path only the store should be created.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("EnsureSchema", mock.Anything).Once().Return(true, nil)
			},
			skipCreds: true,
			expRes:    &setup.Result{StoreCreated: true},
		},

		"A store failure should fail the setup.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("EnsureSchema", mock.Anything).Once().Return(false, errors.New("permission denied"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mRepo := storagemock.NewMockRepository(t)
			test.mock(mRepo)

			credsPath := filepath.Join(t.TempDir(), "login.txt")
			if test.existingCreds != "" {
				require.NoError(t, os.WriteFile(credsPath, []byte(test.existingCreds), 0600))
			}
			req := setup.Request{CredentialsPath: credsPath}
			if test.skipCreds {
				req.CredentialsPath = ""
			}

			svc, err := setup.NewService(setup.ServiceConfig{Repository: mRepo})
			require.NoError(t, err)

			res, err := svc.Run(context.Background(), req)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expRes, res)

			data, err := os.ReadFile(credsPath)
			if test.expCreds == "" {
				assert.True(t, errors.Is(err, os.ErrNotExist))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expCreds, string(data))
		})
	}
}
