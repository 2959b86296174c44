package enqueue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/app/enqueue"
	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config enqueue.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: enqueue.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
		},
		"missing repository should fail": {
			config: enqueue.ServiceConfig{Logger: log.Noop},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := enqueue.NewService(test.config)
			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		mock     func(m *storagemock.MockRepository)
		req      enqueue.Request
		expCount int
		expErr   error
		expAnErr bool
	}{
		"Codes should be trimmed, blanks dropped and stored in order.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("EnsureSchema", mock.Anything).Once().Return(false, nil)
				m.On("AppendPriorityCodes", mock.Anything, []string{"555555", "444444", "666666"}).Once().Return(nil)
			},
			req:      enqueue.Request{Codes: []string{" 555555 ", "", "444444\n\n666666\r\n"}},
			expCount: 3,
		},

		"Only blank codes should be rejected without touching the store.": {
			mock:   func(m *storagemock.MockRepository) {},
			req:    enqueue.Request{Codes: []string{" ", "\n"}},
			expErr: model.ErrNotValid,
		},

		"A store failure should be returned.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("EnsureSchema", mock.Anything).Once().Return(false, nil)
				m.On("AppendPriorityCodes", mock.Anything, mock.Anything).Once().Return(errors.New("disk full"))
			},
			req:      enqueue.Request{Codes: []string{"555555"}},
			expAnErr: true,
		},

		"A schema failure should be returned.": {
			mock: func(m *storagemock.MockRepository) {
				m.On("EnsureSchema", mock.Anything).Once().Return(false, errors.New("locked"))
			},
			req:      enqueue.Request{Codes: []string{"555555"}},
			expAnErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mRepo := storagemock.NewMockRepository(t)
			test.mock(mRepo)

			svc, err := enqueue.NewService(enqueue.ServiceConfig{Repository: mRepo})
			require.NoError(err)

			n, err := svc.Run(context.Background(), test.req)
			switch {
			case test.expErr != nil:
				assert.ErrorIs(err, test.expErr)
			case test.expAnErr:
				assert.Error(err)
			default:
				require.NoError(err)
				assert.Equal(test.expCount, n)
			}
		})
	}
}
