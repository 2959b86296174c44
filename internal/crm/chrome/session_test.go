package chrome

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/model"
)

func TestSessionConfigDefaults(t *testing.T) {
	cfg := SessionConfig{}
	require.NoError(t, cfg.defaults())

	assert.Equal(t, model.DefaultCRMConfig(), cfg.CRM)
	assert.Equal(t, time.Second, cfg.DialSettle)
	assert.Equal(t, 500*time.Millisecond, cfg.DismissSettle)
	assert.NotNil(t, cfg.Logger)
}

func TestSessionCloseWithoutLogin(t *testing.T) {
	s, err := NewSession(SessionConfig{})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestSessionLoginInvalidCredentials(t *testing.T) {
	s, err := NewSession(SessionConfig{})
	require.NoError(t, err)
	defer s.Close()

	err = s.Login(context.Background(), model.Credentials{User: "operator"})
	assert.True(t, errors.Is(err, model.ErrNotValid))
	assert.False(t, s.started)
}

func TestIsTimeout(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := map[string]struct {
		ctx    context.Context
		err    error
		expRes bool
	}{
		"Deadline exceeded should be a timeout.": {
			ctx:    context.Background(),
			err:    fmt.Errorf("waiting: %w", context.DeadlineExceeded),
			expRes: true,
		},
		"Polling timeout should be a timeout.": {
			ctx:    context.Background(),
			err:    chromedp.ErrPollingTimeout,
			expRes: true,
		},
		"Deadline exceeded after the caller gave up should not be a timeout.": {
			ctx:    cancelled,
			err:    context.DeadlineExceeded,
			expRes: false,
		},
		"Other errors should not be a timeout.": {
			ctx:    context.Background(),
			err:    errors.New("node not found"),
			expRes: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expRes, isTimeout(test.ctx, test.err))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "", normalizePhone(" - "))
	assert.Equal(t, "", normalizePhone(""))
	assert.Equal(t, "11999990000", normalizePhone(" 11999990000\n"))
}

func TestContainsTextExpr(t *testing.T) {
	expr := containsTextExpr(`//td[@class="code"]`, "123456")
	assert.Contains(t, expr, `"//td[@class=\"code\"]"`)
	assert.Contains(t, expr, `t.includes("123456")`)
}

func TestAllocatorOptionsExecPath(t *testing.T) {
	cfg := SessionConfig{}
	require.NoError(t, cfg.defaults())
	base := len(allocatorOptions(cfg))

	cfg.ExecPath = "/usr/bin/chromium"
	assert.Len(t, allocatorOptions(cfg), base+1)
}
