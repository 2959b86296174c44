package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gavet/crmdialer/internal/log"
)

func TestCtxValues(t *testing.T) {
	tests := map[string]struct {
		ctx       func() context.Context
		expValues log.Kv
	}{
		"A context without values should return empty values.": {
			ctx:       context.Background,
			expValues: log.Kv{},
		},

		"Values set on a context should be returned.": {
			ctx: func() context.Context {
				return log.CtxWithValues(context.Background(), log.Kv{"run": "01H", "code": "123"})
			},
			expValues: log.Kv{"run": "01H", "code": "123"},
		},

		"Values set multiple times should be merged and overridden.": {
			ctx: func() context.Context {
				ctx := log.CtxWithValues(context.Background(), log.Kv{"run": "01H", "code": "123"})
				return log.CtxWithValues(ctx, log.Kv{"code": "456", "phone": "99"})
			},
			expValues: log.Kv{"run": "01H", "code": "456", "phone": "99"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expValues, log.ValuesFromCtx(test.ctx()))
		})
	}
}

func TestNoopIsUsable(t *testing.T) {
	l := log.Noop.WithValues(log.Kv{"svc": "test"}).WithCtxValues(context.Background())
	l.Infof("nothing %s", "happens")
	ctx := l.SetValuesOnCtx(context.Background(), log.Kv{"a": 1})
	assert.Equal(t, log.Kv{}, log.ValuesFromCtx(ctx))
}
