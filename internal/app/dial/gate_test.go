package dial_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/app/dial"
	"github.com/gavet/crmdialer/internal/model"
)

func TestGate(t *testing.T) {
	tests := map[string]struct {
		run func(t *testing.T, g *dial.Gate)
	}{
		"Firing a disarmed gate should fail.": {
			run: func(t *testing.T, g *dial.Gate) {
				assert.False(t, g.Pending())
				err := g.Fire(dial.Outcome{Observation: "ok"})
				assert.True(t, errors.Is(err, dial.ErrNoPendingCall))
			},
		},

		"An armed gate should deliver the outcome once.": {
			run: func(t *testing.T, g *dial.Gate) {
				ch := g.Arm()
				assert.True(t, g.Pending())

				sch := &model.Schedule{Date: "31/01/2026", Time: "14:30"}
				require.NoError(t, g.Fire(dial.Outcome{Schedule: sch}))
				assert.False(t, g.Pending())
				assert.True(t, errors.Is(g.Fire(dial.Outcome{}), dial.ErrNoPendingCall))

				got, err := g.Wait(context.Background(), ch)
				require.NoError(t, err)
				assert.Equal(t, dial.Outcome{Schedule: sch}, got)
			},
		},

		"Waiting should unblock when the outcome is fired from another goroutine.": {
			run: func(t *testing.T, g *dial.Gate) {
				ch := g.Arm()
				go func() {
					time.Sleep(10 * time.Millisecond)
					_ = g.Fire(dial.Outcome{Observation: "no answer"})
				}()

				got, err := g.Wait(context.Background(), ch)
				require.NoError(t, err)
				assert.Equal(t, "no answer", got.Observation)
			},
		},

		"Cancelling the wait should disarm the gate.": {
			run: func(t *testing.T, g *dial.Gate) {
				ch := g.Arm()
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				_, err := g.Wait(ctx, ch)
				assert.True(t, errors.Is(err, context.Canceled))
				assert.False(t, g.Pending())
				assert.True(t, errors.Is(g.Fire(dial.Outcome{}), dial.ErrNoPendingCall))
			},
		},

		"Cancelling a stale wait should not disarm the new call.": {
			run: func(t *testing.T, g *dial.Gate) {
				stale := g.Arm()
				_ = g.Arm()
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				_, err := g.Wait(ctx, stale)
				assert.Error(t, err)
				assert.True(t, g.Pending())
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test.run(t, dial.NewGate())
		})
	}
}
