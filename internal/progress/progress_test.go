package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_StartsAtZero(t *testing.T) {
	t.Parallel()
	e := NewEstimator(nil)
	assert.Equal(t, 0.0, e.Percent())
	assert.Equal(t, "0.00", e.String())
}

func TestEstimator_UnknownTotalKeepsCountingNearZero(t *testing.T) {
	t.Parallel()
	e := NewEstimator(nil)
	e.DiscoveryDone()
	for range 1000 {
		e.NodeCounted()
	}
	assert.Equal(t, 2.0, e.Percent())
}

func TestEstimator_Weights(t *testing.T) {
	t.Parallel()
	e := NewEstimator(nil)
	e.DiscoveryDone()
	e.SetTotal(4)
	assert.Equal(t, "2.00", e.String())

	e.NodeCounted()
	assert.Equal(t, "26.50", e.String())

	e.NodeCounted()
	e.NodeCounted()
	e.NodeCounted()
	assert.Equal(t, "100.00", e.String())
}

func TestEstimator_FloorsAndClamps(t *testing.T) {
	t.Parallel()
	e := NewEstimator(nil)
	e.DiscoveryDone()
	e.SetTotal(3)
	e.NodeCounted()
	// 2 + 98/3 = 34.666...
	assert.Equal(t, 34.6, e.Percent())

	for range 10 {
		e.NodeCounted()
	}
	assert.Equal(t, 100.0, e.Percent())
}

func TestEstimator_UpdatesAreMonotonic(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var seen []float64
	e := NewEstimator(func(pct float64) {
		mu.Lock()
		seen = append(seen, pct)
		mu.Unlock()
	})
	e.DiscoveryDone()
	e.SetTotal(50)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.NodeCounted()
		}()
	}
	wg.Wait()

	require.Len(t, seen, 52)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 100.0, seen[len(seen)-1])
}

func TestRender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		pct     float64
		tty     bool
		columns int
		want    string
	}{
		{"plain single digit", 2, false, 0, "done:   2.00%"},
		{"plain two digits", 42.1, false, 0, "done:  42.10%"},
		{"plain full", 100, false, 0, "done: 100.00%"},
		{"tty empty", 0, true, 21, "[          ]   0.00%"},
		{"tty half", 50, true, 21, "[=====     ]  50.00%"},
		{"tty full", 100, true, 21, "[==========] 100.00%"},
		{"tty tiny progress shows one cell", 0.5, true, 21, "[=         ]   0.50%"},
		{"tty narrow terminal", 50, true, 5, "[]  50.00%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Render(tt.pct, tt.tty, tt.columns))
		})
	}
}

func TestGauge_UpdateAndFinish(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	g := NewGaugeWriter(&buf, false, 80)
	g.Update(2)
	g.Update(51)
	g.Finish()

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\n"+clearLine+"done:   2.00%"))
	assert.Contains(t, out, clearLine+"done:  51.00%")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestGauge_FinishWithoutUpdateWritesNothing(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewGaugeWriter(&buf, true, 80).Finish()
	assert.Empty(t, buf.String())
}
