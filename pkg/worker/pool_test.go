package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PreservesOrder(t *testing.T) {
	t.Parallel()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var mu sync.Mutex
	var calls []int
	results := Run(context.Background(), items, 7,
		func(_ context.Context, v int) (int, error) {
			return v * v, nil
		},
		func(done, total int) {
			mu.Lock()
			calls = append(calls, done)
			mu.Unlock()
			assert.Equal(t, 100, total)
		},
	)

	require.Len(t, results, len(items))
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, i*i, r.Value)
	}
	assert.Len(t, calls, len(items))
}

func TestRun_PerItemErrorsAndPanics(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	results := Run(context.Background(), []string{"ok", "fail", "panic"}, 2,
		func(_ context.Context, s string) (string, error) {
			switch s {
			case "fail":
				return "", boom
			case "panic":
				panic("taglib exploded")
			}
			return s, nil
		}, nil)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "ok", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	require.Error(t, results[2].Err)
	assert.Contains(t, results[2].Err.Error(), "taglib exploded")
}

func TestRun_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int64
	items := make([]int, 50)
	Run(context.Background(), items, 3, func(_ context.Context, _ int) (struct{}, error) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		running.Add(-1)
		return struct{}{}, nil
	}, nil)

	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int64
	results := Run(ctx, []int{1, 2, 3}, 2, func(_ context.Context, v int) (int, error) {
		calls.Add(1)
		return v, nil
	}, nil)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Zero(t, calls.Load())
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	results := Run(context.Background(), nil, 4, func(_ context.Context, v int) (int, error) {
		return v, nil
	}, nil)
	assert.Empty(t, results)
}
