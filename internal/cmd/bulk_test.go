package cmd

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBulkOperation_KeepsOrder(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}

	results := runBulkOperation(context.Background(), ids, 3, nil, func(_ context.Context, id string) (string, error) {
		if id == "a" {
			time.Sleep(20 * time.Millisecond)
		}
		return "done-" + id, nil
	})

	require.Len(t, results, len(ids))
	for i, r := range results {
		assert.Equal(t, ids[i], r.ID)
		assert.True(t, r.Success)
		assert.Equal(t, "done-"+ids[i], r.Data)
	}
}

func TestRunBulkOperation_PartialFailure(t *testing.T) {
	boom := errors.New("failed")
	results := runBulkOperation(context.Background(), []string{"p1", "p2", "p3"}, 5, nil, func(_ context.Context, id string) (int, error) {
		if id == "p2" {
			return 0, boom
		}
		return 1, nil
	})

	success, failure := countResults(results)
	assert.Equal(t, 2, success)
	assert.Equal(t, 1, failure)
	assert.ErrorIs(t, results[1].Error, boom)
}

func TestRunBulkOperation_Concurrency(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	var active, peak atomic.Int32

	runBulkOperation(context.Background(), ids, 2, nil, func(_ context.Context, _ string) (struct{}, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestRunBulkOperation_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32

	results := runBulkOperation(ctx, []string{"x", "y"}, 1, nil, func(_ context.Context, _ string) (bool, error) {
		calls.Add(1)
		return true, nil
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Error(t, r.Error)
	}
	assert.Zero(t, calls.Load())
}

func TestRunBulkOperation_Progress(t *testing.T) {
	var buf bytes.Buffer
	runBulkOperation(context.Background(), []string{"a", "b"}, 1, &buf, func(_ context.Context, _ string) (bool, error) {
		return true, nil
	})
	assert.Contains(t, buf.String(), "Processed 2/2")
}

func TestParseIDArgs(t *testing.T) {
	ids, err := parseIDArgs([]string{"p1", "#p2", " p1 ", "p3"}, "payment ID")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)

	_, err = parseIDArgs([]string{"p1", "../etc"}, "payment ID")
	assert.ErrorContains(t, err, `invalid payment ID "../etc"`)

	_, err = parseIDArgs(nil, "payment ID")
	assert.ErrorContains(t, err, "at least one payment ID is required")
}
