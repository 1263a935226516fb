package fanout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var platforms = []string{"weibo", "wechat", "douyin", "toutiao"}

func TestRun_AllSucceed(t *testing.T) {
	res := Run(context.Background(), platforms, 0, func(_ context.Context, target string) (string, error) {
		return "copy for " + target, nil
	})

	assert.NoError(t, res.Err())
	assert.Empty(t, res.Missing())
	assert.Equal(t, platforms, res.Succeeded())
	assert.Equal(t, "copy for douyin", res.Outputs["douyin"])
}

// For every subset of failing targets, the outputs hold exactly the others
// and the error is present iff something failed.
func TestRun_PartialFailure(t *testing.T) {
	for mask := 0; mask < 1<<len(platforms); mask++ {
		failing := make(map[string]bool)
		for i, p := range platforms {
			if mask&(1<<i) != 0 {
				failing[p] = true
			}
		}

		t.Run(fmt.Sprintf("mask %04b", mask), func(t *testing.T) {
			res := Run(context.Background(), platforms, 2, func(_ context.Context, target string) (int, error) {
				if failing[target] {
					return 0, fmt.Errorf("%s quota exceeded", target)
				}
				return len(target), nil
			})

			for _, p := range platforms {
				_, ok := res.Outputs[p]
				assert.Equal(t, !failing[p], ok, p)
			}
			assert.Len(t, res.Outputs, len(platforms)-len(failing))
			assert.Len(t, res.Missing(), len(failing))

			err := res.Err()
			if len(failing) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.NotEmpty(t, err.Error())
			assert.Equal(t, len(failing)-1, strings.Count(err.Error(), Separator))
		})
	}
}

func TestRun_ErrorMessageInTargetOrder(t *testing.T) {
	res := Run(context.Background(), platforms, 0, func(_ context.Context, target string) (string, error) {
		if target == "toutiao" {
			time.Sleep(5 * time.Millisecond)
			return "", errors.New("B")
		}
		if target == "wechat" {
			return "", errors.New("A")
		}
		return "ok", nil
	})

	assert.Equal(t, "A；B", res.Err().Error())
	assert.Equal(t, []string{"wechat", "toutiao"}, res.Missing())

	var fe *Error
	require.ErrorAs(t, res.Err(), &fe)
	assert.Equal(t, "wechat", fe.Failures[0].Target)
	assert.Equal(t, "[A] [B]", fe.Join(func(err error) string { return "[" + err.Error() + "]" }))
}

func TestRun_FailureDoesNotCancelOthers(t *testing.T) {
	res := Run(context.Background(), []string{"fast-fail", "slow"}, 0, func(ctx context.Context, target string) (string, error) {
		if target == "fast-fail" {
			return "", errors.New("boom")
		}
		select {
		case <-time.After(20 * time.Millisecond):
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	assert.Equal(t, "done", res.Outputs["slow"])
	assert.Equal(t, []string{"fast-fail"}, res.Missing())
}

func TestRun_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	targets := []string{"a", "b", "c", "d", "e", "f"}

	res := Run(context.Background(), targets, 2, func(_ context.Context, _ string) (bool, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return true, nil
	})

	assert.Len(t, res.Outputs, len(targets))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	res := Run(context.Background(), []string{"ok", "bad"}, 0, func(_ context.Context, target string) (string, error) {
		if target == "bad" {
			panic("nil outputs")
		}
		return "fine", nil
	})

	assert.Equal(t, "fine", res.Outputs["ok"])
	assert.ErrorContains(t, res.Errors["bad"], "panicked")
}

func TestRun_DuplicateTargets(t *testing.T) {
	var calls atomic.Int32
	res := Run(context.Background(), []string{"weibo", "weibo", "douyin"}, 0, func(_ context.Context, _ string) (int, error) {
		calls.Add(1)
		return 1, nil
	})

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"weibo", "douyin"}, res.Targets)
}

func TestRun_UnwrapsTargetErrors(t *testing.T) {
	sentinel := errors.New("sentinel")
	res := Run(context.Background(), []string{"x"}, 0, func(_ context.Context, _ string) (int, error) {
		return 0, fmt.Errorf("wrapped: %w", sentinel)
	})
	assert.ErrorIs(t, res.Err(), sentinel)
}
