package taskpool

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AllSucceed(t *testing.T) {
	p := New(4, 0)
	var ran atomic.Int32
	for i := 0; i < 25; i++ {
		p.Submit(fmt.Sprintf("task-%d", i), func() error {
			ran.Add(1)
			return nil
		})
	}

	res := p.Wait()
	assert.True(t, res.SuccessAll)
	assert.Equal(t, 25, res.Submitted)
	assert.Equal(t, 0, res.Failed)
	assert.NoError(t, res.Err)
	assert.Equal(t, int32(25), ran.Load())
}

func TestPool_FailuresDoNotStopSiblings(t *testing.T) {
	p := New(5, 0)
	var ran atomic.Int32
	failing := map[int]bool{3: true, 11: true, 20: true}

	for i := 1; i <= 25; i++ {
		p.Submit(fmt.Sprintf("part-%d", i), func() error {
			ran.Add(1)
			if failing[i] {
				return fmt.Errorf("part %d failed", i)
			}
			return nil
		})
	}

	res := p.Wait()
	assert.False(t, res.SuccessAll)
	assert.Equal(t, 25, res.Submitted)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, int32(25), ran.Load())

	require.Error(t, res.Err)
	msg := res.Err.Error()
	assert.Contains(t, msg, "part 3 failed")
	assert.Contains(t, msg, "part 11 failed")
	assert.Contains(t, msg, "part 20 failed")
	assert.Less(t, strings.Index(msg, "part 3 failed"), strings.Index(msg, "part 20 failed"))
}

func TestPool_RecoversPanics(t *testing.T) {
	p := New(2, 0)
	p.Submit("explode", func() error { panic("boom") })
	p.Submit("fine", func() error { return nil })

	res := p.Wait()
	assert.False(t, res.SuccessAll)
	assert.Equal(t, 1, res.Failed)
	assert.ErrorContains(t, res.Err, "task explode panicked: boom")
}

func TestPool_ErrorsAreUnwrappable(t *testing.T) {
	sentinel := errors.New("sentinel")
	p := New(1, 0)
	p.Submit("x", func() error { return fmt.Errorf("wrapped: %w", sentinel) })

	res := p.Wait()
	assert.ErrorIs(t, res.Err, sentinel)
}

func TestPool_BoundedQueueBlocksSubmit(t *testing.T) {
	const workers, queue = 2, 3
	p := New(workers, queue)

	release := make(chan struct{})
	var inFlight, maxInFlight atomic.Int32
	submitted := make(chan int, 20)

	go func() {
		for i := 0; i < 20; i++ {
			p.Submit("task", func() error {
				n := inFlight.Add(1)
				for {
					m := maxInFlight.Load()
					if n <= m || maxInFlight.CompareAndSwap(m, n) {
						break
					}
				}
				<-release
				inFlight.Add(-1)
				return nil
			})
			submitted <- i
		}
		close(submitted)
	}()

	// With every worker blocked, the producer stalls once the queue is full.
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, len(submitted), workers+queue+1)

	close(release)
	for range submitted {
	}

	res := p.Wait()
	assert.True(t, res.SuccessAll)
	assert.Equal(t, 20, res.Submitted)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(workers))
}

func TestPool_WaitIsIdempotent(t *testing.T) {
	p := New(1, 0)
	p.Submit("x", func() error { return errors.New("x") })
	first := p.Wait()
	second := p.Wait()
	assert.Equal(t, first, second)
}
