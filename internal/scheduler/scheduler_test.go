package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartJobRunsImmediatelyAndOnInterval(t *testing.T) {
	s := New()
	defer s.StopAll()

	var count int32
	s.StartJob("tick", 10*time.Millisecond, true, func() {
		atomic.AddInt32(&count, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestStartJobReplacesExisting(t *testing.T) {
	s := New()
	defer s.StopAll()

	var oldRuns, newRuns int32
	s.StartJob("job", 5*time.Millisecond, false, func() { atomic.AddInt32(&oldRuns, 1) })
	time.Sleep(20 * time.Millisecond)

	s.StartJob("job", 5*time.Millisecond, false, func() { atomic.AddInt32(&newRuns, 1) })
	time.Sleep(30 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&newRuns) > 0
	}, time.Second, 5*time.Millisecond)

	stoppedOld := atomic.LoadInt32(&oldRuns)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stoppedOld, atomic.LoadInt32(&oldRuns), "old job must not keep running after replacement")
}

func TestStopJobIsIdempotentForUnknownName(t *testing.T) {
	s := New()
	assert.NotPanics(t, func() {
		s.StopJob("never-started")
		s.StopJob("never-started")
	})
}

func TestPanicInJobIsRecovered(t *testing.T) {
	s := New()
	defer s.StopAll()

	var ran int32
	s.StartJob("panicky", 5*time.Millisecond, true, func() {
		atomic.AddInt32(&ran, 1)
		panic("boom")
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ran) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestStopAllStopsEveryJob(t *testing.T) {
	s := New()
	var a, b int32
	s.StartJob("a", 5*time.Millisecond, true, func() { atomic.AddInt32(&a, 1) })
	s.StartJob("b", 5*time.Millisecond, true, func() { atomic.AddInt32(&b, 1) })
	time.Sleep(10 * time.Millisecond)

	s.StopAll()
	aAfter, bAfter := atomic.LoadInt32(&a), atomic.LoadInt32(&b)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, aAfter, atomic.LoadInt32(&a))
	assert.Equal(t, bAfter, atomic.LoadInt32(&b))
}
