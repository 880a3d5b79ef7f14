package jobs

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerSchedulerRunsOnce(t *testing.T) {
	s := NewTimerScheduler()
	var calls atomic.Int32

	s.Schedule("k", time.Millisecond, func() { calls.Add(1) })

	deadline := time.After(time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduled function never ran")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one run, got %d", calls.Load())
	}
}

func TestTimerSchedulerReplacesPendingRun(t *testing.T) {
	s := NewTimerScheduler()
	var first, second atomic.Int32

	s.Schedule("k", time.Hour, func() { first.Add(1) })
	s.Schedule("k", time.Millisecond, func() { second.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if first.Load() != 0 {
		t.Fatal("replaced run must not fire")
	}
	if second.Load() != 1 {
		t.Fatalf("replacement run fired %d times", second.Load())
	}
}

func TestTimerSchedulerCancel(t *testing.T) {
	s := NewTimerScheduler()
	var calls atomic.Int32

	s.Schedule("k", 10*time.Millisecond, func() { calls.Add(1) })
	s.Cancel("k")

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("cancelled run fired")
	}
}

func TestTimerSchedulerCancelAll(t *testing.T) {
	s := NewTimerScheduler()
	var calls atomic.Int32

	s.Schedule("a", 10*time.Millisecond, func() { calls.Add(1) })
	s.Schedule("b", 10*time.Millisecond, func() { calls.Add(1) })
	s.CancelAll()

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("cancelled runs fired %d times", calls.Load())
	}
}
