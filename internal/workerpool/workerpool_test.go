package workerpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
)

func TestScheduleRunsAllTasks(t *testing.T) {
	p := New("test", 4)
	var n int64
	for i := 0; i < 20; i++ {
		if err := p.Schedule(func() { atomic.AddInt64(&n, 1) }); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}
	if err := p.WaitUntilDone(time.Second); err != nil {
		t.Fatalf("WaitUntilDone: %v", err)
	}
	if got := atomic.LoadInt64(&n); got != 20 {
		t.Fatalf("ran %d tasks, want 20", got)
	}
}

func TestNumWorkersCapsAtMax(t *testing.T) {
	p := New("test", 2)
	block := make(chan struct{})
	for i := 0; i < 5; i++ {
		p.Schedule(func() { <-block })
	}
	time.Sleep(20 * time.Millisecond)
	if got := p.NumWorkers(); got != 2 {
		t.Fatalf("NumWorkers() = %d, want 2", got)
	}
	close(block)
	if err := p.WaitUntilDone(time.Second); err != nil {
		t.Fatalf("WaitUntilDone: %v", err)
	}
}

func TestWaitUntilIdleTimesOut(t *testing.T) {
	p := New("test", 1)
	block := make(chan struct{})
	p.Schedule(func() { <-block })
	p.Schedule(func() {})

	err := p.WaitUntilIdle(10 * time.Millisecond)
	if !litertlmerr.Is(err, litertlmerr.DeadlineExceeded) {
		t.Fatalf("WaitUntilIdle error = %v, want DeadlineExceeded", err)
	}
	close(block)
	if err := p.WaitUntilDone(time.Second); err != nil {
		t.Fatalf("WaitUntilDone: %v", err)
	}
}

func TestScheduleAfterStopFails(t *testing.T) {
	p := New("test", 1)
	p.Stop()
	if err := p.Schedule(func() {}); !litertlmerr.Is(err, litertlmerr.FailedPrecondition) {
		t.Fatalf("Schedule after Stop error = %v, want FailedPrecondition", err)
	}
}
