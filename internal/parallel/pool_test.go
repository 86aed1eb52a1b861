package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	tests := []struct {
		workers int
		want    int
	}{
		{4, 4},
		{1, 1},
		{0, runtime.GOMAXPROCS(0)},
		{-5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		pool := NewWorkerPool(tt.workers)
		if got := pool.Workers(); got != tt.want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", tt.workers, got, tt.want)
		}
		if !pool.IsRunning() {
			t.Errorf("NewWorkerPool(%d) is not running", tt.workers)
		}
		pool.Close()
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	jobs := make([]func(), 1000)
	for i := range jobs {
		jobs[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(jobs)

	if got := counter.Load(); got != 1000 {
		t.Errorf("counter = %d, want 1000", got)
	}
}

func TestWorkerPool_ExecuteAllEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()
	pool.ExecuteAll(nil)
}

func TestWorkerPool_Range(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	seen := make([]int32, 257)
	pool.Range(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("index %d ran %d times, want 1", i, n)
		}
	}
}

func TestWorkerPool_UnevenJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var done atomic.Int64
	jobs := make([]func(), 16)
	for i := range jobs {
		jobs[i] = func() {
			if i%4 == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			done.Add(1)
		}
	}
	pool.ExecuteAll(jobs)
	if got := done.Load(); got != 16 {
		t.Errorf("done = %d, want 16", got)
	}
}

func TestWorkerPool_AfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool still running after Close")
	}

	var ran atomic.Int64
	pool.ExecuteAll([]func(){func() { ran.Add(1) }, func() { ran.Add(1) }})
	if got := ran.Load(); got != 2 {
		t.Errorf("jobs after Close ran %d times, want 2", got)
	}
}
