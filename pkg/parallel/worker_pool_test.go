package parallel

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dd0wney/orbitgraph/pkg/logging"
)

func newTestPool(t testing.TB, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers, nil)
	if err != nil {
		t.Fatalf("NewWorkerPool(%d): %v", workers, err)
	}
	return pool
}

func TestWorkerPoolSizing(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
		wantErr bool
	}{
		{"zero defaults to one", 0, 1, false},
		{"negative defaults to one", -5, 1, false},
		{"typical", 4, 4, false},
		{"at limit", MaxWorkers, MaxWorkers, false},
		{"over limit", MaxWorkers + 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewWorkerPool(tt.workers, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer pool.Close()
			if pool.workers != tt.want {
				t.Errorf("workers = %d, want %d", pool.workers, tt.want)
			}
			if cap(pool.taskQueue) != tt.want*2 {
				t.Errorf("queue capacity = %d, want %d", cap(pool.taskQueue), tt.want*2)
			}
		})
	}
}

func TestWorkerPoolTaskExecution(t *testing.T) {
	pool := newTestPool(t, 5)

	numTasks := 50
	executed := make([]bool, numTasks)
	var mu sync.Mutex

	for i := 0; i < numTasks; i++ {
		taskID := i
		pool.Submit(func() {
			mu.Lock()
			executed[taskID] = true
			mu.Unlock()
		})
	}

	pool.Close()

	for i, exec := range executed {
		if !exec {
			t.Errorf("Task %d was not executed", i)
		}
	}
	if pool.Pending() != 0 {
		t.Errorf("pending = %d after close", pool.Pending())
	}
}

func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := newTestPool(t, 10)

	numTasks := 100
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() {
				atomic.AddInt64(&counter, 1)
			})
		}()
	}

	wg.Wait()
	pool.Close()

	if counter != int64(numTasks) {
		t.Errorf("Expected counter %d, got %d", numTasks, counter)
	}
}

// Closing while submitters are active must not panic on a closed channel.
func TestWorkerPoolCloseRace(t *testing.T) {
	for iteration := 0; iteration < 50; iteration++ {
		pool := newTestPool(t, 4)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pool.TrySubmit(func() {
						time.Sleep(time.Millisecond)
					})
				}
			}()
		}

		time.Sleep(2 * time.Millisecond)
		pool.Close()
		wg.Wait()
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := newTestPool(t, 2)
	pool.Close()
	pool.Close()

	if pool.Submit(func() { t.Error("must not run") }) {
		t.Error("Submit after close should return false")
	}
	if pool.TrySubmit(func() { t.Error("must not run") }) {
		t.Error("TrySubmit after close should return false")
	}
}

func TestWorkerPoolTrySubmitFullQueue(t *testing.T) {
	pool := newTestPool(t, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func() {
		close(started)
		<-release
	})
	<-started

	// one worker busy, queue holds two more
	accepted := 0
	for i := 0; i < 5; i++ {
		if pool.TrySubmit(func() {}) {
			accepted++
		}
	}
	if accepted != 2 {
		t.Errorf("accepted %d tasks into a queue of 2", accepted)
	}
	if pool.Pending() != 3 {
		t.Errorf("pending = %d, want 3", pool.Pending())
	}

	close(release)
	pool.Close()
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	pool, err := NewWorkerPool(2, logging.NewJSONLogger(&buf, logging.ErrorLevel))
	if err != nil {
		t.Fatal(err)
	}

	var counter int64
	for i := 0; i < 3; i++ {
		pool.Submit(func() { panic("decode exploded") })
	}
	for i := 0; i < 10; i++ {
		pool.Submit(func() { atomic.AddInt64(&counter, 1) })
	}
	pool.Close()

	if counter != 10 {
		t.Errorf("Expected counter 10, got %d", counter)
	}
	if strings.Count(buf.String(), "task panic recovered") != 3 {
		t.Errorf("expected 3 panic reports, got log:\n%s", buf.String())
	}
}

func BenchmarkWorkerPoolThroughput(b *testing.B) {
	pool := newTestPool(b, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {})
	}

	pool.Close()
}
