package web

import "testing"

func TestWorkerPool_ProcessesAllJobs(t *testing.T) {
	pool := NewWorkerPool[int, int](4, 10)
	pool.Start(func(j int) int { return j * 2 })

	for i := 0; i < 10; i++ {
		pool.Submit(i)
	}
	pool.Close()

	sum := 0
	count := 0
	for r := range pool.Results() {
		sum += r
		count++
	}
	if count != 10 {
		t.Fatalf("got %d results, want 10", count)
	}
	want := 0
	for i := 0; i < 10; i++ {
		want += i * 2
	}
	if sum != want {
		t.Errorf("sum of results = %d, want %d", sum, want)
	}
}

func TestWorkerPool_NumWorkersClampedToJobCount(t *testing.T) {
	pool := NewWorkerPool[int, int](16, 3)
	if pool.numWorkers != 3 {
		t.Errorf("numWorkers = %d, want 3 (clamped to the job count)", pool.numWorkers)
	}
}

func TestWorkerPool_NonPositiveWorkersUsesDefault(t *testing.T) {
	pool := NewWorkerPool[int, int](0, 0)
	if pool.numWorkers != defaultWorkers() {
		t.Errorf("numWorkers = %d, want defaultWorkers() = %d", pool.numWorkers, defaultWorkers())
	}
}

func TestWorkerPool_ResultsChannelClosesAfterClose(t *testing.T) {
	pool := NewWorkerPool[int, int](2, 2)
	pool.Start(func(j int) int { return j })
	pool.Submit(1)
	pool.Submit(2)
	pool.Close()

	n := 0
	for range pool.Results() {
		n++
	}
	if n != 2 {
		t.Errorf("drained %d results, want 2", n)
	}
	// The channel must be closed by now; a second range should exit immediately.
	for range pool.Results() {
		t.Error("Results() yielded a value after being fully drained and closed")
	}
}
