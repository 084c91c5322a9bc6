package performance

import (
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMatrixPoolShapes(t *testing.T) {
	pool := NewMatrixPool()

	a := pool.Get(4, 3)
	if r, c := a.Dims(); r != 4 || c != 3 {
		t.Fatalf("Get(4, 3) dims = (%d, %d)", r, c)
	}
	b := pool.Get(2, 5)
	if r, c := b.Dims(); r != 2 || c != 5 {
		t.Fatalf("Get(2, 5) dims = (%d, %d)", r, c)
	}

	stats := pool.GetStats()
	if stats.CurrentInUse != 2 || stats.PeakUsage != 2 {
		t.Errorf("stats after two gets = %+v", stats)
	}

	pool.Put(a)
	pool.Put(b)
	pool.Put(nil)

	stats = pool.GetStats()
	if stats.CurrentInUse != 0 || stats.TotalRecycled != 2 {
		t.Errorf("stats after puts = %+v", stats)
	}

	// Whatever comes back must still have the requested shape.
	c := pool.Get(4, 3)
	if r, cc := c.Dims(); r != 4 || cc != 3 {
		t.Errorf("reused dims = (%d, %d)", r, cc)
	}
}

func TestMatrixPoolConcurrent(t *testing.T) {
	pool := NewMatrixPool()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m := pool.Get(8, 8)
				m.Set(0, 0, float64(i))
				pool.Put(m)
			}
		}()
	}
	wg.Wait()

	stats := pool.GetStats()
	if stats.CurrentInUse != 0 {
		t.Errorf("CurrentInUse = %d, want 0", stats.CurrentInUse)
	}
	if stats.PeakUsage < 1 || stats.PeakUsage > 8 {
		t.Errorf("PeakUsage = %d, want within [1, 8]", stats.PeakUsage)
	}
	if stats.TotalRecycled != 800 {
		t.Errorf("TotalRecycled = %d, want 800", stats.TotalRecycled)
	}
}

func TestGatherRows(t *testing.T) {
	src := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	dst := mat.NewDense(2, 2, nil)
	GatherRows(dst, src, []int{2, 0})
	want := mat.NewDense(2, 2, []float64{5, 6, 1, 2})
	if !mat.Equal(dst, want) {
		t.Errorf("GatherRows = %v", mat.Formatted(dst))
	}
}

func BenchmarkMatrixPool(b *testing.B) {
	pool := NewMatrixPool()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := pool.Get(128, 784)
		pool.Put(m)
	}
}
