// Package performance holds allocation helpers for the training loop.
package performance

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

type shapeKey struct {
	rows, cols int
}

// MatrixPool recycles *mat.Dense buffers by shape. Mini-batch training asks
// for the same (batch, features) shapes every step, so after the first
// epoch almost every Get is served from the pool.
type MatrixPool struct {
	mu    sync.Mutex
	pools map[shapeKey]*sync.Pool

	created  int64
	gets     int64
	recycled int64
	inUse    int64
	peak     int64
}

// PoolStats tracks pool performance metrics.
type PoolStats struct {
	TotalAllocated int64
	TotalRecycled  int64
	CurrentInUse   int64
	PeakUsage      int64
	// ReuseRate is the fraction of Get calls served without allocating.
	ReuseRate float64
}

// NewMatrixPool creates an empty pool.
func NewMatrixPool() *MatrixPool {
	return &MatrixPool{pools: make(map[shapeKey]*sync.Pool)}
}

func (mp *MatrixPool) poolFor(rows, cols int) *sync.Pool {
	key := shapeKey{rows, cols}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	p, ok := mp.pools[key]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} {
				atomic.AddInt64(&mp.created, 1)
				return mat.NewDense(rows, cols, nil)
			},
		}
		mp.pools[key] = p
	}
	return p
}

// Get returns a rows x cols matrix. Its contents are unspecified; callers
// overwrite every entry or call Zero.
func (mp *MatrixPool) Get(rows, cols int) *mat.Dense {
	atomic.AddInt64(&mp.gets, 1)
	current := atomic.AddInt64(&mp.inUse, 1)
	for {
		peak := atomic.LoadInt64(&mp.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&mp.peak, peak, current) {
			break
		}
	}
	return mp.poolFor(rows, cols).Get().(*mat.Dense)
}

// Put returns m to the pool. m must not be used afterwards. Nil and empty
// matrices are ignored.
func (mp *MatrixPool) Put(m *mat.Dense) {
	if m == nil || m.IsEmpty() {
		return
	}
	atomic.AddInt64(&mp.inUse, -1)
	atomic.AddInt64(&mp.recycled, 1)
	r, c := m.Dims()
	mp.poolFor(r, c).Put(m)
}

// GetStats returns current pool statistics.
func (mp *MatrixPool) GetStats() PoolStats {
	created := atomic.LoadInt64(&mp.created)
	gets := atomic.LoadInt64(&mp.gets)
	reuse := 0.0
	if gets > 0 {
		reuse = float64(gets-created) / float64(gets)
	}
	return PoolStats{
		TotalAllocated: created,
		TotalRecycled:  atomic.LoadInt64(&mp.recycled),
		CurrentInUse:   atomic.LoadInt64(&mp.inUse),
		PeakUsage:      atomic.LoadInt64(&mp.peak),
		ReuseRate:      reuse,
	}
}

// GatherRows copies the rows of src listed in idx, in order, into dst. dst
// must have len(idx) rows and as many columns as src.
func GatherRows(dst, src *mat.Dense, idx []int) {
	for i, row := range idx {
		copy(dst.RawRowView(i), src.RawRowView(row))
	}
}
