package model

import (
	"context"

	"github.com/YuminosukeSato/denseflow/performance"
	"gonum.org/v1/gonum/mat"
)

// Batch is one mini-batch of samples and targets. X and Y come from the
// pool passed to StreamBatches; the consumer hands them back with Release.
type Batch struct {
	Step int // zero-based position within the epoch
	X    *mat.Dense
	Y    *mat.Dense

	pool *performance.MatrixPool
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int {
	r, _ := b.X.Dims()
	return r
}

// Release returns the batch buffers to their pool.
func (b *Batch) Release() {
	if b.pool == nil {
		return
	}
	b.pool.Put(b.X)
	b.pool.Put(b.Y)
	b.X, b.Y = nil, nil
}

// StreamBatches gathers the rows of x and y named by order into batches of
// at most batchSize rows and delivers them on the returned channel. The
// next batch is assembled while the consumer works on the current one. The
// channel is closed after the last batch or when ctx is done.
func StreamBatches(ctx context.Context, x, y *mat.Dense, order []int, batchSize int, pool *performance.MatrixPool) <-chan *Batch {
	out := make(chan *Batch, 1)
	_, xc := x.Dims()
	_, yc := y.Dims()

	go func() {
		defer close(out)
		for step, start := 0, 0; start < len(order); step, start = step+1, start+batchSize {
			end := min(start+batchSize, len(order))
			idx := order[start:end]
			b := &Batch{Step: step, X: pool.Get(len(idx), xc), Y: pool.Get(len(idx), yc), pool: pool}
			performance.GatherRows(b.X, x, idx)
			performance.GatherRows(b.Y, y, idx)
			select {
			case out <- b:
			case <-ctx.Done():
				b.Release()
				return
			}
		}
	}()
	return out
}
