package nn

import (
	"math"
	"sort"
)

// History holds per-epoch training results.
type History struct {
	// Epochs lists the zero-based epochs that completed.
	Epochs []int

	// Metrics maps "loss", metric names and their "val_" counterparts to
	// one value per completed epoch.
	Metrics map[string][]float64
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{Metrics: make(map[string][]float64)}
}

func (h *History) record(epoch int, logs map[string]float64) {
	if h.Metrics == nil {
		h.Metrics = make(map[string][]float64)
	}
	h.Epochs = append(h.Epochs, epoch)
	for name, value := range logs {
		h.Metrics[name] = append(h.Metrics[name], value)
	}
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	return len(h.Epochs)
}

// Names returns the recorded metric names in sorted order.
func (h *History) Names() []string {
	names := make([]string, 0, len(h.Metrics))
	for name := range h.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Last returns the value of name from the final epoch.
func (h *History) Last(name string) (float64, bool) {
	values := h.Metrics[name]
	if len(values) == 0 {
		return math.NaN(), false
	}
	return values[len(values)-1], true
}

// Best returns the epoch and value with the lowest (minimize) or highest
// value of name.
func (h *History) Best(name string, minimize bool) (epoch int, value float64, ok bool) {
	values := h.Metrics[name]
	if len(values) == 0 {
		return 0, math.NaN(), false
	}
	best := 0
	for i, v := range values {
		if (minimize && v < values[best]) || (!minimize && v > values[best]) {
			best = i
		}
	}
	return h.Epochs[best], values[best], true
}
