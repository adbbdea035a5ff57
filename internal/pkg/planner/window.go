package planner

//DefaultWindowSize is the number of most recent entries kept per (task type, resource)
const DefaultWindowSize = 20

//Mean is an average duration. Not observed value is worse than any observed one
type Mean struct {
	Observed bool
	Value    float64
}

//Less compares means: observed before unobserved, smaller before larger
func (m Mean) Less(o Mean) bool {
	if m.Observed != o.Observed {
		return m.Observed
	}
	return m.Value < o.Value
}

//window keeps the rolling duration history for one (task type, resource) pair.
//The last entry holds a start timestamp while pending is set
type window struct {
	size     int
	observed bool
	entries  []float64
	pending  bool
}

func newWindow(size int) *window {
	return &window{size: size}
}

func (w *window) start(ts float64) {
	w.observed = true
	if len(w.entries) >= w.size {
		w.entries = append(w.entries[:0], w.entries[1:]...)
	}
	w.entries = append(w.entries, ts)
	w.pending = true
}

func (w *window) complete(ts float64) (float64, error) {
	if !w.pending || len(w.entries) == 0 {
		return 0, ErrNoMatchingStart
	}
	l := len(w.entries) - 1
	d := ts - w.entries[l]
	if d < 0 {
		return 0, ErrNegativeDuration
	}
	w.entries[l] = d
	w.pending = false
	return d, nil
}

func (w *window) durations() []float64 {
	if w.pending {
		return w.entries[:len(w.entries)-1]
	}
	return w.entries
}

func (w *window) mean() Mean {
	d := w.durations()
	if len(d) == 0 {
		return Mean{}
	}
	s := 0.0
	for _, v := range d {
		s += v
	}
	return Mean{Observed: true, Value: s / float64(len(d))}
}
