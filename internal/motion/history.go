package motion

// HistorySize is the number of recent magnitudes kept per region.
const HistorySize = 15

// History is a fixed-capacity window of the most recent motion magnitudes,
// oldest first.
type History struct {
	values []float64
}

// Push appends v, discarding the oldest value once the window is full.
func (h *History) Push(v float64) {
	if len(h.values) == HistorySize {
		copy(h.values, h.values[1:])
		h.values = h.values[:HistorySize-1]
	}
	h.values = append(h.values, v)
}

// Len returns the number of stored values.
func (h *History) Len() int {
	return len(h.values)
}

// Values returns the window oldest to newest. The slice aliases internal
// storage and must not be modified.
func (h *History) Values() []float64 {
	return h.values
}

// Last returns the newest value, or 0 for an empty history.
func (h *History) Last() float64 {
	if len(h.values) == 0 {
		return 0
	}
	return h.values[len(h.values)-1]
}
