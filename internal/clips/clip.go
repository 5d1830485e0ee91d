package clips

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kikiluvv/hoopreel/pkg/util"
)

// DebugMetrics carries the classifier values that produced a highlight.
type DebugMetrics struct {
	Motion      float64 `json:"motion"`
	Threshold   float64 `json:"threshold"`
	Score       float64 `json:"score"`
	RegionIndex int     `json:"region_index"`
}

// Highlight is an accepted detection instant
type Highlight struct {
	Timestamp  float64      `json:"timestamp"`
	Confidence float64      `json:"confidence"`
	Thumbnail  []byte       `json:"-"`
	Enabled    bool         `json:"enabled"`
	Reasons    []string     `json:"reasons"`
	Debug      DebugMetrics `json:"debug"`
}

// Label renders the highlight for listings, e.g. "1:05.3 (90%) Anomaly Burst, Sharp Spike".
func (h *Highlight) Label() string {
	return fmt.Sprintf("%s (%.0f%%) %s", util.FormatClock(h.Timestamp), h.Confidence, strings.Join(h.Reasons, ", "))
}

// FileName is the download name for a single exported highlight, where n is
// the 1-based position of the highlight in the run.
func (h *Highlight) FileName(n int, ext string) string {
	clock := util.FormatClock(h.Timestamp)
	clock = strings.Replace(clock, ":", "m", 1)
	clock = strings.Replace(clock, ".", "s", 1)
	return fmt.Sprintf("highlight-%d-%s.%s", n, clock, ext)
}

// Manager holds the highlights of one analysis run in detection order
type Manager struct {
	highlights []*Highlight
}

// NewManager creates a new highlight manager
func NewManager(highlights ...*Highlight) *Manager {
	m := &Manager{highlights: make([]*Highlight, 0, len(highlights))}
	for _, h := range highlights {
		m.Add(h)
	}
	return m
}

// Add appends a highlight
func (m *Manager) Add(h *Highlight) {
	m.highlights = append(m.highlights, h)
}

// Get returns the highlight at 1-based position n, or nil.
func (m *Manager) Get(n int) *Highlight {
	if n < 1 || n > len(m.highlights) {
		return nil
	}
	return m.highlights[n-1]
}

// SetEnabled changes export selection for the highlight at position n.
func (m *Manager) SetEnabled(n int, enabled bool) error {
	h := m.Get(n)
	if h == nil {
		return fmt.Errorf("highlight %d not found (have %d)", n, len(m.highlights))
	}
	h.Enabled = enabled
	return nil
}

// Toggle flips export selection for the highlight at position n and returns
// the new state.
func (m *Manager) Toggle(n int) (bool, error) {
	h := m.Get(n)
	if h == nil {
		return false, fmt.Errorf("highlight %d not found (have %d)", n, len(m.highlights))
	}
	h.Enabled = !h.Enabled
	return h.Enabled, nil
}

// All returns all highlights
func (m *Manager) All() []*Highlight {
	return m.highlights
}

// Len returns the number of highlights
func (m *Manager) Len() int {
	return len(m.highlights)
}

// Reset drops every highlight ahead of a new run.
func (m *Manager) Reset() {
	m.highlights = m.highlights[:0]
}

// Enabled returns the enabled highlights sorted by timestamp.
func (m *Manager) Enabled() []*Highlight {
	return EnabledByTime(m.highlights)
}

// EnabledByTime filters highlights to the enabled ones and stably sorts the
// result by timestamp. The input is not modified.
func EnabledByTime(highlights []*Highlight) []*Highlight {
	out := make([]*Highlight, 0, len(highlights))
	for _, h := range highlights {
		if h.Enabled {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
