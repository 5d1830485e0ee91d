package clips

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kikiluvv/hoopreel/pkg/util"
)

// Report is the JSON summary of the enabled highlights of a run.
type Report struct {
	VideoSource     string        `json:"videoSource"`
	ProcessedDate   time.Time     `json:"processedDate"`
	TotalHighlights int           `json:"totalHighlights"`
	Highlights      []ReportEntry `json:"highlights"`
}

// ReportEntry is one line of a Report.
type ReportEntry struct {
	Number        int     `json:"number"`
	Timestamp     float64 `json:"timestamp"`
	FormattedTime string  `json:"formattedTime"`
	Confidence    int     `json:"confidence"`
}

// BuildReport summarises the enabled highlights in timestamp order.
func BuildReport(source string, processed time.Time, highlights []*Highlight) Report {
	enabled := EnabledByTime(highlights)

	r := Report{
		VideoSource:     source,
		ProcessedDate:   processed.UTC(),
		TotalHighlights: len(enabled),
		Highlights:      make([]ReportEntry, 0, len(enabled)),
	}
	for i, h := range enabled {
		r.Highlights = append(r.Highlights, ReportEntry{
			Number:        i + 1,
			Timestamp:     h.Timestamp,
			FormattedTime: util.FormatClock(h.Timestamp),
			Confidence:    int(math.Round(h.Confidence)),
		})
	}
	return r
}

// JSON renders the report indented by two spaces.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// TimestampList renders enabled highlights one per line, e.g.
// "1. 0:05.3 (90% confidence)".
func TimestampList(highlights []*Highlight) string {
	enabled := EnabledByTime(highlights)
	lines := make([]string, len(enabled))
	for i, h := range enabled {
		lines[i] = fmt.Sprintf("%d. %s (%d%% confidence)", i+1, util.FormatClock(h.Timestamp), int(math.Round(h.Confidence)))
	}
	return strings.Join(lines, "\n")
}
