package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatSeconds renders a duration as fractional seconds with two decimals,
// the form ffmpeg accepts for -ss and -t.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}

// FormatClock formats seconds as m:ss.d (minutes, zero padded seconds, tenths).
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	tenths := int(math.Floor(math.Mod(seconds, 1) * 10))
	return fmt.Sprintf("%d:%02d.%d", mins, secs, tenths)
}

// Seconds converts a float second count to a time.Duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
