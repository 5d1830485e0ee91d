// Package motion measures frame-to-frame pixel change inside regions of
// interest and tracks an adaptive noise baseline for each region.
package motion

import (
	"errors"
	"fmt"
)

// MaxRegions is the number of regions that may be analyzed at once.
const MaxRegions = 2

// ErrTooManyRegions is returned when more than MaxRegions are configured.
var ErrTooManyRegions = errors.New("too many regions")

// Region is a rectangle in normalized frame coordinates, each field in [0,1].
type Region struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Area returns the fraction of the frame covered by the region.
func (r Region) Area() float64 {
	return r.Width * r.Height
}

// Validate checks that the region lies inside the unit square.
func (r Region) Validate() error {
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("region %v: origin must be non-negative and size positive", r)
	}
	if r.X+r.Width > 1 || r.Y+r.Height > 1 {
		return fmt.Errorf("region %v: extends outside the frame", r)
	}
	return nil
}

// ValidateRegions checks a region list as a whole.
func ValidateRegions(regions []Region) error {
	if len(regions) > MaxRegions {
		return fmt.Errorf("%w: %d configured, at most %d", ErrTooManyRegions, len(regions), MaxRegions)
	}
	for i, r := range regions {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("region %d: %w", i+1, err)
		}
	}
	return nil
}

// RegionCount is the number of motion values produced per instant for the
// given configuration: one per region, or one for the whole frame.
func RegionCount(regions []Region) int {
	return max(1, len(regions))
}
