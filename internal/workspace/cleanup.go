package workspace

import (
	"github.com/rs/zerolog"
)

// CleanupResult is the outcome of deleting one name.
type CleanupResult struct {
	Name    string
	Removed bool
	// Err is set when the name existed but could not be removed.
	Err error
}

// Remover is the part of a namespace Cleanup needs.
type Remover interface {
	Remove(name string) error
}

// Cleanup deletes every name, ignoring names that are already gone. It never
// fails; names that could not be removed are reported in one warning.
func Cleanup(logger zerolog.Logger, r Remover, names ...string) []CleanupResult {
	results := make([]CleanupResult, 0, len(names))
	var failed []string

	for _, name := range names {
		res := CleanupResult{Name: name}
		err := r.Remove(name)
		switch {
		case err == nil:
			res.Removed = true
		case IsNotExist(err):
		default:
			res.Err = err
			failed = append(failed, name)
		}
		results = append(results, res)
	}

	if len(failed) > 0 {
		logger.Warn().
			Strs("names", failed).
			Int("attempted", len(names)).
			Msg("workspace cleanup left files behind")
	}
	return results
}

// RemoverFunc adapts a delete function to a Remover.
type RemoverFunc func(name string) error

// Remove calls f(name).
func (f RemoverFunc) Remove(name string) error {
	return f(name)
}
