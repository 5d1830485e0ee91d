package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/hoopreel/internal/detect"
)

// DefaultMaxSlowRetries is how many times a slow run is restarted before
// the slow check is switched off.
const DefaultMaxSlowRetries = 3

// Runner is one analysis run; detect.Analyzer satisfies it.
type Runner interface {
	Run(ctx context.Context) (*detect.Result, error)
}

// AnalyzeWithRetry runs a fresh analyzer with the slow check on. Each slow
// abort warms the source and restarts from scratch. After maxRetries
// restarts the next run goes to completion with the check off.
func AnalyzeWithRetry(ctx context.Context, logger zerolog.Logger, maxRetries int, build func(abortOnSlow bool) Runner, warm func(context.Context) error) (*detect.Result, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := build(true).Run(ctx)
		if err == nil {
			return res, nil
		}

		var slow *detect.SlowProcessingError
		if !errors.As(err, &slow) {
			return nil, err
		}

		logger.Warn().
			Int("attempt", attempt+1).
			Dur("average", slow.Average).
			Dur("limit", slow.Limit).
			Msg("processing is slow, restarting analysis")

		if warm != nil {
			if err := warm(ctx); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn().Err(err).Msg("failed to warm source")
			}
		}
	}

	if maxRetries > 0 {
		logger.Info().
			Int("retries", maxRetries).
			Msg("retry budget spent, running to completion without the slow check")
	}
	return build(false).Run(ctx)
}
