package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/config"
	"github.com/kikiluvv/hoopreel/internal/detect"
	"github.com/kikiluvv/hoopreel/internal/motion"
	"github.com/kikiluvv/hoopreel/internal/pipeline"
)

var (
	regionFlags []string
	noSave      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input video]",
	Short: "Detect highlights in a game video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		regions, err := parseRegions(regionFlags)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		bar := progressbar.NewOptions(100,
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "▐",
				BarEnd:        "▌",
			}),
			progressbar.OptionSetWidth(50),
			progressbar.OptionSetRenderBlankState(true),
		)

		opts := pipeline.AnalyzeOptions{
			Regions: regions,
			OnProgress: func(p detect.Progress) {
				_ = bar.Set(p.Percent())
			},
		}

		project, err := pipe.Analyze(cmd.Context(), args[0], opts)
		_ = bar.Finish()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nrun %s: %d highlights\n", project.ID, len(project.Highlights))
		if len(project.Highlights) > 0 {
			fmt.Fprintln(out, clips.TimestampList(project.Highlights))
		}

		if noSave {
			return nil
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveProject(cmd.Context(), project); err != nil {
			return err
		}
		log.Info().Str("run", project.ID).Str("store", cfg.Store.Path).Msg("run saved")
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringArrayVarP(&regionFlags, "region", "r", nil,
		"detection region as x,y,width,height fractions of the frame (repeat for a second hoop)")
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
}

// parseRegions turns "x,y,w,h" flag values into regions. No flags means the
// configured regions are used.
func parseRegions(values []string) ([]motion.Region, error) {
	if len(values) == 0 {
		return nil, nil
	}

	regions := make([]motion.Region, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ",")
		if len(parts) != 4 {
			return nil, fmt.Errorf("region %q: want x,y,width,height", v)
		}
		var f [4]float64
		for i, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("region %q: %w", v, err)
			}
			f[i] = n
		}
		regions = append(regions, motion.Region{X: f[0], Y: f[1], Width: f[2], Height: f[3]})
	}

	if err := motion.ValidateRegions(regions); err != nil {
		return nil, err
	}
	return regions, nil
}
