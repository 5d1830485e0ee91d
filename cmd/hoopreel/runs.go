package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/hoopreel/internal/chart"
	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/pipeline"
	"github.com/kikiluvv/hoopreel/internal/store"
)

var (
	reportJSON bool
	outputPath string
)

// loadRun resolves an id prefix and loads the run
func loadRun(cmd *cobra.Command, st *store.Store, prefix string) (*pipeline.Project, error) {
	id, err := st.ResolveID(cmd.Context(), prefix)
	if err != nil {
		return nil, err
	}
	return st.LoadProject(cmd.Context(), id)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analysis runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVIDEO\tDURATION\tHIGHLIGHTS\tENABLED\tCREATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ID[:min(8, len(r.ID))], r.Name, r.Duration.Round(time.Second),
				r.Highlights, r.Enabled, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [run id]",
	Short: "Print the highlight timestamps of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		project, err := loadRun(cmd, st, args[0])
		if err != nil {
			return err
		}

		if !reportJSON {
			fmt.Fprintln(cmd.OutOrStdout(), clips.TimestampList(project.Highlights))
			return nil
		}

		report := clips.BuildReport(project.Name, project.CreatedAt, project.Highlights)
		data, err := report.JSON()
		if err != nil {
			return err
		}
		return writeOutput(cmd, data, outputPath)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [run id] [highlight number]",
	Short: "Include or exclude a highlight from export",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid highlight number %q", args[1])
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		project, err := loadRun(cmd, st, args[0])
		if err != nil {
			return err
		}

		enabled, err := project.Manager().Toggle(n)
		if err != nil {
			return err
		}
		if err := st.SetEnabled(cmd.Context(), project.ID, n, enabled); err != nil {
			return err
		}

		state := "excluded"
		if enabled {
			state = "included"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "highlight %d %s\n", n, state)
		return nil
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart [run id]",
	Short: "Render the motion timeline of a run as HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		project, err := loadRun(cmd, st, args[0])
		if err != nil {
			return err
		}

		path := outputPath
		if path == "" {
			path = "timeline.html"
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := chart.Render(f, project.Name, project.Chart, len(project.Regions)); err != nil {
			return err
		}
		log.Info().Str("output", path).Int("samples", len(project.Chart)).Msg("chart written")
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [run id]",
	Short: "Remove a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		id, err := st.ResolveID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := st.DeleteRun(cmd.Context(), id); err != nil {
			return err
		}
		log.Info().Str("run", id).Msg("run deleted")
		return nil
	},
}

// writeOutput writes data to path, or stdout when path is empty
func writeOutput(cmd *cobra.Command, data []byte, path string) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the JSON report")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")
	chartCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output HTML file (default: timeline.html)")
}
