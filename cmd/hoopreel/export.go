package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/hoopreel/internal/config"
	"github.com/kikiluvv/hoopreel/internal/pipeline"
)

var (
	exportOutput string
	noOverlay    bool
)

var exportCmd = &cobra.Command{
	Use:   "export [run id]",
	Short: "Stitch the enabled highlights of a run into one reel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		project, err := loadRun(cmd, st, args[0])
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		opts := pipeline.ExportConfig(cfg)
		if noOverlay {
			opts.Overlay = false
		}

		out, err := pipe.Export(cmd.Context(), project, opts)
		if err != nil {
			return err
		}

		path := exportOutput
		if path == "" {
			base := strings.TrimSuffix(project.Name, filepath.Ext(project.Name))
			path = fmt.Sprintf("%s-highlights.%s", base, out.Extension)
		}
		return save(cmd, path, out)
	},
}

var clipCmd = &cobra.Command{
	Use:   "clip [run id] [highlight number]",
	Short: "Export a single highlight",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

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

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		out, err := pipe.ExportClip(cmd.Context(), project, n, pipeline.ExportConfig(cfg))
		if err != nil {
			return err
		}

		path := exportOutput
		if path == "" {
			path = project.Manager().Get(n).FileName(n, out.Extension)
		}
		return save(cmd, path, out)
	},
}

func save(cmd *cobra.Command, path string, out *pipeline.Output) error {
	if err := os.WriteFile(path, out.Data, 0644); err != nil {
		return err
	}
	log.Info().
		Str("output", path).
		Str("mime", out.MIMEType).
		Int("bytes", len(out.Data)).
		Msg("export written")
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")
	exportCmd.Flags().BoolVar(&noOverlay, "no-overlay", false, "skip the i/N counter overlay")
	clipCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")
}
