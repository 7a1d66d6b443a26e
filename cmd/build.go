package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/exporttree/internal/source"
)

func newBuildCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build [fixture.json] [output.db]",
		Short: "Build a SQLite page database from a JSON fixture",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, output := args[0], args[1]

			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			abs, err := filepath.Abs(fixture)
			if err != nil {
				return err
			}
			wiki, err := source.ReadWiki(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
			if err != nil {
				return err
			}
			if cfg.Wiki != "" {
				wiki.Name = cfg.Wiki
			}
			if wiki.Name == "" {
				return fmt.Errorf("fixture %s names no wiki; pass --wiki", fixture)
			}

			if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove old %s: %w", output, err)
			}
			writer, err := source.NewSQLiteWriter(output)
			if err != nil {
				return err
			}
			defer func() { _ = writer.Close() }()

			start := time.Now()
			n, err := writer.Write(cmd.Context(), wiki)
			if err != nil {
				return err
			}
			log.Info("built page database",
				zap.String("output", output),
				zap.Int("nodes", n),
				zap.Duration("took", time.Since(start)))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d nodes of wiki %q to %s\n", n, wiki.Name, output)
			return err
		},
	}
}
