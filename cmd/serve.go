package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentic-research/exporttree/internal/mcpserver"
	"github.com/agentic-research/exporttree/internal/session"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve one selection session as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr.
			log, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			sess, err := session.Open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			return mcpserver.New(sess, version, log.Named("mcp")).ServeStdio()
		},
	}
}
