package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/exporttree/internal/session"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		ops    []string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Apply selection operations and print the compressed export set",
		Long: `Loads the top level of the tree from --source, applies every --op in order
and prints the resulting export set.

Operations:
  select <id>...      check nodes and their loaded descendants
  deselect <id>...    uncheck nodes and their loaded descendants
  select-all          check everything
  deselect-all        uncheck everything
  open <id>...        load the children of nodes
  reload <id>...      drop and reload the children of nodes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "text" {
				return fmt.Errorf("format must be json or text, got %q", format)
			}
			parsed := make([]session.Op, len(ops))
			for i, raw := range ops {
				op, err := session.ParseOp(raw)
				if err != nil {
					return err
				}
				parsed[i] = op
			}

			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
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

			for _, op := range parsed {
				if err := sess.Apply(cmd.Context(), op); err != nil {
					return err
				}
			}

			if format == "text" {
				return writeText(cmd.OutOrStdout(), sess.Report())
			}
			return writeJSON(cmd.OutOrStdout(), sess)
		},
	}
	cmd.Flags().StringArrayVar(&ops, "op", nil, `Operation to apply, e.g. "deselect document:xwiki:A.WebHome" (repeatable)`)
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or text")
	return cmd
}

func writeJSON(w io.Writer, sess *session.Session) error {
	raw, err := json.MarshalIndent(sess.Exporter.ExportPages(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", raw)
	return err
}

func writeText(w io.Writer, r session.Report) error {
	var b strings.Builder
	for _, incl := range sortedKeys(r.Pages) {
		b.WriteString(incl)
		if excls := r.Pages[incl]; len(excls) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(excls, " "))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "exporting all pages: %t\n", r.ExportingAll)
	fmt.Fprintf(&b, "has export pages: %t\n", r.HasPages)
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
