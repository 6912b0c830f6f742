package root

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleberrangel/schedule-progress-api/internal/extraction"
)

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <linha>...",
		Short: "Mostra como cada linha é classificada (ruído, tier ou descartada)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			uploads, err := newUploads(cfg)
			if err != nil {
				return err
			}

			pipeline := uploads.Pipeline()
			out := make([]extraction.Explanation, 0, len(args))
			for _, line := range args {
				out = append(out, pipeline.Explain(line))
			}

			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LINHA\tRESULTADO\tTAREFA")
			for _, e := range out {
				verdict, task := e.Tier, ""
				switch {
				case e.Blank:
					verdict = "vazia"
				case e.NoiseRule != "":
					verdict = "ruído: " + e.NoiseRule
				case e.Entry != nil:
					task = e.Entry.FullText
				}
				fmt.Fprintf(w, "%q\t%s\t%s\n", e.Line, verdict, task)
			}
			return w.Flush()
		},
	}

	return cmd
}
