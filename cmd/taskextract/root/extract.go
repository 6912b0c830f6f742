package root

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <arquivo>",
		Short: "Extrai as tarefas de um arquivo (xlsx, csv, txt, docx, pdf ou imagem)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			uploads, err := newUploads(cfg)
			if err != nil {
				return err
			}

			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}

			result, err := uploads.ProcessFile(cmd.Context(), filepath.Base(path), f, info.Size())
			if err != nil {
				return err
			}

			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return printEntries(cmd.OutOrStdout(), result)
		},
	}

	return cmd
}

func printEntries(out io.Writer, result *service.ExtractionResult) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tHORÁRIO\tTAREFA")
	for i, e := range result.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, orDash(e), e.TaskName)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\n%d tarefas, %d linhas descartadas de %d (%s)\n",
		len(result.Entries), result.Stats.Discarded(), result.Stats.Lines, result.FileType)
	return err
}

func orDash(e model.TaskEntry) string {
	if e.TimeRange == "" {
		return "-"
	}
	return e.TimeRange
}
