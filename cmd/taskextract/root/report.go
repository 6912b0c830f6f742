package root

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleberrangel/schedule-progress-api/internal/database"
	"github.com/cleberrangel/schedule-progress-api/internal/progress"
)

func newReportCmd() *cobra.Command {
	var (
		start, end string
		xlsxPath   string
	)

	cmd := &cobra.Command{
		Use:   "report [weekly|monthly]",
		Short: "Relatório de progresso de uma janela (ou --start/--end)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, db, err := openProgress(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			var report progress.Report
			switch {
			case start != "" || end != "":
				from, err := svc.ParseDate(start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				to, err := svc.ParseDate(end)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}
				if report, err = svc.CustomReport(cmd.Context(), from, to); err != nil {
					return err
				}
			default:
				window := "weekly"
				if len(args) == 1 {
					window = args[0]
				}
				if report, err = svc.Report(cmd.Context(), window); err != nil {
					return err
				}
			}

			if xlsxPath != "" {
				buf, err := svc.ReportXLSX(cmd.Context(), report)
				if err != nil {
					return err
				}
				return os.WriteFile(xlsxPath, buf.Bytes(), 0o644)
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "data inicial (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "data final (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&xlsxPath, "output", "o", "", "grava o relatório em .xlsx")

	return cmd
}

func printReport(out io.Writer, report progress.Report) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATA\tCONCLUÍDAS\tTOTAL\tPERCENTUAL")
	for _, row := range report.Rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d%%\n", row.Date, row.CompletedCount, row.TotalCount, row.Percentage)
	}
	if avg, ok := report.Average(); ok {
		fmt.Fprintf(w, "Total\t%d\t%d\t%.0f%%\n", report.TotalCompleted, report.TotalTasks, avg)
	} else {
		fmt.Fprintln(w, "Total\t0\t0\tN/A")
	}
	return w.Flush()
}
