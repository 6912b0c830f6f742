package root

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleberrangel/schedule-progress-api/internal/database"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <YYYY-MM-DD> <arquivo>",
		Short: "Extrai um arquivo e substitui o registro do dia no banco",
		Args:  cobra.ExactArgs(2),
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

			date, err := svc.ParseDate(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			record, _, err := svc.ImportFile(cmd.Context(), date, filepath.Base(args[1]), f, info.Size())
			if err != nil {
				return err
			}

			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), record)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tarefas importadas\n", record.Date, record.TotalCount)
			return err
		},
	}

	return cmd
}
