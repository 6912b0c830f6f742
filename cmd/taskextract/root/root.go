package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cleberrangel/schedule-progress-api/internal/config"
	"github.com/cleberrangel/schedule-progress-api/internal/logger"
)

const Version = "2.0.0"

var (
	flagVerbose bool
	flagJSON    bool
)

var rootCmd = &cobra.Command{
	Use:           "taskextract",
	Short:         "Extrai tarefas de planilhas, documentos e imagens de agenda",
	Long:          "taskextract roda o mesmo pipeline da API localmente: extração, explicação linha a linha e relatórios de progresso.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if flagVerbose {
			level = "debug"
		}
		logger.InitWithWriter(level, false, os.Stderr)
	},
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log detalhado em stderr")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "saída em JSON")

	rootCmd.AddCommand(
		newExtractCmd(),
		newExplainCmd(),
		newImportCmd(),
		newReportCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro: "+err.Error())
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, fmt.Errorf("configuração: %w", err)
	}
	return cfg, nil
}
