// Comando de linha para sincronizar notas fiscais do Mainô sem subir a API.
// Útil em cron jobs e em cargas históricas:
//
//	sync notas --data-inicio 01/01/2026 --data-fim 31/01/2026
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/infrastructure/maino"
	infranfe "github.com/opmetrack/opme-control/internal/infrastructure/nfe"
	"github.com/opmetrack/opme-control/internal/infrastructure/postgres"
	"github.com/opmetrack/opme-control/pkg/config"
	"github.com/opmetrack/opme-control/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:   "sync",
		Short: "Sincronização de notas fiscais consignadas (Mainô → banco local)",
	}
	root.AddCommand(newNotasCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newNotasCmd() *cobra.Command {
	var dataInicio, dataFim string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "notas",
		Short: "Baixa e processa as NFe emitidas no período informado",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), dataInicio, dataFim, verbose)
		},
	}

	hoje := time.Now().Format("02/01/2006")
	cmd.Flags().StringVar(&dataInicio, "data-inicio", hoje, "início do período (DD/MM/YYYY)")
	cmd.Flags().StringVar(&dataFim, "data-fim", hoje, "fim do período (DD/MM/YYYY)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "imprime o detalhe de cada nota")

	return cmd
}

func runSync(ctx context.Context, dataInicio, dataFim string, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("carregar configuração: %w", err)
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexão ao PostgreSQL: %w", err)
	}
	defer pool.Close()

	nfRepo := postgres.NewNotaFiscalRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	ledger := consignacao.NewLedger(log)
	processarUC := consignacao.NewProcessarNotaUseCase(nfRepo, infranfe.NewParser(), ledger, txRunner, log)
	syncUC := consignacao.NewSyncUseCase(maino.NewClient(cfg.Maino, log), processarUC, log)

	result, err := syncUC.Sincronizar(ctx, dataInicio, dataFim)
	if err != nil {
		return err
	}

	fmt.Printf("Período %s a %s: %d notas, %d sucessos, %d falhas\n",
		dataInicio, dataFim, result.TotalNotas, result.Sucessos, result.Falhas)

	if verbose {
		for _, d := range result.Detalhes {
			status := "ok"
			if d.Erro != "" {
				status = "erro: " + d.Erro
			} else if d.Resultado != nil && !d.Resultado.Success {
				status = "rejeitada: " + d.Resultado.Motivo
			}
			fmt.Printf("  %s  %s\n", d.ChaveAcesso, status)
		}
	}

	if result.Falhas > 0 {
		return fmt.Errorf("%d notas falharam na sincronização", result.Falhas)
	}
	return nil
}
