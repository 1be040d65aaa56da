package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/domain/repository"
)

// Ensure TxRunner implements consignacao.TxRunner.
var _ consignacao.TxRunner = (*TxRunner)(nil)

// TxRunner executa callbacks dentro de uma transação PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner constrói o runner com o pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia uma transação, executa fn com repositórios atados à tx e faz
// Commit ou Rollback. Qualquer erro devolvido por fn desfaz tudo: uma nota
// fiscal entra por inteiro ou não entra.
func (r *TxRunner) Run(ctx context.Context, fn func(
	nfRepo repository.NotaFiscalRepository,
	saldoRepo repository.SaldoMaterialRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	nfRepo := NewNotaFiscalRepository(tx)
	saldoRepo := NewSaldoMaterialRepository(tx)

	if err := fn(nfRepo, saldoRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
