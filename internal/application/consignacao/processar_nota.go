package consignacao

import (
	"context"
	"errors"
	"fmt"

	"github.com/opmetrack/opme-control/internal/application/dto"
	"github.com/opmetrack/opme-control/internal/domain"
	domnfe "github.com/opmetrack/opme-control/internal/domain/nfe"
	"github.com/opmetrack/opme-control/internal/domain/repository"
	"github.com/opmetrack/opme-control/pkg/logger"
)

// ProcessarNotaUseCase orquestra a ingestão de uma nota fiscal: valida o XML,
// extrai a estrutura, rejeita duplicatas e persiste cabeçalho, itens e
// mutações de saldo numa única transação.
type ProcessarNotaUseCase struct {
	nfRepo   repository.NotaFiscalRepository
	parser   DocumentoParser
	ledger   *Ledger
	txRunner TxRunner
	log      *logger.Logger
}

// NewProcessarNotaUseCase constrói o orquestrador de ingestão.
func NewProcessarNotaUseCase(nfRepo repository.NotaFiscalRepository, parser DocumentoParser, ledger *Ledger, txRunner TxRunner, log *logger.Logger) *ProcessarNotaUseCase {
	return &ProcessarNotaUseCase{nfRepo: nfRepo, parser: parser, ledger: ledger, txRunner: txRunner, log: log}
}

// ProcessarNotaFiscal processa um XML de NFe de ponta a ponta.
//
// Rejeições de negócio (XML inválido, nota duplicada) voltam como resultado
// com Success=false e Motivo preenchido, sem erro: o chamador distingue a nota
// ruim da falha de infraestrutura. Erro não-nil significa que nada foi
// persistido (a transação desfaz tudo).
func (uc *ProcessarNotaUseCase) ProcessarNotaFiscal(ctx context.Context, xmlContent string) (*dto.ProcessamentoResult, error) {
	if err := uc.parser.Validar(xmlContent); err != nil {
		if errors.Is(err, domain.ErrXMLInvalido) {
			return &dto.ProcessamentoResult{
				Success: false,
				Motivo:  dto.MotivoXMLInvalido,
				Message: err.Error(),
			}, nil
		}
		return nil, err
	}

	nf, err := uc.parser.Parse(xmlContent)
	if err != nil {
		if errors.Is(err, domain.ErrXMLInvalido) {
			return &dto.ProcessamentoResult{
				Success: false,
				Motivo:  dto.MotivoXMLInvalido,
				Message: err.Error(),
			}, nil
		}
		return nil, err
	}

	exists, err := uc.nfRepo.ExistsByChaveAcesso(nf.ChaveAcesso)
	if err != nil {
		return nil, fmt.Errorf("verificar duplicata: %w", err)
	}
	if exists {
		return uc.resultadoDuplicada(nf.ChaveAcesso), nil
	}

	itensProcessados := 0
	err = uc.txRunner.Run(ctx, func(nfRepo repository.NotaFiscalRepository, saldoRepo repository.SaldoMaterialRepository) error {
		if err := nfRepo.Create(nf); err != nil {
			return err
		}
		for i := range nf.Itens {
			item := &nf.Itens[i]
			item.NotaFiscalID = nf.ID
			if err := nfRepo.CreateItem(item); err != nil {
				return err
			}
			// Item sem lote fica fora da conciliação; CFOP desconhecido também.
			if !item.TemLote() || !domnfe.MovimentaSaldo(nf.TipoOperacao) {
				continue
			}
			if err := uc.ledger.AplicarItem(saldoRepo, nf, item); err != nil {
				return err
			}
			itensProcessados++
		}
		return nil
	})
	if err != nil {
		// Corrida entre o Exists e o INSERT: o índice único decide.
		if errors.Is(err, domain.ErrNotaDuplicada) {
			return uc.resultadoDuplicada(nf.ChaveAcesso), nil
		}
		return nil, fmt.Errorf("processar nota %s: %w", nf.ChaveAcesso, err)
	}

	uc.log.Info().
		Str("chave_acesso", nf.ChaveAcesso).
		Str("tipo_operacao", nf.TipoOperacao).
		Int("itens_processados", itensProcessados).
		Msg("nota fiscal processada")

	return &dto.ProcessamentoResult{
		Success:          true,
		Message:          fmt.Sprintf("nota %s/%s processada", nf.Numero, nf.Serie),
		NotaFiscalID:     nf.ID,
		ChaveAcesso:      nf.ChaveAcesso,
		TipoOperacao:     nf.TipoOperacao,
		ItensProcessados: itensProcessados,
	}, nil
}

func (uc *ProcessarNotaUseCase) resultadoDuplicada(chave string) *dto.ProcessamentoResult {
	return &dto.ProcessamentoResult{
		Success:     false,
		Motivo:      dto.MotivoDuplicada,
		Message:     fmt.Sprintf("nota fiscal %s já foi processada", chave),
		ChaveAcesso: chave,
	}
}
