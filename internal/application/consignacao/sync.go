package consignacao

import (
	"context"
	"fmt"
	"regexp"

	"github.com/opmetrack/opme-control/internal/application/dto"
	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/pkg/logger"
)

// reDataBR valida datas DD/MM/YYYY exigidas pela API remota.
var reDataBR = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// SyncUseCase sincroniza um período de notas emitidas da fonte remota:
// percorre a listagem paginada, baixa o XML de cada nota e processa uma a uma.
// A falha de uma nota (download ou processamento) é contada e registrada, mas
// nunca aborta o lote.
type SyncUseCase struct {
	source    NotaSource
	processar *ProcessarNotaUseCase
	log       *logger.Logger
}

// NewSyncUseCase constrói o sincronizador.
func NewSyncUseCase(source NotaSource, processar *ProcessarNotaUseCase, log *logger.Logger) *SyncUseCase {
	return &SyncUseCase{source: source, processar: processar, log: log}
}

// Sincronizar processa todas as notas emitidas no período (datas DD/MM/YYYY).
func (uc *SyncUseCase) Sincronizar(ctx context.Context, dataInicio, dataFim string) (*dto.SyncResult, error) {
	if !reDataBR.MatchString(dataInicio) || !reDataBR.MatchString(dataFim) {
		return nil, fmt.Errorf("período deve usar datas DD/MM/YYYY: %w", domain.ErrInvalidInput)
	}

	result := &dto.SyncResult{}
	page := 1
	for {
		pagina, err := uc.source.ListarNotasEmitidas(ctx, dataInicio, dataFim, page)
		if err != nil {
			// Sem a listagem não há o que iterar; devolve o que já foi feito.
			uc.log.Error().Err(err).Int("page", page).Msg("falha ao listar notas remotas; lote interrompido")
			if result.TotalNotas == 0 {
				return nil, fmt.Errorf("listar notas emitidas: %w", err)
			}
			return result, nil
		}

		for _, nota := range pagina.Notas {
			result.TotalNotas++
			detalhe := dto.SyncDetalhe{ChaveAcesso: nota.ChaveAcesso, Numero: nota.Numero}

			xmlContent, err := uc.source.ObterXML(ctx, nota.ChaveAcesso)
			if err != nil {
				result.Falhas++
				detalhe.Erro = fmt.Sprintf("baixar XML: %v", err)
				result.Detalhes = append(result.Detalhes, detalhe)
				uc.log.Warn().Err(err).Str("chave_acesso", nota.ChaveAcesso).Msg("falha ao baixar XML; nota pulada")
				continue
			}

			resultado, err := uc.processar.ProcessarNotaFiscal(ctx, xmlContent)
			if err != nil {
				result.Falhas++
				detalhe.Erro = err.Error()
				result.Detalhes = append(result.Detalhes, detalhe)
				uc.log.Error().Err(err).Str("chave_acesso", nota.ChaveAcesso).Msg("falha ao processar nota; lote continua")
				continue
			}

			detalhe.Resultado = resultado
			result.Detalhes = append(result.Detalhes, detalhe)
			if resultado.Success {
				result.Sucessos++
			} else {
				result.Falhas++
			}
		}

		if pagina.TotalPages <= page {
			break
		}
		page++
	}

	uc.log.Info().
		Str("data_inicio", dataInicio).
		Str("data_fim", dataFim).
		Int("total", result.TotalNotas).
		Int("sucessos", result.Sucessos).
		Int("falhas", result.Falhas).
		Msg("sincronização concluída")
	return result, nil
}
