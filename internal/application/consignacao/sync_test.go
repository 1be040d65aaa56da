package consignacao_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/pkg/logger"
)

func novoSync(amb *ambiente, source consignacao.NotaSource) *consignacao.SyncUseCase {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return consignacao.NewSyncUseCase(source, amb.processar, log)
}

func TestSync_PercorreTodasAsPaginas(t *testing.T) {
	amb := novoAmbiente()
	item := itemXML{codigo: "PRT-001", qtd: "5", lote: "LT01"}
	source := &fakeNotaSource{
		pages: [][]consignacao.NotaRemota{
			{{ChaveAcesso: chaveSaida1, Numero: "1"}},
			{{ChaveAcesso: chaveSaida2, Numero: "2"}},
		},
		xmls: map[string]string{
			chaveSaida1: xmlNota(chaveSaida1, "5917", item),
			chaveSaida2: xmlNota(chaveSaida2, "5917", item),
		},
	}

	result, err := novoSync(amb, source).Sincronizar(context.Background(), "01/09/2023", "30/09/2023")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalNotas)
	assert.Equal(t, 2, result.Sucessos)
	assert.Equal(t, 0, result.Falhas)
	assert.Len(t, amb.nfRepo.notas, 2)
}

func TestSync_FalhaDeDownloadNaoAbortaOLote(t *testing.T) {
	amb := novoAmbiente()
	item := itemXML{codigo: "PRT-001", qtd: "5", lote: "LT01"}
	source := &fakeNotaSource{
		pages: [][]consignacao.NotaRemota{{
			{ChaveAcesso: chaveSaida1, Numero: "1"},
			{ChaveAcesso: chaveSaida2, Numero: "2"},
		}},
		xmls: map[string]string{
			chaveSaida2: xmlNota(chaveSaida2, "5917", item),
		},
		falhaXML: map[string]error{
			chaveSaida1: errors.New("timeout"),
		},
	}

	result, err := novoSync(amb, source).Sincronizar(context.Background(), "01/09/2023", "30/09/2023")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalNotas)
	assert.Equal(t, 1, result.Sucessos)
	assert.Equal(t, 1, result.Falhas)

	// A nota boa entrou mesmo com a vizinha falhando.
	require.Len(t, amb.nfRepo.notas, 1)
	assert.Equal(t, chaveSaida2, amb.nfRepo.notas[0].ChaveAcesso)

	require.Len(t, result.Detalhes, 2)
	assert.Contains(t, result.Detalhes[0].Erro, "baixar XML")
}

func TestSync_DuplicataContaComoFalhaSemAbortar(t *testing.T) {
	amb := novoAmbiente()
	item := itemXML{codigo: "PRT-001", qtd: "5", lote: "LT01"}
	xml := xmlNota(chaveSaida1, "5917", item)

	// Nota já ingerida antes do lote.
	_, err := amb.processar.ProcessarNotaFiscal(context.Background(), xml)
	require.NoError(t, err)

	source := &fakeNotaSource{
		pages: [][]consignacao.NotaRemota{{{ChaveAcesso: chaveSaida1, Numero: "1"}}},
		xmls:  map[string]string{chaveSaida1: xml},
	}
	result, err := novoSync(amb, source).Sincronizar(context.Background(), "01/09/2023", "30/09/2023")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalNotas)
	assert.Equal(t, 0, result.Sucessos)
	assert.Equal(t, 1, result.Falhas)
	require.NotNil(t, result.Detalhes[0].Resultado)
	assert.False(t, result.Detalhes[0].Resultado.Success)
}

func TestSync_PeriodoInvalido(t *testing.T) {
	amb := novoAmbiente()
	source := &fakeNotaSource{}

	_, err := novoSync(amb, source).Sincronizar(context.Background(), "2023-09-01", "30/09/2023")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSync_FalhaDeListagemSemNotasProcessadas(t *testing.T) {
	amb := novoAmbiente()
	source := &fakeNotaSource{listErr: errors.New("api fora do ar")}

	_, err := novoSync(amb, source).Sincronizar(context.Background(), "01/09/2023", "30/09/2023")
	assert.Error(t, err)
}
