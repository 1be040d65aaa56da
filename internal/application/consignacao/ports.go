package consignacao

import (
	"context"

	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/internal/domain/repository"
)

// TxRunner executa uma função dentro de uma transação de banco, passando
// repositórios atados a essa tx. Garante a atomicidade do processamento:
// cabeçalho, itens e mutações de saldo de uma nota entram juntos ou nenhum entra.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		nfRepo repository.NotaFiscalRepository,
		saldoRepo repository.SaldoMaterialRepository,
	) error) error
}

// DocumentoParser extrai a NotaFiscal estruturada do XML bruto.
type DocumentoParser interface {
	// Validar verifica a estrutura mínima; erro embrulha domain.ErrXMLInvalido.
	Validar(xmlContent string) error
	Parse(xmlContent string) (*entity.NotaFiscal, error)
}

// NotaRemota referência de uma nota na fonte remota.
type NotaRemota struct {
	ChaveAcesso string
	Numero      string
}

// PaginaNotas uma página da listagem remota de notas emitidas.
type PaginaNotas struct {
	Notas       []NotaRemota
	TotalPages  int
	CurrentPage int
}

// NotaSource fonte remota de notas fiscais (API do emissor).
type NotaSource interface {
	// ListarNotasEmitidas lista as notas emitidas no período (datas DD/MM/YYYY), paginado.
	ListarNotasEmitidas(ctx context.Context, dataInicio, dataFim string, page int) (*PaginaNotas, error)
	// ObterXML baixa o XML completo de uma nota pela chave de acesso.
	ObterXML(ctx context.Context, chaveAcesso string) (string, error)
}
