package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/pkg/fiscal"
)

// ConsultaSaldosRequest filtros da consulta geral de saldos.
type ConsultaSaldosRequest struct {
	PageRequest
	ClienteCNPJ string `query:"cliente_cnpj"`
	ClienteNome string `query:"cliente_nome"`
	Produto     string `query:"produto"`
}

// SaldoResponse uma linha do livro de saldos na resposta HTTP.
// SaldoDisponivel é derivado na leitura, nunca armazenado.
type SaldoResponse struct {
	ID                  string          `json:"id"`
	ClienteCNPJ         string          `json:"cliente_cnpj"`
	ClienteCNPJFormatado string         `json:"cliente_cnpj_formatado"`
	ClienteNome         string          `json:"cliente_nome"`
	CodigoProduto       string          `json:"codigo_produto"`
	DescricaoProduto    string          `json:"descricao_produto"`
	NumeroLote          string          `json:"numero_lote"`
	NFSaidaNumero       string          `json:"nf_saida_numero,omitempty"`
	NFSaidaSerie        string          `json:"nf_saida_serie,omitempty"`
	NFSaidaChave        string          `json:"nf_saida_chave,omitempty"`
	QuantidadeEnviada   decimal.Decimal `json:"quantidade_enviada"`
	QuantidadeRetornada decimal.Decimal `json:"quantidade_retornada"`
	QuantidadeUtilizada decimal.Decimal `json:"quantidade_utilizada"`
	QuantidadeFaturada  decimal.Decimal `json:"quantidade_faturada"`
	SaldoDisponivel     decimal.Decimal `json:"saldo_disponivel"`
	AtualizadoEm        time.Time       `json:"atualizado_em"`
}

// NewSaldoResponse converte a entidade para a resposta HTTP.
func NewSaldoResponse(s *entity.SaldoMaterial) SaldoResponse {
	return SaldoResponse{
		ID:                   s.ID,
		ClienteCNPJ:          s.ClienteCNPJ,
		ClienteCNPJFormatado: fiscal.Format(s.ClienteCNPJ),
		ClienteNome:          s.ClienteNome,
		CodigoProduto:        s.CodigoProduto,
		DescricaoProduto:     s.DescricaoProduto,
		NumeroLote:           s.NumeroLote,
		NFSaidaNumero:        s.NFSaidaNumero,
		NFSaidaSerie:         s.NFSaidaSerie,
		NFSaidaChave:         s.NFSaidaChave,
		QuantidadeEnviada:    s.QuantidadeEnviada,
		QuantidadeRetornada:  s.QuantidadeRetornada,
		QuantidadeUtilizada:  s.QuantidadeUtilizada,
		QuantidadeFaturada:   s.QuantidadeFaturada,
		SaldoDisponivel:      s.SaldoDisponivel(),
		AtualizadoEm:         s.UpdatedAt,
	}
}

// NewSaldoResponses converte uma lista de entidades.
func NewSaldoResponses(saldos []*entity.SaldoMaterial) []SaldoResponse {
	resp := make([]SaldoResponse, 0, len(saldos))
	for _, s := range saldos {
		resp = append(resp, NewSaldoResponse(s))
	}
	return resp
}

// SaldosPage página de saldos da consulta geral.
type SaldosPage struct {
	Saldos []SaldoResponse `json:"saldos"`
	Meta   PageResponse    `json:"meta"`
}

// ClienteInfo identificação do cliente nos agrupamentos.
type ClienteInfo struct {
	CNPJ          string `json:"cnpj"`
	CNPJFormatado string `json:"cnpj_formatado"`
	Nome          string `json:"nome"`
}

// SaldosClienteResponse saldos de um cliente agrupados por produto.
type SaldosClienteResponse struct {
	Cliente  ClienteInfo            `json:"cliente"`
	Produtos []ProdutoComSaldos     `json:"produtos"`
	Totais   TotaisSaldos           `json:"totais"`
}

// ProdutoComSaldos um produto com suas linhas de saldo (uma por lote/envio).
type ProdutoComSaldos struct {
	CodigoProduto    string          `json:"codigo_produto"`
	DescricaoProduto string          `json:"descricao_produto"`
	SaldoDisponivel  decimal.Decimal `json:"saldo_disponivel"`
	Linhas           []SaldoResponse `json:"linhas"`
}

// SaldosProdutoResponse saldos de um produto agrupados por cliente.
type SaldosProdutoResponse struct {
	CodigoProduto    string             `json:"codigo_produto"`
	DescricaoProduto string             `json:"descricao_produto"`
	Clientes         []ClienteComSaldos `json:"clientes"`
	Totais           TotaisSaldos       `json:"totais"`
}

// ClienteComSaldos um cliente com suas linhas de saldo de um produto.
type ClienteComSaldos struct {
	Cliente         ClienteInfo     `json:"cliente"`
	SaldoDisponivel decimal.Decimal `json:"saldo_disponivel"`
	Linhas          []SaldoResponse `json:"linhas"`
}

// TotaisSaldos somatórios dos quatro contadores e do disponível.
type TotaisSaldos struct {
	Enviada    decimal.Decimal `json:"enviada"`
	Retornada  decimal.Decimal `json:"retornada"`
	Utilizada  decimal.Decimal `json:"utilizada"`
	Faturada   decimal.Decimal `json:"faturada"`
	Disponivel decimal.Decimal `json:"disponivel"`
}

// Acumular soma uma linha de saldo nos totais.
func (t *TotaisSaldos) Acumular(s *entity.SaldoMaterial) {
	t.Enviada = t.Enviada.Add(s.QuantidadeEnviada)
	t.Retornada = t.Retornada.Add(s.QuantidadeRetornada)
	t.Utilizada = t.Utilizada.Add(s.QuantidadeUtilizada)
	t.Faturada = t.Faturada.Add(s.QuantidadeFaturada)
	t.Disponivel = t.Disponivel.Add(s.SaldoDisponivel())
}

// ResumoResponse visão geral do painel.
type ResumoResponse struct {
	TotalNotas      int             `json:"total_notas"`
	TotalClientes   int             `json:"total_clientes"`
	TotalProdutos   int             `json:"total_produtos"`
	SaldosPendentes int             `json:"saldos_pendentes"`
	SaldosCriticos  []SaldoResponse `json:"saldos_criticos"`
}

// ClienteRefResponse item do autocomplete de clientes.
type ClienteRefResponse struct {
	CNPJ string `json:"cnpj"`
	Nome string `json:"nome"`
}

// ProdutoRefResponse item do autocomplete de produtos.
type ProdutoRefResponse struct {
	Codigo    string `json:"codigo"`
	Descricao string `json:"descricao"`
}
