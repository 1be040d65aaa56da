package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opmetrack/opme-control/internal/domain/entity"
)

// Códigos de falha de processamento de nota.
const (
	MotivoXMLInvalido = "XML_INVALIDO"
	MotivoDuplicada   = "DUPLICADA"
)

// ProcessamentoResult resultado do processamento de uma nota.
// Success=false com Motivo preenchido é rejeição de negócio (XML inválido ou
// nota duplicada), não erro de infraestrutura.
type ProcessamentoResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Motivo           string `json:"motivo,omitempty"`
	NotaFiscalID     string `json:"nota_fiscal_id,omitempty"`
	ChaveAcesso      string `json:"chave_acesso,omitempty"`
	TipoOperacao     string `json:"tipo_operacao,omitempty"`
	ItensProcessados int    `json:"itens_processados"`
}

// SyncDetalhe resultado individual de uma nota dentro de um lote de sincronização.
type SyncDetalhe struct {
	ChaveAcesso string               `json:"chave_acesso"`
	Numero      string               `json:"numero,omitempty"`
	Erro        string               `json:"erro,omitempty"`
	Resultado   *ProcessamentoResult `json:"resultado,omitempty"`
}

// SyncResult resumo de um lote de sincronização com a API remota.
type SyncResult struct {
	TotalNotas int           `json:"total_notas"`
	Sucessos   int           `json:"sucessos"`
	Falhas     int           `json:"falhas"`
	Detalhes   []SyncDetalhe `json:"detalhes"`
}

// ItemNotaFiscalResponse item de nota na resposta HTTP.
type ItemNotaFiscalResponse struct {
	ID               string          `json:"id"`
	CodigoProduto    string          `json:"codigo_produto"`
	DescricaoProduto string          `json:"descricao_produto"`
	Quantidade       decimal.Decimal `json:"quantidade"`
	ValorUnitario    decimal.Decimal `json:"valor_unitario"`
	ValorTotal       decimal.Decimal `json:"valor_total"`
	NumeroLote       string          `json:"numero_lote,omitempty"`
	DataFabricacao   *time.Time      `json:"data_fabricacao,omitempty"`
	DataValidade     *time.Time      `json:"data_validade,omitempty"`
}

// NotaFiscalResponse nota fiscal na resposta HTTP (sem o XML bruto).
type NotaFiscalResponse struct {
	ID               string                   `json:"id"`
	Numero           string                   `json:"numero"`
	Serie            string                   `json:"serie"`
	ChaveAcesso      string                   `json:"chave_acesso"`
	DataEmissao      *time.Time               `json:"data_emissao,omitempty"`
	CFOP             string                   `json:"cfop"`
	TipoOperacao     string                   `json:"tipo_operacao"`
	DestinatarioCNPJ string                   `json:"destinatario_cnpj"`
	DestinatarioNome string                   `json:"destinatario_nome"`
	CreatedAt        time.Time                `json:"created_at"`
	Itens            []ItemNotaFiscalResponse `json:"itens,omitempty"`
}

// NewNotaFiscalResponse converte a entidade para a resposta HTTP.
func NewNotaFiscalResponse(nf *entity.NotaFiscal) NotaFiscalResponse {
	resp := NotaFiscalResponse{
		ID:               nf.ID,
		Numero:           nf.Numero,
		Serie:            nf.Serie,
		ChaveAcesso:      nf.ChaveAcesso,
		DataEmissao:      nf.DataEmissao,
		CFOP:             nf.CFOP,
		TipoOperacao:     nf.TipoOperacao,
		DestinatarioCNPJ: nf.DestinatarioCNPJ,
		DestinatarioNome: nf.DestinatarioNome,
		CreatedAt:        nf.CreatedAt,
	}
	for _, item := range nf.Itens {
		resp.Itens = append(resp.Itens, ItemNotaFiscalResponse{
			ID:               item.ID,
			CodigoProduto:    item.CodigoProduto,
			DescricaoProduto: item.DescricaoProduto,
			Quantidade:       item.Quantidade,
			ValorUnitario:    item.ValorUnitario,
			ValorTotal:       item.ValorTotal,
			NumeroLote:       item.NumeroLote,
			DataFabricacao:   item.DataFabricacao,
			DataValidade:     item.DataValidade,
		})
	}
	return resp
}

// ListNotasRequest filtros da listagem de notas.
type ListNotasRequest struct {
	PageRequest
	TipoOperacao string `query:"tipo_operacao"`
	ClienteCNPJ  string `query:"cliente_cnpj"`
	DataInicio   string `query:"data_inicio"` // DD/MM/YYYY
	DataFim      string `query:"data_fim"`    // DD/MM/YYYY
}

// EstatisticasResponse contagens de notas por tipo de operação.
type EstatisticasResponse struct {
	TotalNotas  int            `json:"total_notas"`
	PorOperacao map[string]int `json:"por_operacao"`
}
