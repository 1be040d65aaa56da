package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotaFiscal representa o cabeçalho de uma NFe processada.
// A chave de acesso (44 dígitos) é a identidade natural do documento: uma nota
// é criada exatamente uma vez por chave e nunca é alterada depois, exceto o
// carimbo de updated_at.
type NotaFiscal struct {
	ID               string
	Numero           string
	Serie            string
	ChaveAcesso      string // 44 dígitos, única
	DataEmissao      *time.Time
	CFOP             string
	TipoOperacao     string // saida, retorno, simbolico, faturamento, outros
	DestinatarioCNPJ string // CNPJ ou CPF, só dígitos
	DestinatarioNome string
	XMLContent       string // corpo bruto, guardado para auditoria/replay
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Itens compõem o agregado: persistidos e removidos junto com a nota.
	Itens []ItemNotaFiscal
}

// ItemNotaFiscal representa uma linha de item de uma NotaFiscal.
// Quantidades e valores são decimais exatos; nunca float.
type ItemNotaFiscal struct {
	ID               string
	NotaFiscalID     string
	CodigoProduto    string
	DescricaoProduto string
	Quantidade       decimal.Decimal
	ValorUnitario    decimal.Decimal
	ValorTotal       decimal.Decimal
	NumeroLote       string // vazio = item sem rastreabilidade, fora da conciliação
	DataFabricacao   *time.Time
	DataValidade     *time.Time
	CreatedAt        time.Time
}

// TemLote informa se o item participa da conciliação de saldos.
func (i *ItemNotaFiscal) TemLote() bool {
	return i.NumeroLote != ""
}
