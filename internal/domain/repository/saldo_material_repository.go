package repository

import (
	"github.com/shopspring/decimal"

	"github.com/opmetrack/opme-control/internal/domain/entity"
)

// SaldoFilter filtros de consulta de saldos.
type SaldoFilter struct {
	ClienteCNPJ string // só dígitos, igualdade exata
	ClienteNome string // busca parcial, case-insensitive
	Produto     string // código ou descrição, busca parcial
	Limit       int
	Offset      int
}

// ClienteRef referência de cliente para autocomplete.
type ClienteRef struct {
	CNPJ string
	Nome string
}

// ProdutoRef referência de produto para autocomplete.
type ProdutoRef struct {
	Codigo    string
	Descricao string
}

// ResumoSaldos agregados gerais do livro de saldos.
type ResumoSaldos struct {
	TotalClientes   int
	TotalProdutos   int
	SaldosPendentes int // registros com saldo disponível > 0
}

// SaldoMaterialRepository define a porta de persistência do livro de saldos.
//
// A sequência busca-e-muta do conciliador é leitura-depois-escrita: os métodos
// *ForUpdate bloqueiam a linha (SELECT ... FOR UPDATE) para que duas notas
// concorrentes sobre a mesma chave sejam serializadas pelo banco.
type SaldoMaterialRepository interface {
	Create(s *entity.SaldoMaterial) error
	// UpdateQuantidades persiste os quatro contadores e o updated_at.
	UpdateQuantidades(s *entity.SaldoMaterial) error
	// GetForUpdate busca pela chave única completa (cliente, produto, lote, chave de saída).
	GetForUpdate(clienteCNPJ, codigoProduto, numeroLote, nfSaidaChave string) (*entity.SaldoMaterial, error)
	// FindDisponivelForUpdate busca o saldo mais antigo (FIFO por created_at) com
	// quantidade disponível > 0 para (cliente, produto, lote), ignorando a chave
	// de saída: o cliente pode devolver contra qualquer envio histórico.
	// Devolve nil quando nenhum saldo elegível existe.
	FindDisponivelForUpdate(clienteCNPJ, codigoProduto, numeroLote string) (*entity.SaldoMaterial, error)
	List(f SaldoFilter) ([]*entity.SaldoMaterial, int, error)
	ListByCliente(clienteCNPJ string) ([]*entity.SaldoMaterial, error)
	ListByProduto(codigoProduto string) ([]*entity.SaldoMaterial, error)
	// ListCriticos devolve saldos pendentes com disponível <= limite (alerta operacional).
	ListCriticos(limite decimal.Decimal, max int) ([]*entity.SaldoMaterial, error)
	SearchClientes(termo string, max int) ([]ClienteRef, error)
	SearchProdutos(termo string, max int) ([]ProdutoRef, error)
	Resumo() (*ResumoSaldos, error)
}
