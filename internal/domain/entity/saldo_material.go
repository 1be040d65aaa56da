package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaldoMaterial é a entidade do livro de consignação: uma linha por
// (cliente, produto, lote, chave da NF de saída), com unicidade garantida
// por constraint no banco.
//
// Os quatro contadores só crescem; o saldo disponível é derivado na leitura
// (enviada - retornada - utilizada) e nunca armazenado, para não divergir.
type SaldoMaterial struct {
	ID               string
	ClienteCNPJ      string
	ClienteNome      string
	CodigoProduto    string
	DescricaoProduto string
	NumeroLote       string

	// Referência da NF de saída que originou o saldo (rastreabilidade, sem cascade).
	NFSaidaNumero string
	NFSaidaSerie  string
	NFSaidaChave  string

	QuantidadeEnviada   decimal.Decimal
	QuantidadeRetornada decimal.Decimal
	QuantidadeUtilizada decimal.Decimal
	QuantidadeFaturada  decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaldoDisponivel calcula enviada - retornada - utilizada.
// Pode ser negativo quando operações concorrentes consumiram o mesmo saldo;
// isso é uma anomalia reportada, não uma falha dura.
func (s *SaldoMaterial) SaldoDisponivel() decimal.Decimal {
	return s.QuantidadeEnviada.Sub(s.QuantidadeRetornada).Sub(s.QuantidadeUtilizada)
}
