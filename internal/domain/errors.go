package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Erros de domínio (sem dependências de infraestrutura).
var (
	ErrNotFound           = errors.New("recurso não encontrado")
	ErrUserNotFound       = errors.New("usuário não encontrado")
	ErrEmailAlreadyExists = errors.New("o email já está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("não autorizado")
	ErrNotaDuplicada      = errors.New("nota fiscal já processada")
	ErrXMLInvalido        = errors.New("XML de nota fiscal inválido")
	ErrSaldoNaoEncontrado = errors.New("nenhum saldo disponível para a operação")
	ErrSaldoInsuficiente  = errors.New("saldo insuficiente")
)

// SaldoInsuficienteError detalha a validação prévia de retorno/utilização/faturamento:
// quanto havia disponível e quanto a operação solicitou.
type SaldoInsuficienteError struct {
	CodigoProduto string
	NumeroLote    string
	Disponivel    decimal.Decimal
	Solicitado    decimal.Decimal
}

func (e *SaldoInsuficienteError) Error() string {
	return fmt.Sprintf("quantidade insuficiente para o produto %s lote %s: disponível %s, solicitado %s",
		e.CodigoProduto, e.NumeroLote, e.Disponivel.String(), e.Solicitado.String())
}

// Unwrap permite errors.Is(err, ErrSaldoInsuficiente).
func (e *SaldoInsuficienteError) Unwrap() error { return ErrSaldoInsuficiente }

// XMLError descreve uma falha estrutural no XML, reportada literalmente ao chamador.
type XMLError struct {
	Motivo string
}

func (e *XMLError) Error() string { return e.Motivo }

// Unwrap permite errors.Is(err, ErrXMLInvalido).
func (e *XMLError) Unwrap() error { return ErrXMLInvalido }
