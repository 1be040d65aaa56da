package repository

import (
	"time"

	"github.com/opmetrack/opme-control/internal/domain/entity"
)

// NotaFiscalFilter filtros de listagem de notas fiscais.
type NotaFiscalFilter struct {
	TipoOperacao string
	ClienteCNPJ  string // só dígitos
	DataInicio   *time.Time
	DataFim      *time.Time
	Limit        int
	Offset       int
}

// OperacaoCount total de notas por tipo de operação (estatísticas).
type OperacaoCount struct {
	TipoOperacao string
	Total        int
}

// NotaFiscalRepository define a porta de persistência do agregado NotaFiscal.
// A nota é imutável depois de criada; Delete remove itens e cabeçalho
// explicitamente na mesma transação (sem cascade implícito).
type NotaFiscalRepository interface {
	Create(nf *entity.NotaFiscal) error
	CreateItem(item *entity.ItemNotaFiscal) error
	GetByID(id string) (*entity.NotaFiscal, error)
	GetByChaveAcesso(chave string) (*entity.NotaFiscal, error)
	ExistsByChaveAcesso(chave string) (bool, error)
	GetItensByNotaID(notaID string) ([]*entity.ItemNotaFiscal, error)
	List(f NotaFiscalFilter) ([]*entity.NotaFiscal, int, error)
	Delete(id string) error
	Count() (int, error)
	CountByTipoOperacao() ([]OperacaoCount, error)
}
