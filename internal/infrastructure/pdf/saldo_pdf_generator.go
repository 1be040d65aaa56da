// Package pdf implementa o relatório de saldos de consignação em PDF.
//
// Layout da página A4 (paisagem):
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  CABEÇALHO: título + data/hora de geração                     │
//	│  ──────────────────────────────────────────────────────────  │
//	│  TABELA: Cliente | Produto | Lote | Env | Ret | Util | Fat |  │
//	│          Disponível | Situação                                │
//	│  ──────────────────────────────────────────────────────────  │
//	│  RODAPÉ: total de registros                                   │
//	└──────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/pkg/fiscal"
)

var _ consignacao.SaldoPDFGenerator = (*MarotoSaldoGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 60}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// MarotoSaldoGenerator implementa consignacao.SaldoPDFGenerator usando Maroto v2.
type MarotoSaldoGenerator struct{}

// NewMarotoSaldoGenerator constrói o gerador.
func NewMarotoSaldoGenerator() *MarotoSaldoGenerator { return &MarotoSaldoGenerator{} }

// Gerar gera o relatório de saldos e devolve os bytes do PDF.
func (g *MarotoSaldoGenerator) Gerar(saldos []*entity.SaldoMaterial, geradoEm time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Saldos de Materiais em Consignação", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(geradoEm))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, s := range saldos {
		m.AddRows(saldoRow(s))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(len(saldos)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: gerar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow título e carimbo de geração.
func headerRow(geradoEm time.Time) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New("SALDOS DE MATERIAIS EM CONSIGNAÇÃO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Materiais OPME enviados, retornados, utilizados e faturados por cliente/lote", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Gerado em: "+geradoEm.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow cabeçalho da tabela de saldos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cliente", 3, align.Left),
		h("Produto", 3, align.Left),
		h("Lote", 1, align.Center),
		h("Env.", 1, align.Right),
		h("Ret.", 1, align.Right),
		h("Util.", 1, align.Right),
		h("Disponível", 1, align.Right),
		h("Situação", 1, align.Center),
	)
}

// saldoRow uma linha por registro de saldo.
func saldoRow(s *entity.SaldoMaterial) core.Row {
	disponivel := s.SaldoDisponivel()
	situacao, cor := situacaoSaldo(s)

	cliente := s.ClienteNome
	if cliente == "" {
		cliente = fiscal.Format(s.ClienteCNPJ)
	}
	produto := s.CodigoProduto
	if s.DescricaoProduto != "" {
		produto = s.CodigoProduto + " - " + s.DescricaoProduto
	}

	cell := func(v string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(v, props.Text{
			Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		cell(cliente, 3, align.Left),
		cell(produto, 3, align.Left),
		cell(s.NumeroLote, 1, align.Center),
		cell(s.QuantidadeEnviada.String(), 1, align.Right),
		cell(s.QuantidadeRetornada.String(), 1, align.Right),
		cell(s.QuantidadeUtilizada.String(), 1, align.Right),
		col.New(1).Add(text.New(disponivel.String(), props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: align.Right, Top: 1, Right: 1, Color: cor,
		})),
		col.New(1).Add(text.New(situacao, props.Text{
			Size: 7, Align: align.Center, Top: 1, Color: cor,
		})),
	)
}

// situacaoSaldo rótulo e cor conforme o disponível.
func situacaoSaldo(s *entity.SaldoMaterial) (string, *props.Color) {
	disponivel := s.SaldoDisponivel()
	switch {
	case disponivel.IsNegative():
		return "Negativo", colorRed
	case disponivel.IsZero():
		return "Zerado", colorGray
	default:
		return "Disponível", colorPrimary
	}
}

// footerRow contagem total.
func footerRow(total int) core.Row {
	return row.New(8).Add(
		col.New(12).Add(text.New(fmt.Sprintf("%d registro(s) de saldo", total), props.Text{
			Size: 8, Color: colorGray, Top: 2,
		})),
	)
}
