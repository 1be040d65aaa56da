// Package excel implementa a exportação do livro de saldos para planilha XLSX.
package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/pkg/fiscal"
)

var _ consignacao.SaldoExcelGenerator = (*ExcelizeSaldoGenerator)(nil)

const sheetName = "Saldos"

var cabecalho = []string{
	"Cliente", "CNPJ", "Produto", "Descrição", "Lote",
	"NF Saída", "Enviada", "Retornada", "Utilizada", "Faturada",
	"Disponível", "Situação", "Atualizado em",
}

// ExcelizeSaldoGenerator implementa consignacao.SaldoExcelGenerator usando excelize.
type ExcelizeSaldoGenerator struct{}

// NewExcelizeSaldoGenerator constrói o gerador.
func NewExcelizeSaldoGenerator() *ExcelizeSaldoGenerator { return &ExcelizeSaldoGenerator{} }

// Gerar monta a planilha de saldos e devolve os bytes do arquivo XLSX.
func (g *ExcelizeSaldoGenerator) Gerar(saldos []*entity.SaldoMaterial, geradoEm time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("excel: criar aba: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"005A3C"}},
	})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo de cabeçalho: %w", err)
	}

	for i, titulo := range cabecalho {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, titulo); err != nil {
			return nil, fmt.Errorf("excel: cabeçalho: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cabecalho), 1)
	_ = f.SetCellStyle(sheetName, "A1", last, headerStyle)

	for linha, s := range saldos {
		valores := []any{
			s.ClienteNome,
			fiscal.Format(s.ClienteCNPJ),
			s.CodigoProduto,
			s.DescricaoProduto,
			s.NumeroLote,
			nfSaidaRef(s),
			s.QuantidadeEnviada.InexactFloat64(),
			s.QuantidadeRetornada.InexactFloat64(),
			s.QuantidadeUtilizada.InexactFloat64(),
			s.QuantidadeFaturada.InexactFloat64(),
			s.SaldoDisponivel().InexactFloat64(),
			situacao(s),
			s.UpdatedAt.Format("02/01/2006 15:04"),
		}
		for coluna, v := range valores {
			cell, _ := excelize.CoordinatesToCellName(coluna+1, linha+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("excel: linha %d: %w", linha+2, err)
			}
		}
	}

	// Carimbo de geração abaixo da tabela.
	rodape, _ := excelize.CoordinatesToCellName(1, len(saldos)+3)
	_ = f.SetCellValue(sheetName, rodape, "Gerado em "+geradoEm.Format("02/01/2006 15:04"))

	_ = f.SetColWidth(sheetName, "A", "A", 32)
	_ = f.SetColWidth(sheetName, "B", "B", 20)
	_ = f.SetColWidth(sheetName, "C", "D", 28)
	_ = f.SetColWidth(sheetName, "E", "F", 14)
	_ = f.SetColWidth(sheetName, "G", "M", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: escrever arquivo: %w", err)
	}
	return buf.Bytes(), nil
}

func nfSaidaRef(s *entity.SaldoMaterial) string {
	if s.NFSaidaNumero == "" {
		return ""
	}
	return s.NFSaidaNumero + "/" + s.NFSaidaSerie
}

func situacao(s *entity.SaldoMaterial) string {
	disponivel := s.SaldoDisponivel()
	switch {
	case disponivel.IsNegative():
		return "Negativo"
	case disponivel.IsZero():
		return "Zerado"
	default:
		return "Disponível"
	}
}
