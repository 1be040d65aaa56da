package consignacao

import (
	"time"

	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/internal/domain/entity"
	"github.com/opmetrack/opme-control/internal/domain/repository"
)

// exportLimit teto de linhas numa exportação; acima disso o operador deve filtrar.
const exportLimit = 10000

// SaldoExcelGenerator gera a planilha de saldos.
type SaldoExcelGenerator interface {
	Gerar(saldos []*entity.SaldoMaterial, geradoEm time.Time) ([]byte, error)
}

// SaldoPDFGenerator gera o relatório PDF de saldos.
type SaldoPDFGenerator interface {
	Gerar(saldos []*entity.SaldoMaterial, geradoEm time.Time) ([]byte, error)
}

// ExportUseCase exportação do livro de saldos para Excel e PDF.
type ExportUseCase struct {
	saldoRepo repository.SaldoMaterialRepository
	excel     SaldoExcelGenerator
	pdf       SaldoPDFGenerator
}

// NewExportUseCase constrói o caso de uso de exportação.
func NewExportUseCase(saldoRepo repository.SaldoMaterialRepository, excel SaldoExcelGenerator, pdf SaldoPDFGenerator) *ExportUseCase {
	return &ExportUseCase{saldoRepo: saldoRepo, excel: excel, pdf: pdf}
}

// ExcelSaldos exporta os saldos filtrados como planilha XLSX.
func (uc *ExportUseCase) ExcelSaldos(f repository.SaldoFilter) ([]byte, error) {
	saldos, err := uc.listar(f)
	if err != nil {
		return nil, err
	}
	return uc.excel.Gerar(saldos, time.Now())
}

// PDFSaldos exporta os saldos filtrados como relatório PDF.
func (uc *ExportUseCase) PDFSaldos(f repository.SaldoFilter) ([]byte, error) {
	saldos, err := uc.listar(f)
	if err != nil {
		return nil, err
	}
	return uc.pdf.Gerar(saldos, time.Now())
}

func (uc *ExportUseCase) listar(f repository.SaldoFilter) ([]*entity.SaldoMaterial, error) {
	f.Limit = exportLimit
	f.Offset = 0
	saldos, _, err := uc.saldoRepo.List(f)
	if err != nil {
		return nil, err
	}
	if len(saldos) == 0 {
		return nil, domain.ErrNotFound
	}
	return saldos, nil
}
