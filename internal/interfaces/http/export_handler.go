package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/application/dto"
	"github.com/opmetrack/opme-control/internal/domain"
	"github.com/opmetrack/opme-control/internal/domain/repository"
	"github.com/opmetrack/opme-control/pkg/fiscal"
)

// ExportHandler exportação do livro de saldos para Excel e PDF.
type ExportHandler struct {
	export *consignacao.ExportUseCase
}

// NewExportHandler constrói o handler de exportação.
func NewExportHandler(export *consignacao.ExportUseCase) *ExportHandler {
	return &ExportHandler{export: export}
}

// Excel godoc
// @Summary      Exportar saldos como planilha XLSX
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        cliente_cnpj  query  string  false  "igualdade exata"
// @Param        produto       query  string  false  "busca parcial"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/export/saldos/excel [get]
func (h *ExportHandler) Excel(c *fiber.Ctx) error {
	data, err := h.export.ExcelSaldos(filtroFromQuery(c))
	if err != nil {
		return exportError(c, err)
	}
	filename := fmt.Sprintf("saldos_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// PDF godoc
// @Summary      Exportar saldos como relatório PDF
// @Tags         export
// @Produce      application/pdf
// @Param        cliente_cnpj  query  string  false  "igualdade exata"
// @Param        produto       query  string  false  "busca parcial"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/export/saldos/pdf [get]
func (h *ExportHandler) PDF(c *fiber.Ctx) error {
	data, err := h.export.PDFSaldos(filtroFromQuery(c))
	if err != nil {
		return exportError(c, err)
	}
	filename := fmt.Sprintf("saldos_%s.pdf", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func filtroFromQuery(c *fiber.Ctx) repository.SaldoFilter {
	return repository.SaldoFilter{
		ClienteCNPJ: fiscal.OnlyDigits(c.Query("cliente_cnpj")),
		ClienteNome: c.Query("cliente_nome"),
		Produto:     c.Query("produto"),
	}
}

func exportError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nenhum saldo para exportar com esses filtros"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
