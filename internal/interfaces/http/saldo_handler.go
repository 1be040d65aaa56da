package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/application/dto"
	"github.com/opmetrack/opme-control/internal/domain"
)

// SaldoHandler consultas do livro de saldos de consignação.
type SaldoHandler struct {
	consulta *consignacao.ConsultaUseCase
}

// NewSaldoHandler constrói o handler de saldos.
func NewSaldoHandler(consulta *consignacao.ConsultaUseCase) *SaldoHandler {
	return &SaldoHandler{consulta: consulta}
}

// Consultar godoc
// @Summary      Consultar saldos com filtros
// @Tags         saldos
// @Produce      json
// @Param        cliente_cnpj  query  string  false  "igualdade exata, só dígitos"
// @Param        cliente_nome  query  string  false  "busca parcial"
// @Param        produto       query  string  false  "código ou descrição, busca parcial"
// @Success      200  {object}  dto.SaldosPage
// @Router       /api/saldos [get]
func (h *SaldoHandler) Consultar(c *fiber.Ctx) error {
	var in dto.ConsultaSaldosRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parâmetros inválidos"})
	}
	page, err := h.consulta.ConsultarSaldos(in)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(page)
}

// PorCliente godoc
// @Summary      Saldos de um cliente agrupados por produto
// @Tags         saldos
// @Produce      json
// @Param        cnpj  path  string  true  "CNPJ ou CPF (com ou sem formatação)"
// @Success      200  {object}  dto.SaldosClienteResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/saldos/cliente/{cnpj} [get]
func (h *SaldoHandler) PorCliente(c *fiber.Ctx) error {
	resp, err := h.consulta.SaldosPorCliente(c.Params("cnpj"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nenhum saldo para o cliente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}

// PorProduto godoc
// @Summary      Saldos de um produto agrupados por cliente
// @Tags         saldos
// @Produce      json
// @Param        codigo  path  string  true  "código do produto"
// @Success      200  {object}  dto.SaldosProdutoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/saldos/produto/{codigo} [get]
func (h *SaldoHandler) PorProduto(c *fiber.Ctx) error {
	resp, err := h.consulta.SaldosPorProduto(c.Params("codigo"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nenhum saldo para o produto"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}

// Resumo godoc
// @Summary      Visão geral do painel (totais e saldos críticos)
// @Tags         saldos
// @Produce      json
// @Success      200  {object}  dto.ResumoResponse
// @Router       /api/saldos/resumo [get]
func (h *SaldoHandler) Resumo(c *fiber.Ctx) error {
	resumo, err := h.consulta.Resumo()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resumo)
}

// BuscarClientes godoc
// @Summary      Autocomplete de clientes por nome ou CNPJ
// @Tags         saldos
// @Produce      json
// @Param        q  query  string  true  "termo (mínimo 2 caracteres)"
// @Success      200  {array}  dto.ClienteRefResponse
// @Router       /api/saldos/buscar-clientes [get]
func (h *SaldoHandler) BuscarClientes(c *fiber.Ctx) error {
	refs, err := h.consulta.BuscarClientes(c.Query("q"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(refs)
}

// BuscarProdutos godoc
// @Summary      Autocomplete de produtos por código ou descrição
// @Tags         saldos
// @Produce      json
// @Param        q  query  string  true  "termo (mínimo 2 caracteres)"
// @Success      200  {array}  dto.ProdutoRefResponse
// @Router       /api/saldos/buscar-produtos [get]
func (h *SaldoHandler) BuscarProdutos(c *fiber.Ctx) error {
	refs, err := h.consulta.BuscarProdutos(c.Query("q"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(refs)
}
