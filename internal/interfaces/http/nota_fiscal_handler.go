package http

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/opmetrack/opme-control/internal/application/consignacao"
	"github.com/opmetrack/opme-control/internal/application/dto"
	"github.com/opmetrack/opme-control/internal/domain"
)

// NotaFiscalHandler ingestão e consulta de notas fiscais.
type NotaFiscalHandler struct {
	processar *consignacao.ProcessarNotaUseCase
	sync      *consignacao.SyncUseCase
	consulta  *consignacao.ConsultaUseCase
}

// NewNotaFiscalHandler constrói o handler de notas fiscais.
func NewNotaFiscalHandler(processar *consignacao.ProcessarNotaUseCase, sync *consignacao.SyncUseCase, consulta *consignacao.ConsultaUseCase) *NotaFiscalHandler {
	return &NotaFiscalHandler{processar: processar, sync: sync, consulta: consulta}
}

// UploadXML godoc
// @Summary      Processar XML de NFe enviado por upload
// @Tags         notas-fiscais
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "arquivo .xml da NFe"
// @Success      200   {object}  dto.ProcessamentoResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/notas-fiscais/upload-xml [post]
func (h *NotaFiscalHandler) UploadXML(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo 'file' com o XML é obrigatório"})
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xml") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "apenas arquivos .xml são aceitos"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "não foi possível abrir o arquivo"})
	}
	defer file.Close()
	xmlContent, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "não foi possível ler o arquivo"})
	}

	result, err := h.processar.ProcessarNotaFiscal(c.Context(), string(xmlContent))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	// Rejeições de negócio voltam 200 com success=false: o cliente decide o que mostrar.
	return c.JSON(result)
}

// SyncMaino godoc
// @Summary      Sincronizar notas emitidas no período a partir do Mainô
// @Tags         notas-fiscais
// @Accept       json
// @Produce      json
// @Param        body  body  object  true  "data_inicio e data_fim em DD/MM/YYYY"
// @Success      200   {object}  dto.SyncResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/notas-fiscais/sync-maino [post]
func (h *NotaFiscalHandler) SyncMaino(c *fiber.Ctx) error {
	var in struct {
		DataInicio string `json:"data_inicio"`
		DataFim    string `json:"data_fim"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	if in.DataInicio == "" || in.DataFim == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "data_inicio e data_fim são obrigatórios (DD/MM/YYYY)"})
	}

	result, err := h.sync.Sincronizar(c.Context(), in.DataInicio, in.DataFim)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SYNC_FAILED", Message: err.Error()})
	}
	return c.JSON(result)
}

// List godoc
// @Summary      Listar notas fiscais processadas
// @Tags         notas-fiscais
// @Produce      json
// @Param        tipo_operacao  query  string  false  "saida, retorno, simbolico, faturamento, outros"
// @Param        cliente_cnpj   query  string  false  "CNPJ do destinatário"
// @Param        data_inicio    query  string  false  "DD/MM/YYYY"
// @Param        data_fim       query  string  false  "DD/MM/YYYY"
// @Success      200  {array}  dto.NotaFiscalResponse
// @Router       /api/notas-fiscais [get]
func (h *NotaFiscalHandler) List(c *fiber.Ctx) error {
	var in dto.ListNotasRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parâmetros inválidos"})
	}
	notas, meta, err := h.consulta.ListarNotas(in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"notas": notas, "meta": meta})
}

// GetByID godoc
// @Summary      Obter nota fiscal com itens
// @Tags         notas-fiscais
// @Produce      json
// @Param        id  path  string  true  "ID da nota"
// @Success      200  {object}  dto.NotaFiscalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notas-fiscais/{id} [get]
func (h *NotaFiscalHandler) GetByID(c *fiber.Ctx) error {
	nota, err := h.consulta.ObterNota(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nota fiscal não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(nota)
}

// GetXML godoc
// @Summary      Baixar o XML bruto armazenado de uma nota
// @Tags         notas-fiscais
// @Produce      application/xml
// @Param        id  path  string  true  "ID da nota"
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notas-fiscais/{id}/xml [get]
func (h *NotaFiscalHandler) GetXML(c *fiber.Ctx) error {
	xmlContent, err := h.consulta.ObterXMLNota(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nota fiscal não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.SendString(xmlContent)
}

// Estatisticas godoc
// @Summary      Contagem de notas por tipo de operação
// @Tags         notas-fiscais
// @Produce      json
// @Success      200  {object}  dto.EstatisticasResponse
// @Router       /api/notas-fiscais/estatisticas [get]
func (h *NotaFiscalHandler) Estatisticas(c *fiber.Ctx) error {
	stats, err := h.consulta.Estatisticas()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(stats)
}
