package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opmetrack/opme-control/internal/application/auth"
	"github.com/opmetrack/opme-control/internal/application/consignacao"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	ProcessarNota *consignacao.ProcessarNotaUseCase
	Sync          *consignacao.SyncUseCase
	Consulta      *consignacao.ConsultaUseCase
	Export        *consignacao.ExportUseCase
	AuthUC        *auth.AuthUseCase
	JWTSecret     string
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Healthcheck (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rotas protegidas (exigem Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Notas fiscais (protegido)
	notas := protected.Group("/notas-fiscais")
	notaHandler := NewNotaFiscalHandler(deps.ProcessarNota, deps.Sync, deps.Consulta)
	notas.Post("/upload-xml", notaHandler.UploadXML)
	notas.Post("/sync-maino", notaHandler.SyncMaino)
	notas.Get("/estatisticas", notaHandler.Estatisticas)
	notas.Get("/", notaHandler.List)
	notas.Get("/:id", notaHandler.GetByID)
	notas.Get("/:id/xml", notaHandler.GetXML)

	// Saldos (protegido)
	saldos := protected.Group("/saldos")
	saldoHandler := NewSaldoHandler(deps.Consulta)
	saldos.Get("/resumo", saldoHandler.Resumo)
	saldos.Get("/buscar-clientes", saldoHandler.BuscarClientes)
	saldos.Get("/buscar-produtos", saldoHandler.BuscarProdutos)
	saldos.Get("/cliente/:cnpj", saldoHandler.PorCliente)
	saldos.Get("/produto/:codigo", saldoHandler.PorProduto)
	saldos.Get("/", saldoHandler.Consultar)

	// Exportação (protegido)
	export := protected.Group("/export")
	exportHandler := NewExportHandler(deps.Export)
	export.Get("/saldos/excel", exportHandler.Excel)
	export.Get("/saldos/pdf", exportHandler.PDF)
}
