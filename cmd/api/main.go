package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/opmetrack/opme-control/internal/application/auth"
	"github.com/opmetrack/opme-control/internal/application/consignacao"
	infraexcel "github.com/opmetrack/opme-control/internal/infrastructure/excel"
	"github.com/opmetrack/opme-control/internal/infrastructure/maino"
	infranfe "github.com/opmetrack/opme-control/internal/infrastructure/nfe"
	infrapdf "github.com/opmetrack/opme-control/internal/infrastructure/pdf"
	"github.com/opmetrack/opme-control/internal/infrastructure/postgres"
	httpRouter "github.com/opmetrack/opme-control/internal/interfaces/http"
	"github.com/opmetrack/opme-control/pkg/config"
	"github.com/opmetrack/opme-control/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	nfRepo := postgres.NewNotaFiscalRepository(pool)
	saldoRepo := postgres.NewSaldoMaterialRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	parser := infranfe.NewParser()
	ledger := consignacao.NewLedger(log)
	processarUC := consignacao.NewProcessarNotaUseCase(nfRepo, parser, ledger, txRunner, log)

	mainoClient := maino.NewClient(cfg.Maino, log)
	syncUC := consignacao.NewSyncUseCase(mainoClient, processarUC, log)

	consultaUC := consignacao.NewConsultaUseCase(nfRepo, saldoRepo)
	exportUC := consignacao.NewExportUseCase(
		saldoRepo,
		infraexcel.NewExcelizeSaldoGenerator(),
		infrapdf.NewMarotoSaldoGenerator(),
	)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    10 * 1024 * 1024, // XMLs de NFe podem ser grandes
	})
	app.Use(recover.New())

	// Swagger UI em local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "OPME Control API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProcessarNota: processarUC,
		Sync:          syncUC,
		Consulta:      consultaUC,
		Export:        exportUC,
		AuthUC:        authUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, fechando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("desligamento do servidor")
	}

	log.Info().Msg("aplicação parada")
}
