// Package main is the entry point for the PancyLedger bot.
// It wires configuration, stores, ledgers and the outer surfaces together.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyLedger/internal/commands"
	"github.com/PancyStudios/PancyLedger/internal/commands/utils"
	"github.com/PancyStudios/PancyLedger/pkg/config"
	"github.com/PancyStudios/PancyLedger/pkg/database"
	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/PancyStudios/PancyLedger/pkg/errors"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/mqtt"
	"github.com/PancyStudios/PancyLedger/pkg/violations"
	"github.com/PancyStudios/PancyLedger/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Dir:          cfg.LogsDir,
		ErrorWebhook: cfg.ErrorWebhook,
		LogsWebhook:  cfg.LogsWebhook,
	})
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando PancyLedger %s...", config.Version), "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})

	ctx := context.Background()

	mode, err := database.ParseLoadMode(cfg.LoadMode)
	if err != nil {
		logger.Critical(err.Error(), "Main")
		os.Exit(1)
	}

	status := &utils.Module{Backend: cfg.StoreBackend, LoadMode: mode.String()}

	var warningsBackend, licensesBackend database.Backend
	switch cfg.StoreBackend {
	case "file":
		warningsBackend = database.NewFileBackend(cfg.WarningsDBPath)
		licensesBackend = database.NewFileBackend(cfg.LicensesDBPath)
	case "mongo":
		db := database.NewDatabase()
		if err := db.Connect(ctx, cfg.MongoDBURL, cfg.DBName); err != nil {
			logger.Critical(fmt.Sprintf("Error conectando a MongoDB: %v", err), "Main")
			os.Exit(1)
		}
		defer db.Disconnect()
		status.Database = db
		warningsBackend = database.NewMongoBackend(db, "warnings")
		licensesBackend = database.NewMongoBackend(db, "licenses")
	default:
		logger.Critical(fmt.Sprintf("STORE_BACKEND desconocido: %q", cfg.StoreBackend), "Main")
		os.Exit(1)
	}

	warningsStore := database.NewWarningsStore(warningsBackend, mode)
	licensesStore := database.NewLicensesStore(licensesBackend, mode)
	for _, ensure := range []func(context.Context) error{warningsStore.Ensure, licensesStore.Ensure} {
		if err := ensure(ctx); err != nil {
			logger.Critical(fmt.Sprintf("Error inicializando los documentos: %v", err), "Main")
			os.Exit(1)
		}
	}

	opts := database.Options{Catalog: violations.Default()}
	if cfg.MQTTEnabled() {
		clientID := "pancyledger"
		if !cfg.IsProd() {
			clientID = "pancyledger_canary"
		}
		publisher := mqtt.NewMqttCommunicator(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, clientID, cfg.MQTTTopic)
		defer publisher.Destroy()
		opts.Publisher = publisher
		status.Events = publisher
	}

	ledgers := commands.Ledgers{
		Warnings: database.NewWarningLedger(warningsStore, opts),
		Bans:     database.NewBanRequestLedger(warningsStore, opts),
		Licenses: database.NewLicenseLedger(licensesStore, opts),
		Catalog:  opts.Catalog,
	}

	webServer, err := web.NewServer(web.Options{
		WebhookURL:   cfg.LogsWebhook,
		AllowedHosts: cfg.WebAllowedHosts,
		APIToken:     cfg.WebAPIToken,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creando el servidor web: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.Ledgers{
		Warnings: ledgers.Warnings,
		Licenses: ledgers.Licenses,
		Catalog:  ledgers.Catalog,
	})
	webServer.StartAsync(cfg.Port)

	discordClient, err = discord.NewClient(cfg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creando el cliente de Discord: %v", err), "Main")
		os.Exit(1)
	}

	commands.RegisterAll(discordClient, ledgers, status)

	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error iniciando el cliente de Discord: %v", err), "Main")
		os.Exit(1)
	}

	logger.Success("PancyLedger iniciado correctamente!", "Main")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyLedger...", "Main")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn(fmt.Sprintf("Error deteniendo el servidor web: %v", err), "Main")
	}
	if err := discordClient.Stop(); err != nil {
		logger.Warn(fmt.Sprintf("Error deteniendo el cliente de Discord: %v", err), "Main")
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
