// Package commands wires the command groups to the Discord client.
// Each group lives in its own subdirectory (mod, license, utils).
package commands

import (
	"github.com/PancyStudios/PancyLedger/internal/commands/license"
	"github.com/PancyStudios/PancyLedger/internal/commands/mod"
	"github.com/PancyStudios/PancyLedger/internal/commands/utils"
	"github.com/PancyStudios/PancyLedger/pkg/database"
	"github.com/PancyStudios/PancyLedger/pkg/discord"
	"github.com/PancyStudios/PancyLedger/pkg/violations"
)

// Ledgers groups the ledgers the commands operate on
type Ledgers struct {
	Warnings *database.WarningLedger
	Bans     *database.BanRequestLedger
	Licenses *database.LicenseLedger
	Catalog  *violations.Catalog
}

// RegisterAll registers every command group with the Discord client
func RegisterAll(client *discord.ExtendedClient, ledgers Ledgers, status *utils.Module) {
	cfg := client.Config

	modModule := &mod.Module{
		Warnings:              ledgers.Warnings,
		Bans:                  ledgers.Bans,
		Licenses:              ledgers.Licenses,
		Catalog:               ledgers.Catalog,
		WarningLogChannelID:   cfg.WarningLogChannelID,
		BanRequestChannelID:   cfg.BanRequestChannelID,
		BanCompletedChannelID: cfg.BanCompletedChannelID,
	}
	modModule.RegisterModCommands(client)

	licenseModule := &license.Module{
		Licenses:            ledgers.Licenses,
		WarningLogChannelID: cfg.WarningLogChannelID,
	}
	licenseModule.RegisterLicenseCommands(client)

	if status != nil {
		status.RegisterUtilsCommands(client)
	}
}
