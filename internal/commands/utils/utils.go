// Package utils implements the /utils command group: latency, ledger
// status, runtime stats and help.
package utils

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/discord"
)

// Pinger is implemented by the Mongo database
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Connector is implemented by the MQTT publisher
type Connector interface {
	IsConnected() bool
}

// Module describes the running ledger for /utils status. Database and
// Events are nil when the mongo backend or MQTT are not configured.
type Module struct {
	Backend  string
	LoadMode string
	Database Pinger
	Events   Connector
}

// RegisterUtilsCommands registers the /utils group
func (m *Module) RegisterUtilsCommands(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Utility commands",
		createPingCommand(),
		m.createStatusCommand(),
		createStatsCommand(),
		createHelpCommand(),
	)
	client.CommandHandler.AddGlobalCommand(group)
}
