package mod

import (
	"github.com/PancyStudios/PancyLedger/pkg/discord"
)

// RegisterModCommands registers the /mod group and its components
func (m *Module) RegisterModCommands(client *discord.ExtendedClient) {
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Moderation commands",
		m.createWarnCommand(),
		m.createPointsCommand(),
		m.createWarningsCommand(),
		m.createLookupCommand(),
		m.createRemoveCommand(),
		m.createClearCommand(),
	)
	client.CommandHandler.AddGlobalCommand(modGroup)

	client.CommandHandler.RegisterComponent(m.createWarnSelectComponent())
	client.CommandHandler.RegisterComponent(m.createBanCompleteComponent())
	client.CommandHandler.RegisterComponent(m.createWarningsPageComponent())
}
