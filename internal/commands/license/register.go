package license

import "github.com/PancyStudios/PancyLedger/pkg/discord"

// RegisterLicenseCommands registers the /license group
func (m *Module) RegisterLicenseCommands(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"license",
		"License management commands",
		m.createAddCommand(),
		m.createRemoveCommand(),
		m.createCheckCommand(),
		m.createLookupCommand(),
		m.createHistoryCommand(),
	)
	client.CommandHandler.AddGlobalCommand(group)
}
