// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with additional functionality for command, component
// and event handling.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/config"
	"github.com/PancyStudios/PancyLedger/pkg/errors"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		logger.Info(fmt.Sprintf(format, a...), "DiscordGo")
	}
}

// ExtendedClient wraps discordgo.Session with additional functionality
type ExtendedClient struct {
	Session        *discordgo.Session
	Config         *config.Config
	Commands       *CommandCollection
	Components     *ComponentCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	StartTime      time.Time
	mu             sync.RWMutex
	isReady        bool
}

// NewClient creates a new ExtendedClient
func NewClient(cfg *config.Config) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	c := &ExtendedClient{
		Session:    session,
		Config:     cfg,
		Commands:   NewCommandCollection(),
		Components: NewComponentCollection(),
	}

	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)

	return c, nil
}

// Start opens the gateway connection. Commands are synced on Ready.
func (c *ExtendedClient) Start() error {
	c.EventHandler.OnReady(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot conectado como: "+r.User.Username, "Client")
		c.CommandHandler.RegisterCommands()
	})
	c.EventHandler.OnInteractionCreate(c.handleInteraction)

	c.StartTime = time.Now()
	return c.Session.Open()
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// ResolveCommandName joins subcommand groups and subcommands with dots,
// "mod.warn" for /mod warn
func ResolveCommandName(data discordgo.ApplicationCommandInteractionData) string {
	name := data.Name
	if len(data.Options) == 0 {
		return name
	}

	opt := data.Options[0]
	switch opt.Type {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		if len(opt.Options) > 0 {
			return name + "." + opt.Name + "." + opt.Options[0].Name
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		return name + "." + opt.Name
	}
	return name
}

// handleInteraction routes incoming Discord interactions
func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := &CommandContext{
		Context:     context.Background(),
		Session:     s,
		Interaction: i,
		Client:      c,
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		cmd, ok := c.Commands.Get(ResolveCommandName(i.ApplicationCommandData()))
		if !ok || cmd.AutoComplete == nil {
			return
		}
		// Suggestions of moderator commands are data too
		if cmd.ModeratorOnly && !HasModeratorRole(ctx.Member(), c.Config) {
			if err := ctx.RespondChoices(nil); err != nil {
				logger.Warn("Error respondiendo autocompletado: "+err.Error(), "Client")
			}
			return
		}
		go func() {
			defer errors.RecoverMiddleware()()
			cmd.AutoComplete(ctx)
		}()

	case discordgo.InteractionApplicationCommand:
		name := ResolveCommandName(i.ApplicationCommandData())
		cmd, ok := c.Commands.Get(name)
		if !ok {
			logger.Warn("Comando no encontrado: "+name, "Client")
			return
		}
		if cmd.ModeratorOnly && !c.ModeratorMiddleware(ctx) {
			return
		}
		go c.run(name, cmd.Run, ctx)

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		comp, ok := c.Components.Get(ComponentPrefix(customID))
		if !ok {
			logger.Warn("Componente no encontrado: "+customID, "Client")
			return
		}
		if comp.ModeratorOnly && !c.ModeratorMiddleware(ctx) {
			return
		}
		go c.run(customID, comp.Run, ctx)
	}
}

func (c *ExtendedClient) run(name string, fn CommandRunFunc, ctx *CommandContext) {
	defer errors.RecoverMiddleware()()

	if err := fn(ctx); err != nil {
		logger.Error("Error ejecutando "+name+": "+err.Error(), "Client")
	}
}

// ParseSnowflake converts a Discord id to the int64 used by the ledgers
func ParseSnowflake(id string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return v, nil
}

// FormatSnowflake converts a ledger id back to a Discord id
func FormatSnowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}
