// Package discord talks to Discord: slash commands for managing notifiers,
// and posting announcements to guild channels.
package discord

import (
	"fmt"
	"log/slog"

	"freegames-notifier/internal/logging"

	"github.com/bwmarrin/discordgo"
)

// NewSession creates a bot session. It is not connected to the gateway.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

// Bot is the gateway connection serving the slash commands.
type Bot struct {
	session       *discordgo.Session
	commands      *Commands
	applicationID string
	logger        *slog.Logger
}

func NewBot(session *discordgo.Session, commands *Commands, applicationID string) *Bot {
	b := &Bot{
		session:       session,
		commands:      commands,
		applicationID: applicationID,
		logger:        logging.Component("bot"),
	}
	b.registerHandlers()
	return b
}

// GuildOwner looks the guild up in the gateway state.
func GuildOwner(session *discordgo.Session) func(guildID string) string {
	return func(guildID string) string {
		g, err := session.State.Guild(guildID)
		if err != nil {
			return ""
		}
		return g.OwnerID
	}
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.commands.Handle(s, i)
	})
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Bot is ready", "user", r.User.Username, "guilds", len(r.Guilds))
	})
}

// Start connects to the gateway and registers the slash commands globally.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	appID := b.applicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, "", b.commands.Definitions())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.logger.Info("Slash commands registered", "count", len(registered))
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}
