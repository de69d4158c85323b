package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/models"
	"freegames-notifier/internal/subscription"

	"github.com/bwmarrin/discordgo"
)

const (
	commandNotify = "game-notify"
	commandList   = "game-notify-list"
	commandRemove = "game-notify-remove"

	commandTimeout = 10 * time.Second
)

// managePermissions are the permissions that allow configuring notifiers.
const managePermissions = discordgo.PermissionAdministrator | discordgo.PermissionManageServer | discordgo.PermissionModerateMembers

// Responder is the part of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Commands handles the notifier slash commands.
type Commands struct {
	subscriptions *subscription.Service
	// guildOwner returns the owner of a guild, or "" when unknown.
	guildOwner func(guildID string) string
	logger     *slog.Logger
}

func NewCommands(subs *subscription.Service, guildOwner func(guildID string) string) *Commands {
	if guildOwner == nil {
		guildOwner = func(string) string { return "" }
	}
	return &Commands{
		subscriptions: subs,
		guildOwner:    guildOwner,
		logger:        logging.Component("commands"),
	}
}

func choices[T ~string](values []T, label func(T) string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, v := range values {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: label(v), Value: string(v)})
	}
	return out
}

// Definitions returns the slash commands to register.
func (c *Commands) Definitions() []*discordgo.ApplicationCommand {
	perms := int64(managePermissions)
	dm := false
	return []*discordgo.ApplicationCommand{
		{
			Name:                     commandNotify,
			Description:              "Configure free game notifications for this server",
			DefaultMemberPermissions: &perms,
			DMPermission:             &dm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "platform",
					Description: "Platform to monitor",
					Required:    true,
					Choices:     choices(models.Platforms, models.Platform.Label),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Type of content to notify about",
					Required:    true,
					Choices:     choices(models.ContentTypes, models.ContentType.Label),
				},
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Channel to send notifications to",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "Role to ping for notifications",
					Required:    true,
				},
			},
		},
		{
			Name:         commandList,
			Description:  "List all configured game notifiers for this server",
			DMPermission: &dm,
		},
		{
			Name:                     commandRemove,
			Description:              "Remove a game notifier configuration",
			DefaultMemberPermissions: &perms,
			DMPermission:             &dm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "id",
					Description: "ID of the notifier to remove (from /game-notify-list)",
					Required:    true,
				},
			},
		},
	}
}

// Handle answers one interaction. Every reply is ephemeral.
func (c *Commands) Handle(r Responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	c.logger.Debug("Received command", "command", data.Name, "guild_id", i.GuildID)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var reply string
	switch data.Name {
	case commandNotify:
		reply = c.handleNotify(ctx, i, data)
	case commandList:
		reply = c.handleList(ctx, i)
	case commandRemove:
		reply = c.handleRemove(ctx, i, data)
	default:
		c.logger.Warn("Unknown command", "command", data.Name)
		return
	}

	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
			// Replies echo role mentions; never ping from them.
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		c.logger.Error("Failed to respond to interaction", "command", data.Name, "error", err)
	}
}

// canManage reports whether the invoking member may change notifiers.
func (c *Commands) canManage(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.User != nil && i.Member.User.ID != "" && c.guildOwner(i.GuildID) == i.Member.User.ID {
		return true
	}
	return i.Member.Permissions&managePermissions != 0
}

func option(data discordgo.ApplicationCommandInteractionData, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range data.Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

const (
	replyGuildOnly    = "This command can only be used in a server."
	replyNoPermission = "❌ You don't have permission to use this command. Only server owner, administrators, and moderators can manage game notifications."
	replyMissingInput = "Missing required options."
)

func (c *Commands) handleNotify(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) string {
	if i.GuildID == "" {
		return replyGuildOnly
	}
	if !c.canManage(i) {
		return replyNoPermission
	}

	platform, contentType := option(data, "platform"), option(data, "type")
	channel, role := option(data, "channel"), option(data, "role")
	if platform == nil || contentType == nil || channel == nil || role == nil {
		return replyMissingInput
	}

	sub, err := c.subscriptions.Create(ctx, subscription.CreateRequest{
		GuildID:     i.GuildID,
		Platform:    platform.StringValue(),
		ContentType: contentType.StringValue(),
		ChannelID:   channel.ChannelValue(nil).ID,
		RoleID:      role.RoleValue(nil, "").ID,
	})
	if errors.Is(err, subscription.ErrInvalid) {
		return fmt.Sprintf("Invalid notifier configuration: %s", err)
	}
	if err != nil {
		c.logger.Error("Error in game-notify command", "guild_id", i.GuildID, "error", err)
		return "An error occurred while configuring the notifier."
	}

	return fmt.Sprintf("✅ Game notifier configured!\n**Platform:** %s\n**Type:** %s\n**Channel:** <#%s>\n**Role:** <@&%s>",
		sub.Platform.Label(), sub.ContentType.Label(), sub.ChannelID, sub.RoleID)
}

// FormatList renders a guild's notifiers.
func FormatList(subs []models.Subscription) string {
	if len(subs) == 0 {
		return "No game notifiers configured for this server."
	}
	var sb strings.Builder
	sb.WriteString("**Configured Game Notifiers:**\n\n")
	for _, s := range subs {
		fmt.Fprintf(&sb, "**ID:** %d\n", s.GuildLocalID)
		fmt.Fprintf(&sb, "**Platform:** %s\n", s.Platform.Label())
		fmt.Fprintf(&sb, "**Type:** %s\n", s.ContentType.Label())
		fmt.Fprintf(&sb, "**Channel:** <#%s>\n", s.ChannelID)
		fmt.Fprintf(&sb, "**Role:** <@&%s>\n", s.RoleID)
		sb.WriteString("─────────────────\n")
	}
	return sb.String()
}

func (c *Commands) handleList(ctx context.Context, i *discordgo.InteractionCreate) string {
	if i.GuildID == "" {
		return replyGuildOnly
	}
	subs, err := c.subscriptions.List(ctx, i.GuildID)
	if err != nil {
		c.logger.Error("Error in game-notify-list command", "guild_id", i.GuildID, "error", err)
		return "An error occurred while fetching notifiers."
	}
	return FormatList(subs)
}

func (c *Commands) handleRemove(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) string {
	if i.GuildID == "" {
		return replyGuildOnly
	}
	if !c.canManage(i) {
		return replyNoPermission
	}
	id := option(data, "id")
	if id == nil {
		return replyMissingInput
	}
	localID := int(id.IntValue())

	_, err := c.subscriptions.Remove(ctx, i.GuildID, localID)
	if errors.Is(err, subscription.ErrNotFound) {
		return "Notifier not found or doesn't belong to this server."
	}
	if err != nil {
		c.logger.Error("Error in game-notify-remove command", "guild_id", i.GuildID, "error", err)
		return "An error occurred while removing the notifier."
	}
	return fmt.Sprintf("✅ Notifier #%d has been removed.", localID)
}
