package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"freegames-notifier/internal/logging"
	"freegames-notifier/internal/models"

	"github.com/bwmarrin/discordgo"
	"github.com/patrickmn/go-cache"
)

var ErrNotTextChannel = errors.New("channel is not a guild text channel")

// ChannelSession is the part of *discordgo.Session the notifier uses.
type ChannelSession interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts announcements to subscription channels. Channel lookups are
// cached so a cycle with many groups does not refetch the same channel.
type Notifier struct {
	session  ChannelSession
	channels *cache.Cache
	now      func() time.Time
	logger   *slog.Logger
}

func NewNotifier(session ChannelSession) *Notifier {
	return &Notifier{
		session:  session,
		channels: cache.New(10*time.Minute, 30*time.Minute),
		now:      time.Now,
		logger:   logging.Component("notifier"),
	}
}

func (n *Notifier) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if c, ok := n.channels.Get(channelID); ok {
		return c.(*discordgo.Channel), nil
	}
	c, err := n.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	n.channels.SetDefault(channelID, c)
	return c, nil
}

func (n *Notifier) Notify(ctx context.Context, sub models.Subscription, listing models.Listing) error {
	c, err := n.channel(ctx, sub.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to fetch channel %s: %w", sub.ChannelID, err)
	}
	if c.Type != discordgo.ChannelTypeGuildText {
		return fmt.Errorf("channel %s: %w", sub.ChannelID, ErrNotTextChannel)
	}

	if _, err := n.session.ChannelMessageSendComplex(sub.ChannelID, BuildMessage(sub, listing, n.now()), discordgo.WithContext(ctx)); err != nil {
		// The channel may have been deleted or had its permissions changed.
		n.channels.Delete(sub.ChannelID)
		return fmt.Errorf("failed to send to channel %s: %w", sub.ChannelID, err)
	}

	n.logger.Info("Sent notification", "guild_id", sub.GuildID, "channel_id", sub.ChannelID, "game_id", listing.ExternalID())
	return nil
}
