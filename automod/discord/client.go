package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oxce5/Discord-bot/automod/cachestore"
	"github.com/oxce5/Discord-bot/automod/engine"

	"github.com/bwmarrin/discordgo"
)

const channelCacheName = "guild-channels"

// engine.Client implementation on top of a discordgo session.
//
// Channel listings come from the gateway state cache when possible. The REST fallback is cached in Cache (if set) so a burst of raid alerts for one guild doesn't refetch the channel list every time.
type Client struct {
	Session *discordgo.Session
	Cache   cachestore.CacheStore
	Logger  *slog.Logger

	lk      sync.Mutex
	pending map[*time.Timer]func()
}

var _ engine.Client = (*Client)(nil)

func NewClient(sess *discordgo.Session, cache cachestore.CacheStore, logger *slog.Logger) *Client {
	return &Client{
		Session: sess,
		Cache:   cache,
		Logger:  logger.With("component", "discord-client"),
		pending: make(map[*time.Timer]func()),
	}
}

func (c *Client) Kick(ctx context.Context, guildID, memberID, reason string) error {
	err := c.Session.GuildMemberDeleteWithReason(guildID, memberID, reason, discordgo.WithContext(ctx))
	return TranslateError("kicking member", err)
}

func (c *Client) Timeout(ctx context.Context, guildID, memberID string, until time.Time, reason string) error {
	err := c.Session.GuildMemberTimeout(guildID, memberID, &until, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return TranslateError("timing out member", err)
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := c.Session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	return TranslateError("deleting message", err)
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string, opts engine.SendOpts) (string, error) {
	msg, err := c.Session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", TranslateError("sending message", err)
	}
	if opts.ExpireAfter > 0 {
		c.expireLater(channelID, msg.ID, opts.ExpireAfter)
	}
	return msg.ID, nil
}

func (c *Client) SendEmbed(ctx context.Context, channelID string, embed engine.Embed) (string, error) {
	msg, err := c.Session.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", TranslateError("sending embed", err)
	}
	return msg.ID, nil
}

func (c *Client) SendDirectMessage(ctx context.Context, userID, content string) (string, error) {
	ch, err := c.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", TranslateError("opening DM channel", err)
	}
	msg, err := c.Session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", TranslateError("sending DM", err)
	}
	return msg.ID, nil
}

func (c *Client) ListTextChannels(ctx context.Context, guildID string) ([]engine.Channel, error) {
	if c.Session.StateEnabled && c.Session.State != nil {
		guild, err := c.Session.State.Guild(guildID)
		if err == nil && len(guild.Channels) > 0 {
			return textChannels(guild.Channels), nil
		}
	}

	if c.Cache != nil {
		cached, ok, err := cachestore.GetJSON[[]engine.Channel](ctx, c.Cache, channelCacheName, guildID)
		if err != nil {
			c.Logger.Warn("channel cache read failed", "guild", guildID, "err", err)
		} else if ok {
			return cached, nil
		}
	}

	raw, err := c.Session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, TranslateError("listing guild channels", err)
	}
	out := textChannels(raw)
	if c.Cache != nil {
		if err := cachestore.SetJSON(ctx, c.Cache, channelCacheName, guildID, out); err != nil {
			c.Logger.Warn("channel cache write failed", "guild", guildID, "err", err)
		}
	}
	return out, nil
}

// Whether the bot can both see and post in the channel
func (c *Client) HasSendPermission(ctx context.Context, channelID string) (bool, error) {
	if c.Session.State == nil || c.Session.State.User == nil {
		return false, fmt.Errorf("bot identity not known yet")
	}
	selfID := c.Session.State.User.ID
	perms, err := c.Session.State.UserChannelPermissions(selfID, channelID)
	if err != nil {
		perms, err = c.Session.UserChannelPermissions(selfID, channelID, discordgo.WithContext(ctx))
		if err != nil {
			return false, TranslateError("fetching channel permissions", err)
		}
	}
	return canSend(perms), nil
}

// Deletes all messages still waiting to expire, and stops their timers. Called on shutdown.
func (c *Client) Close() {
	c.lk.Lock()
	pending := c.pending
	c.pending = make(map[*time.Timer]func())
	c.lk.Unlock()

	for t, del := range pending {
		if t.Stop() {
			del()
		}
	}
}

func (c *Client) expireLater(channelID, messageID string, after time.Duration) {
	del := func() {
		if err := c.Session.ChannelMessageDelete(channelID, messageID); err != nil {
			c.Logger.Debug("failed to delete expiring message", "channel", channelID, "message", messageID, "err", TranslateError("deleting message", err))
		}
	}
	c.lk.Lock()
	defer c.lk.Unlock()
	var t *time.Timer
	t = time.AfterFunc(after, func() {
		c.lk.Lock()
		delete(c.pending, t)
		c.lk.Unlock()
		del()
	})
	c.pending[t] = del
}

func canSend(perms int64) bool {
	need := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages)
	return perms&need == need
}

// Filters to guild text channels, ordered the way the Discord client shows them
func textChannels(raw []*discordgo.Channel) []engine.Channel {
	out := []engine.Channel{}
	for _, ch := range raw {
		if ch == nil || ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		out = append(out, engine.Channel{ID: ch.ID, Name: ch.Name, Position: ch.Position})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) < len(out[j].ID)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
