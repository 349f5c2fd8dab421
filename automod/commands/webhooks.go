package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/oxce5/Discord-bot/automod/discord"
	"github.com/oxce5/Discord-bot/automod/engine"
	"github.com/oxce5/Discord-bot/automod/helpers"

	"github.com/bwmarrin/discordgo"
)

const (
	permsManageWebhooks = permsEmbed | discordgo.PermissionManageWebhooks
	permsListWebhooks   = permsManageWebhooks | discordgo.PermissionReadMessageHistory

	webhookListLimit = 10
)

func WebhookCommands() []*Command {
	return []*Command{
		{
			Name:        "createwebhook",
			Aliases:     []string{"cw", "webhook"},
			Usage:       "[#channel] [name]",
			Description: "Create a webhook in a channel",
			Perms:       permsManageWebhooks,
			GuildOnly:   true,
			Denied:      "create webhooks",
			NotFound:    "Channel not found",
			Handler:     createWebhookCommand,
		},
		{
			Name:        "listwebhooks",
			Aliases:     []string{"lw", "webhooks"},
			Usage:       "[#channel]",
			Description: "List all webhooks in a channel or server",
			Perms:       permsListWebhooks,
			GuildOnly:   true,
			Denied:      "list webhooks",
			NotFound:    "Channel not found",
			Handler:     listWebhooksCommand,
		},
		{
			Name:        "deletewebhook",
			Aliases:     []string{"dw", "removewebhook"},
			Usage:       "<webhook id | name>",
			Description: "Delete a webhook by ID or name",
			Perms:       permsManageWebhooks,
			GuildOnly:   true,
			Denied:      "delete this webhook",
			NotFound:    "Webhook not found",
			Handler:     deleteWebhookCommand,
		},
		{
			Name:        "sendwebhook",
			Aliases:     []string{"sw", "webhooksend"},
			Usage:       "<webhook id> <message>",
			Description: "Send a message through a webhook",
			Perms:       permsManageWebhooks,
			GuildOnly:   true,
			Denied:      "use this webhook",
			NotFound:    "Webhook not found",
			Handler:     sendWebhookCommand,
		},
		{
			Name:        "webhookembed",
			Aliases:     []string{"we"},
			Usage:       "<webhook id> <title>",
			Description: "Send an embed through a webhook",
			Perms:       permsManageWebhooks,
			GuildOnly:   true,
			Denied:      "use this webhook",
			NotFound:    "Webhook not found",
			Handler:     webhookEmbedCommand,
		},
	}
}

func createWebhookCommand(c *Context) error {
	channelID := c.Event.ChannelID
	name := c.Args
	if first, rest := splitFirst(c.Args); first != "" {
		if id, ok := helpers.ParseChannelRef(first); ok {
			channelID = id
			name = rest
		}
	}
	if name == "" {
		name = "Webhook-" + c.Event.AuthorName
	}

	hook, err := c.API.WebhookCreate(channelID, name, "", discordgo.WithContext(c.Ctx))
	if err != nil {
		return discord.TranslateError("creating webhook", err)
	}
	c.Logger.Info("webhook created", "webhook", hook.ID, "target", channelID)
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Webhook Created",
		Description: fmt.Sprintf("Webhook '%s' created in <#%s>", name, channelID),
		Color:       engine.ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Webhook URL", Value: "`" + discordgo.EndpointWebhookToken(hook.ID, hook.Token) + "`"},
			{Name: "Webhook ID", Value: hook.ID, Inline: true},
		},
	})
	return err
}

func listWebhooksCommand(c *Context) error {
	var hooks []*discordgo.Webhook
	var err error
	if ref, _ := splitFirst(c.Args); ref != "" {
		channelID, ok := helpers.ParseChannelRef(ref)
		if !ok {
			return userErrorf("Channel '%s' not found.", ref)
		}
		hooks, err = c.API.ChannelWebhooks(channelID, discordgo.WithContext(c.Ctx))
	} else {
		hooks, err = c.API.GuildWebhooks(c.Event.GuildID, discordgo.WithContext(c.Ctx))
	}
	if err != nil {
		return discord.TranslateError("listing webhooks", err)
	}
	if len(hooks) == 0 {
		return userErrorf("No webhooks found.")
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Webhooks (%d)", len(hooks)),
		Color: engine.ColorBlue,
	}
	shown := hooks
	if len(shown) > webhookListLimit {
		shown = shown[:webhookListLimit]
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Showing first %d of %d webhooks", webhookListLimit, len(hooks)),
		}
	}
	lines := make([]string, 0, len(shown))
	for _, h := range shown {
		where := "Unknown"
		if h.ChannelID != "" {
			where = "<#" + h.ChannelID + ">"
		}
		lines = append(lines, fmt.Sprintf("**%s** - %s", h.Name, where))
	}
	embed.Description = strings.Join(lines, "\n")
	_, err = c.ReplyEmbed(embed)
	return err
}

// Resolves a webhook by snowflake ID, or else by exact name among the guild's webhooks
func (c *Context) findWebhook(ref string) (*discordgo.Webhook, error) {
	if helpers.IsSnowflake(ref) {
		hook, err := c.API.Webhook(ref, discordgo.WithContext(c.Ctx))
		if err != nil {
			return nil, discord.TranslateError("fetching webhook", err)
		}
		return hook, nil
	}
	hooks, err := c.API.GuildWebhooks(c.Event.GuildID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return nil, discord.TranslateError("listing webhooks", err)
	}
	for _, h := range hooks {
		if h.Name == ref {
			return h, nil
		}
	}
	return nil, userErrorf("Webhook not found.")
}

func deleteWebhookCommand(c *Context) error {
	if c.Args == "" {
		return userErrorf("Please provide either a webhook ID or name.")
	}
	hook, err := c.findWebhook(c.Args)
	if err != nil {
		return err
	}
	if err := c.API.WebhookDelete(hook.ID, discordgo.WithContext(c.Ctx)); err != nil {
		return discord.TranslateError("deleting webhook", err)
	}
	c.Logger.Info("webhook deleted", "webhook", hook.ID)
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Webhook Deleted",
		Description: fmt.Sprintf("Webhook '%s' has been deleted.", hook.Name),
		Color:       engine.ColorRed,
	})
	return err
}

// Parses "<id> <text>" and fetches a webhook the bot can execute
func (c *Context) executableWebhook() (*discordgo.Webhook, string, error) {
	id, rest := splitFirst(c.Args)
	if id == "" || rest == "" {
		return nil, "", ErrMissingArgument
	}
	if !helpers.IsSnowflake(id) {
		return nil, "", userErrorf("'%s' is not a webhook ID.", id)
	}
	hook, err := c.API.Webhook(id, discordgo.WithContext(c.Ctx))
	if err != nil {
		return nil, "", discord.TranslateError("fetching webhook", err)
	}
	// only webhooks created by an application hand back their token
	if hook.Token == "" {
		return nil, "", fmt.Errorf("executing webhook: %w", engine.ErrPermissionDenied)
	}
	return hook, rest, nil
}

func sendWebhookCommand(c *Context) error {
	hook, text, err := c.executableWebhook()
	if err != nil {
		return err
	}
	_, err = c.API.WebhookExecute(hook.ID, hook.Token, false, &discordgo.WebhookParams{
		Content:   text,
		Username:  c.Event.AuthorName,
		AvatarURL: c.Event.AuthorAvatarURL,
	}, discordgo.WithContext(c.Ctx))
	if err != nil {
		return discord.TranslateError("executing webhook", err)
	}
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Message Sent",
		Description: fmt.Sprintf("Message sent via webhook '%s'", hook.Name),
		Color:       engine.ColorGreen,
	})
	return err
}

func webhookEmbedCommand(c *Context) error {
	hook, title, err := c.executableWebhook()
	if err != nil {
		return err
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: "This is a webhook embed message",
		Color:       engine.ColorBlue,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    c.Event.AuthorName,
			IconURL: c.Event.AuthorAvatarURL,
		},
		Timestamp: c.Event.ObservedAt.UTC().Format(time.RFC3339),
	}
	_, err = c.API.WebhookExecute(hook.ID, hook.Token, false, &discordgo.WebhookParams{
		Username:  c.Event.AuthorName,
		AvatarURL: c.Event.AuthorAvatarURL,
		Embeds:    []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(c.Ctx))
	if err != nil {
		return discord.TranslateError("executing webhook", err)
	}
	return c.Reply("✅ Embed sent via webhook!")
}
