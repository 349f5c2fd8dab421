package commands

import (
	"fmt"
	"strconv"

	"github.com/oxce5/Discord-bot/automod/discord"
	"github.com/oxce5/Discord-bot/automod/engine"

	"github.com/bwmarrin/discordgo"
)

const (
	permsBasic = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	permsEmbed = permsBasic | discordgo.PermissionEmbedLinks
	permsPoll  = permsEmbed | discordgo.PermissionAddReactions | discordgo.PermissionUseExternalEmojis
)

func BasicCommands() []*Command {
	return []*Command{
		{
			Name:        "hello",
			Description: "Say hello to the bot",
			Perms:       permsBasic,
			Handler:     helloCommand,
		},
		{
			Name:        "ping",
			Description: "Check bot latency",
			Perms:       permsBasic,
			Handler:     pingCommand,
		},
		{
			Name:        "poll",
			Usage:       "<question>",
			Description: "Create a poll with thumbs up/down reactions",
			Perms:       permsPoll,
			Denied:      "add reactions",
			Handler:     pollCommand,
		},
		{
			Name:        "info",
			Description: "Get bot information",
			Perms:       permsEmbed,
			GuildOnly:   true,
			Handler:     infoCommand,
		},
		{
			Name:        "help",
			Usage:       "[command]",
			Description: "Show available commands",
			Handler:     helpCommand,
		},
	}
}

func helloCommand(c *Context) error {
	return c.Reply(fmt.Sprintf("Hello %s!", c.Event.Mention()))
}

func pingCommand(c *Context) error {
	return c.Reply(fmt.Sprintf("Pong! Latency: %dms", c.API.HeartbeatLatency().Milliseconds()))
}

func pollCommand(c *Context) error {
	if c.Args == "" {
		return ErrMissingArgument
	}
	msg, err := c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "New Poll",
		Description: c.Args,
		Color:       engine.ColorBlue,
	})
	if err != nil {
		return err
	}
	for _, emoji := range []string{"👍", "👎"} {
		if err := c.API.MessageReactionAdd(msg.ChannelID, msg.ID, emoji, discordgo.WithContext(c.Ctx)); err != nil {
			return discord.TranslateError("adding poll reaction", err)
		}
	}
	return nil
}

func infoCommand(c *Context) error {
	guild, err := c.API.Guild(c.Event.GuildID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return discord.TranslateError("fetching guild", err)
	}
	members := guild.MemberCount
	if members == 0 {
		members = guild.ApproximateMemberCount
	}
	botName := "unknown"
	if self := c.Self(); self != nil {
		botName = self.Username
	}
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Bot Information",
		Description: "A test Discord bot",
		Color:       engine.ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Server", Value: guild.Name, Inline: true},
			{Name: "Members", Value: strconv.Itoa(members), Inline: true},
			{Name: "Bot User", Value: botName, Inline: true},
		},
	})
	return err
}

func helpCommand(c *Context) error {
	prefix := c.Router.Prefix
	if c.Args != "" {
		cmd, ok := c.Router.Lookup(c.Args)
		if !ok {
			return userErrorf("Unknown command '%s'.", c.Args)
		}
		embed := &discordgo.MessageEmbed{
			Title:       prefix + cmd.Name,
			Description: cmd.Description,
			Color:       engine.ColorBlue,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Usage", Value: fmt.Sprintf("`%s%s %s`", prefix, cmd.Name, cmd.Usage)},
			},
		}
		if len(cmd.Aliases) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Aliases", Value: joinAliases(prefix, cmd.Aliases)})
		}
		_, err := c.ReplyEmbed(embed)
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: "Commands",
		Color: engine.ColorBlue,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Use %shelp <command> for details", prefix),
		},
	}
	for _, cmd := range c.Router.Commands() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  prefix + cmd.Name,
			Value: cmd.Description,
		})
	}
	_, err := c.ReplyEmbed(embed)
	return err
}

func joinAliases(prefix string, aliases []string) string {
	out := ""
	for i, a := range aliases {
		if i > 0 {
			out += ", "
		}
		out += "`" + prefix + a + "`"
	}
	return out
}
