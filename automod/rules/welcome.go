package rules

import (
	"errors"
	"fmt"

	"github.com/oxce5/Discord-bot/automod"
)

// Greets new (non-raid) members in the named channel. If the guild has no channel by that name, falls back to a direct message; a refused DM is only logged.
func WelcomeJoinRule(channelName string) automod.JoinRuleFunc {
	return func(c *automod.JoinContext) error {
		client := c.Client()
		channels, err := client.ListTextChannels(c.Ctx, c.Event.GuildID)
		if err != nil {
			return fmt.Errorf("listing channels for welcome: %w", err)
		}
		for _, ch := range channels {
			if ch.Name != channelName {
				continue
			}
			_, err := client.SendMessage(c.Ctx, ch.ID, fmt.Sprintf("Welcome to the server, %s! 🎉", c.Event.Mention()), automod.SendOpts{})
			c.RecordAction("welcome", err)
			return nil
		}

		_, err = client.SendDirectMessage(c.Ctx, c.Event.MemberID, fmt.Sprintf("Welcome to %s! 🎉", c.Event.GuildName))
		if errors.Is(err, automod.ErrPermissionDenied) {
			c.Logger.Info("could not send welcome message", "err", err)
			return nil
		}
		c.RecordAction("welcome-dm", err)
		return nil
	}
}
