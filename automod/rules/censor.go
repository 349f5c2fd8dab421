package rules

import (
	"fmt"
	"time"

	"github.com/oxce5/Discord-bot/automod"
	"github.com/oxce5/Discord-bot/automod/helpers"
	"github.com/oxce5/Discord-bot/automod/keyword"
)

var _ automod.MessageRuleFunc = CensorMessageRule

const censorNoticeTTL = 5 * time.Second

// Removes messages containing a banned word (case-insensitive substring match) and posts a short-lived notice. Bot authors are skipped.
func CensorMessageRule(c *automod.MessageContext) error {
	if c.Event.AuthorIsBot || c.Event.Content == "" {
		return nil
	}
	word := keyword.ContainsAny(c.Event.Content, c.SetValues(BannedWordsSet))
	if word == "" {
		return nil
	}
	c.Logger.Info("censoring message", "message", c.Event.MessageID, "word", word, "contentHash", helpers.HashOfString(c.Event.Content))

	client := c.Client()
	err := client.DeleteMessage(c.Ctx, c.Event.ChannelID, c.Event.MessageID)
	c.RecordAction("censor-delete", err)
	if err != nil {
		// don't claim the message was removed
		return nil
	}
	notice := fmt.Sprintf("%s ⚠️ Your message contained inappropriate language and was removed.", c.Event.Mention())
	_, err = client.SendMessage(c.Ctx, c.Event.ChannelID, notice, automod.SendOpts{ExpireAfter: censorNoticeTTL})
	c.RecordAction("censor-notice", err)
	return nil
}
