package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	RaidKickReason    = "Anti-raid protection: Suspicious account"
	SpamTimeoutReason = "Spam detection"

	spamWarningTTL      = 5 * time.Second
	timeoutNoticeTTL    = 10 * time.Second
	raidAlertTitle      = "⚠️ Raid Protection Alert"
	spamWarningTemplate = "%s ⚠️ Please slow down! Spam detected."
	timeoutTemplate     = "%s has been timed out for %d minutes due to spam."
)

// Raid mitigation: kick the member, then alert the first text channel (in guild order) the bot can send to. A failed kick does not prevent the alert.
func (eng *Engine) OnRaid(ctx context.Context, evt JoinEvent) {
	logger := eng.Logger.With("guild", evt.GuildID, "member", evt.MemberID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("raid mitigation exception", "err", r)
			eventErrorCount.WithLabelValues("raid-mitigation").Inc()
		}
	}()

	ctx, span := tracer.Start(ctx, "OnRaid", trace.WithAttributes(attribute.String("guild", evt.GuildID)))
	defer span.End()

	err := eng.Client.Kick(ctx, evt.GuildID, evt.MemberID, RaidKickReason)
	recordAction(logger, "kick", err)
	if err == nil {
		logger.Info("kicked suspicious account")
	}

	channels, err := eng.Client.ListTextChannels(ctx, evt.GuildID)
	if err != nil {
		recordAction(logger, "list-channels", err)
		return
	}
	embed := Embed{
		Title:       raidAlertTitle,
		Description: fmt.Sprintf("Detected suspicious account: %s\nAccount age: %d days", evt.Mention(), evt.AccountAgeDays()),
		Color:       ColorRed,
	}
	for _, ch := range channels {
		ok, err := eng.Client.HasSendPermission(ctx, ch.ID)
		if err != nil {
			logger.Debug("failed to check channel permissions", "channel", ch.ID, "err", err)
			continue
		}
		if !ok {
			continue
		}
		_, err = eng.Client.SendEmbed(ctx, ch.ID, embed)
		recordAction(logger.With("channel", ch.ID), "alert", err)
		return
	}
	logger.Warn("no channel available for raid alert")
}

// Spam mitigation: delete the message, post a self-expiring warning, and if the author's recount is over the escalation threshold, time them out and announce it. Each step runs even if the previous one failed, except the announcement which requires a successful timeout.
func (eng *Engine) OnSpam(ctx context.Context, evt MessageEvent) {
	logger := eng.Logger.With("author", evt.AuthorID, "guild", evt.GuildID, "channel", evt.ChannelID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("spam mitigation exception", "err", r)
			eventErrorCount.WithLabelValues("spam-mitigation").Inc()
		}
	}()

	ctx, span := tracer.Start(ctx, "OnSpam", trace.WithAttributes(attribute.String("author", evt.AuthorID)))
	defer span.End()

	err := eng.Client.DeleteMessage(ctx, evt.ChannelID, evt.MessageID)
	recordAction(logger, "delete", err)

	_, err = eng.Client.SendMessage(ctx, evt.ChannelID, fmt.Sprintf(spamWarningTemplate, evt.Mention()), SendOpts{ExpireAfter: spamWarningTTL})
	recordAction(logger, "warn", err)

	// recount at verdict time; includes the message just deleted
	count := eng.Messages.CountWithin(evt.AuthorID, eng.Config.SpamWindow(), evt.ObservedAt)
	if count <= eng.Config.EscalationThreshold() {
		return
	}
	if evt.GuildID == "" {
		// can't time out outside a guild
		return
	}

	until := eng.now().Add(eng.Config.TimeoutDuration())
	err = eng.Client.Timeout(ctx, evt.GuildID, evt.AuthorID, until, SpamTimeoutReason)
	recordAction(logger, "timeout", err)
	if err != nil {
		return
	}
	logger.Info("timed out spamming member", "count", count, "until", until)

	notice := fmt.Sprintf(timeoutTemplate, evt.Mention(), eng.Config.TimeoutDurationMinutes)
	_, err = eng.Client.SendMessage(ctx, evt.ChannelID, notice, SendOpts{ExpireAfter: timeoutNoticeTTL})
	recordAction(logger, "timeout-notice", err)
}
