package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oxce5/Discord-bot/automod/countstore"
	"github.com/oxce5/Discord-bot/automod/flagstore"
	"github.com/oxce5/Discord-bot/automod/setstore"

	"go.opentelemetry.io/otel/attribute"
)

// runtime for detecting raids and spam, running mitigations, and dispatching clean events to downstream rules and commands.
//
// Owns all tracking state (rate windows and the suspicious account set). Several fields should not be nil even though they are pointer or interface type: Logger, Joins, Messages, Suspicious, Client.
type Engine struct {
	Logger *slog.Logger
	Config DetectionConfig
	// join timestamps, keyed by guild ID
	Joins countstore.RateWindow
	// message timestamps, keyed by author ID
	Messages   countstore.RateWindow
	Suspicious flagstore.FlagStore
	Sets       setstore.SetStore
	Client     Client
	Rules      RuleSet
	// optional
	Commands CommandProcessor
	// optional; defaults to time.Now. Only consulted for events without an ObservedAt, and for computing timeout expiry.
	Clock func() time.Time
}

func (eng *Engine) now() time.Time {
	if eng.Clock != nil {
		return eng.Clock()
	}
	return time.Now()
}

// Dispatcher path for member joins: raid check, then either mitigation or the join rules (welcome etc).
func (eng *Engine) ProcessJoin(ctx context.Context, evt JoinEvent) (err error) {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "guild", evt.GuildID, "member", evt.MemberID, "type", "join")
			eventErrorCount.WithLabelValues("join").Inc()
			err = fmt.Errorf("recovered from panic processing join: %v", r)
		}
	}()

	ctx, span := tracer.Start(ctx, "ProcessJoin")
	defer span.End()
	span.SetAttributes(attribute.String("guild", evt.GuildID), attribute.String("member", evt.MemberID))

	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("join").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("join").Inc()

	if evt.ObservedAt.IsZero() {
		evt.ObservedAt = eng.now()
	}

	if eng.CheckRaid(ctx, evt) {
		span.SetAttributes(attribute.Bool("raid", true))
		eng.OnRaid(ctx, evt)
		return nil
	}

	jc := NewJoinContext(ctx, eng, evt)
	if err := eng.Rules.CallJoinRules(&jc); err != nil {
		eventErrorCount.WithLabelValues("join").Inc()
		span.RecordError(err)
		return err
	}
	return nil
}

// Dispatcher path for messages: skips the bot's own messages, spam check, then either mitigation or message rules followed by command processing.
func (eng *Engine) ProcessMessage(ctx context.Context, evt MessageEvent) (err error) {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "author", evt.AuthorID, "message", evt.MessageID, "type", "message")
			eventErrorCount.WithLabelValues("message").Inc()
			err = fmt.Errorf("recovered from panic processing message: %v", r)
		}
	}()

	if evt.FromSelf {
		return nil
	}

	ctx, span := tracer.Start(ctx, "ProcessMessage")
	defer span.End()
	span.SetAttributes(attribute.String("guild", evt.GuildID), attribute.String("author", evt.AuthorID))

	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("message").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("message").Inc()

	if evt.ObservedAt.IsZero() {
		evt.ObservedAt = eng.now()
	}

	if eng.CheckSpam(ctx, evt) {
		span.SetAttributes(attribute.Bool("spam", true))
		eng.OnSpam(ctx, evt)
		return nil
	}

	// rules and commands both run, in that order, even if a rule fails
	mc := NewMessageContext(ctx, eng, evt)
	ruleErr := eng.Rules.CallMessageRules(&mc)
	var cmdErr error
	if eng.Commands != nil {
		cmdErr = eng.Commands.ProcessCommand(ctx, evt)
	}
	if err := errors.Join(ruleErr, cmdErr); err != nil {
		eventErrorCount.WithLabelValues("message").Inc()
		span.RecordError(err)
		return err
	}
	return nil
}
