package engine

import (
	"context"
	"log/slog"
)

// The primary interface exposed to rules. All other contexts derive from this "base" struct.
type BaseContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// slog logger handle, with event-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger

	engine *Engine // NOTE: pointer, but expected never to be nil
}

// A clean (non-raid) member join.
type JoinContext struct {
	BaseContext

	Event JoinEvent
}

// A clean (non-spam) message, not authored by this bot.
type MessageContext struct {
	BaseContext

	Event MessageEvent
}

func NewJoinContext(ctx context.Context, eng *Engine, evt JoinEvent) JoinContext {
	return JoinContext{
		BaseContext: BaseContext{
			Ctx:    ctx,
			Logger: eng.Logger.With("guild", evt.GuildID, "member", evt.MemberID),
			engine: eng,
		},
		Event: evt,
	}
}

func NewMessageContext(ctx context.Context, eng *Engine, evt MessageEvent) MessageContext {
	return MessageContext{
		BaseContext: BaseContext{
			Ctx:    ctx,
			Logger: eng.Logger.With("guild", evt.GuildID, "channel", evt.ChannelID, "author", evt.AuthorID),
			engine: eng,
		},
		Event: evt,
	}
}

// Platform client, for rules which take their own actions
func (c *BaseContext) Client() Client {
	return c.engine.Client
}

// checks if `val` is an element of set `name`. Lookup errors are logged and treated as "not in set".
func (c *BaseContext) InSet(name, val string) bool {
	if c.engine.Sets == nil {
		return false
	}
	out, err := c.engine.Sets.InSet(c.Ctx, name, val)
	if err != nil {
		c.Logger.Warn("set lookup failed", "set", name, "err", err)
		return false
	}
	return out
}

// All members of set `name`; empty if the set is unknown or the lookup fails.
func (c *BaseContext) SetValues(name string) []string {
	if c.engine.Sets == nil {
		return nil
	}
	out, err := c.engine.Sets.Values(c.Ctx, name)
	if err != nil {
		c.Logger.Warn("set lookup failed", "set", name, "err", err)
		return nil
	}
	return out
}

// Records the outcome of an action a rule took via the client, with the same logging and metrics as mitigation actions.
func (c *BaseContext) RecordAction(action string, err error) {
	recordAction(c.Logger, action, err)
}
