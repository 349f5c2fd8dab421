package engine

import (
	"context"
	"time"
)

// A guild text channel, in the guild's display order.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type Embed struct {
	Title       string
	Description string
	Color       int
}

// Colors used for embeds
const (
	ColorRed    = 0xe74c3c
	ColorBlue   = 0x3498db
	ColorGreen  = 0x2ecc71
	ColorOrange = 0xe67e22
)

type SendOpts struct {
	// If non-zero, the sent message is deleted after this long (best-effort)
	ExpireAfter time.Duration
}

// Platform operations the engine and rules call in to. Implementations translate platform failures in to ErrPermissionDenied, ErrNotFound, or ErrTransient (wrapped), so callers can use errors.Is.
//
// The "acting member" for permission checks is always the bot itself.
type Client interface {
	Kick(ctx context.Context, guildID, memberID, reason string) error
	Timeout(ctx context.Context, guildID, memberID string, until time.Time, reason string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// Returns the ID of the sent message
	SendMessage(ctx context.Context, channelID, content string, opts SendOpts) (string, error)
	SendEmbed(ctx context.Context, channelID string, embed Embed) (string, error)
	SendDirectMessage(ctx context.Context, userID, content string) (string, error)
	// Text channels of the guild, ordered by position
	ListTextChannels(ctx context.Context, guildID string) ([]Channel, error)
	HasSendPermission(ctx context.Context, channelID string) (bool, error)
}

// Downstream handler for chat commands; invoked for every clean message after message rules.
type CommandProcessor interface {
	ProcessCommand(ctx context.Context, evt MessageEvent) error
}
