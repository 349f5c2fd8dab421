package engine

import (
	"time"
)

// A member joining a guild. Immutable; built by the gateway consumer for each join.
type JoinEvent struct {
	GuildID   string
	GuildName string
	MemberID  string
	// When the member's account was created (derived from the user snowflake)
	AccountCreatedAt time.Time
	// When the event was received. Used as "now" for all window math on this event.
	ObservedAt time.Time
}

func (evt *JoinEvent) Mention() string {
	return mention(evt.MemberID)
}

// Whole days between account creation and when the join was observed.
func (evt *JoinEvent) AccountAgeDays() int {
	return int(evt.ObservedAt.Sub(evt.AccountCreatedAt).Hours() / 24)
}

// A message posted in a guild channel (or DM, in which case GuildID is empty). Immutable.
type MessageEvent struct {
	MessageID   string
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool
	// may be empty
	AuthorAvatarURL string
	// Message was authored by this bot
	FromSelf   bool
	Content    string
	ObservedAt time.Time
}

func (evt *MessageEvent) Mention() string {
	return mention(evt.AuthorID)
}

func mention(userID string) string {
	return "<@" + userID + ">"
}
