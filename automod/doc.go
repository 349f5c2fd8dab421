// Auto-moderation engine for Discord guilds: raid and spam detection with mitigation, plus downstream rules and commands.
//
// This package (`github.com/oxce5/Discord-bot/automod`) re-exports the main types from `automod/engine`. The engine consumes member join and message events, tracks them in sliding time windows (`automod/countstore`), and decides whether a join is part of a raid (a burst of joins to one guild, or a very new account) or a message is part of a spam burst (too many messages from one author in a short interval). Verdicts trigger mitigations (kick, alert, delete, warn, timeout) through a platform client; clean events flow on to rules (welcome, censor) and command processing.
//
// See `automod/discord` for the gateway and REST glue, and `cmd/modbot` for a daemon built on this package.
package automod
