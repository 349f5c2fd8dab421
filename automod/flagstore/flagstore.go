package flagstore

// FlagStore records members flagged as suspicious, grouped by guild.
//
// The set is append-only for the lifetime of the process: it is kept for diagnostics and audit, and is never consulted to re-evaluate a member.
type FlagStore interface {
	Add(guildID string, memberIDs ...string)
	Get(guildID string) []string
	Has(guildID, memberID string) bool
}
