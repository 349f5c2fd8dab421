package rules

import (
	"github.com/oxce5/Discord-bot/automod"
)

// Name of the set (in the engine's set store) holding banned words for the censor
const BannedWordsSet = "banned-words"

func DefaultRules(welcomeChannel string) automod.RuleSet {
	rules := automod.RuleSet{
		JoinRules: []automod.JoinRuleFunc{
			WelcomeJoinRule(welcomeChannel),
		},
		MessageRules: []automod.MessageRuleFunc{
			CensorMessageRule,
		},
	}
	return rules
}
