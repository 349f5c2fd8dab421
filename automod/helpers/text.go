package helpers

import (
	"fmt"
	"regexp"

	"github.com/spaolacci/murmur3"
)

// returns a fast, compact hash of a string
//
// current implementation uses murmur3, default seed, and hex encoding
func HashOfString(s string) string {
	val := murmur3.Sum64([]byte(s))
	return fmt.Sprintf("%016x", val)
}

var (
	userMentionRegex    = regexp.MustCompile(`<@!?(\d+)>`)
	roleMentionRegex    = regexp.MustCompile(`<@&(\d+)>`)
	channelMentionRegex = regexp.MustCompile(`<#(\d+)>`)
	snowflakeRegex      = regexp.MustCompile(`^\d{15,21}$`)
)

func IsSnowflake(tok string) bool {
	return snowflakeRegex.MatchString(tok)
}

// If the token is a single user mention (or a bare snowflake), returns the user ID
func ParseUserRef(tok string) (string, bool) {
	if m := userMentionRegex.FindStringSubmatch(tok); m != nil && m[0] == tok {
		return m[1], true
	}
	if snowflakeRegex.MatchString(tok) {
		return tok, true
	}
	return "", false
}

// If the token is a single channel mention (or a bare snowflake), returns the channel ID
func ParseChannelRef(tok string) (string, bool) {
	if m := channelMentionRegex.FindStringSubmatch(tok); m != nil && m[0] == tok {
		return m[1], true
	}
	if snowflakeRegex.MatchString(tok) {
		return tok, true
	}
	return "", false
}

// If the token is a single role mention, returns the role ID
func ParseRoleRef(tok string) (string, bool) {
	if m := roleMentionRegex.FindStringSubmatch(tok); m != nil && m[0] == tok {
		return m[1], true
	}
	return "", false
}
