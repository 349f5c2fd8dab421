package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oxce5/Discord-bot/automod/engine"

	"github.com/bwmarrin/discordgo"
)

var ErrMissingArgument = errors.New("missing required argument")

// The invoking member lacks channel permissions a command requires
type MissingPermissionsError struct {
	Missing []string
}

func (e *MissingPermissionsError) Error() string {
	return "missing permissions: " + strings.Join(e.Missing, ", ")
}

// An error whose message is shown to the invoking user as-is
type UserError struct {
	Msg string
}

func (e *UserError) Error() string {
	return e.Msg
}

func userErrorf(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// Display names for permission bits, in the order they are reported
var permissionNames = []struct {
	bit  int64
	name string
}{
	{discordgo.PermissionViewChannel, "View Channel"},
	{discordgo.PermissionSendMessages, "Send Messages"},
	{discordgo.PermissionEmbedLinks, "Embed Links"},
	{discordgo.PermissionAddReactions, "Add Reactions"},
	{discordgo.PermissionUseExternalEmojis, "Use External Emojis"},
	{discordgo.PermissionReadMessageHistory, "Read Message History"},
	{discordgo.PermissionManageRoles, "Manage Roles"},
	{discordgo.PermissionManageWebhooks, "Manage Webhooks"},
}

func missingPermissions(have, need int64) []string {
	var out []string
	for _, p := range permissionNames {
		if need&p.bit != 0 && have&p.bit == 0 {
			out = append(out, p.name)
		}
	}
	return out
}

// Single translation point from a command's error to the reply shown in the channel. Returns ok=false for errors which are not user-facing (those get logged by the router instead).
func translateError(cmd *Command, prefix string, err error) (string, bool) {
	var permErr *MissingPermissionsError
	var userErr *UserError
	switch {
	case errors.As(err, &permErr):
		return "❌ Missing required permissions: " + strings.Join(permErr.Missing, ", "), true
	case errors.Is(err, ErrMissingArgument):
		return fmt.Sprintf("❌ Please provide all required arguments. Use `%shelp` for command usage.", prefix), true
	case errors.As(err, &userErr):
		return "❌ " + userErr.Msg, true
	case errors.Is(err, engine.ErrPermissionDenied):
		action := cmd.Denied
		if action == "" {
			action = "do that"
		}
		return fmt.Sprintf("❌ I don't have permission to %s.", action), true
	case errors.Is(err, engine.ErrNotFound):
		what := cmd.NotFound
		if what == "" {
			what = "Not found"
		}
		return fmt.Sprintf("❌ %s.", what), true
	case errors.Is(err, engine.ErrTransient):
		return "❌ Discord is having trouble right now, please try again.", true
	}
	return fmt.Sprintf("❌ Error: %s", err), false
}
