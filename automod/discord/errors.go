package discord

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/oxce5/Discord-bot/automod/engine"

	"github.com/bwmarrin/discordgo"
)

// Wraps a discordgo error with the matching engine sentinel (if any), so callers can branch with errors.Is. The original error stays in the chain.
func TranslateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if kind := classify(err); kind != nil {
		return fmt.Errorf("%s: %w: %w", op, kind, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func classify(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		status := 0
		if restErr.Response != nil {
			status = restErr.Response.StatusCode
		}
		code := 0
		if restErr.Message != nil {
			code = restErr.Message.Code
		}
		switch {
		case code == discordgo.ErrCodeMissingPermissions, code == discordgo.ErrCodeCannotSendMessagesToThisUser, status == http.StatusForbidden:
			return engine.ErrPermissionDenied
		case code == discordgo.ErrCodeUnknownChannel, code == discordgo.ErrCodeUnknownMember, code == discordgo.ErrCodeUnknownMessage, status == http.StatusNotFound:
			return engine.ErrNotFound
		case status == http.StatusTooManyRequests, status >= 500:
			return engine.ErrTransient
		}
		return nil
	}

	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return engine.ErrTransient
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return engine.ErrTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return engine.ErrTransient
	}
	return nil
}
