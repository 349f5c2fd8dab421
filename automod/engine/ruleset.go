package engine

import (
	"fmt"
)

type JoinRuleFunc = func(c *JoinContext) error
type MessageRuleFunc = func(c *MessageContext) error

// Holds configuration of which rules run for clean joins and clean messages, and dispatches events to those rules.
type RuleSet struct {
	JoinRules    []JoinRuleFunc
	MessageRules []MessageRuleFunc
}

// Runs every join rule in order. A failing (or panicking) rule does not stop later rules; the first error is returned.
func (r *RuleSet) CallJoinRules(c *JoinContext) error {
	var firstErr error
	for i, f := range r.JoinRules {
		err := callRule(func() error { return f(c) })
		if err != nil {
			c.Logger.Error("join rule failed", "rule", i, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Runs every message rule in order, with the same error semantics as CallJoinRules.
func (r *RuleSet) CallMessageRules(c *MessageContext) error {
	var firstErr error
	for i, f := range r.MessageRules {
		err := callRule(func() error { return f(c) })
		if err != nil {
			c.Logger.Error("message rule failed", "rule", i, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func callRule(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panic: %v", r)
		}
	}()
	return f()
}
