package engine

import (
	"fmt"
	"time"
)

// Detection thresholds and windows. Loaded once at startup and never mutated afterwards.
type DetectionConfig struct {
	MaxJoinsPerMinute              int `json:"max_joins_per_minute"`
	MaxMessagesPerSecond           int `json:"max_messages_per_second"`
	AccountAgeThresholdHours       int `json:"account_age_threshold_hours"`
	SpamWindowSeconds              int `json:"spam_window_seconds"`
	JoinWindowMinutes              int `json:"join_window_minutes"`
	JanitorJoinRetentionMinutes    int `json:"janitor_join_retention_minutes"`
	JanitorMessageRetentionSeconds int `json:"janitor_message_retention_seconds"`
	TimeoutDurationMinutes         int `json:"timeout_duration_minutes"`
	SpamEscalationMultiplier       int `json:"spam_escalation_multiplier"`
}

func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		MaxJoinsPerMinute:              5,
		MaxMessagesPerSecond:           5,
		AccountAgeThresholdHours:       24,
		SpamWindowSeconds:              1,
		JoinWindowMinutes:              1,
		JanitorJoinRetentionMinutes:    5,
		JanitorMessageRetentionSeconds: 10,
		TimeoutDurationMinutes:         10,
		SpamEscalationMultiplier:       3,
	}
}

// Checks that all thresholds are positive, and that janitor retention is never shorter than the matching detection window (otherwise the janitor could evict entries a detector is still counting).
func (c DetectionConfig) Validate() error {
	fields := []struct {
		name string
		val  int
	}{
		{"max-joins-per-minute", c.MaxJoinsPerMinute},
		{"max-messages-per-second", c.MaxMessagesPerSecond},
		{"account-age-threshold-hours", c.AccountAgeThresholdHours},
		{"spam-window-seconds", c.SpamWindowSeconds},
		{"join-window-minutes", c.JoinWindowMinutes},
		{"janitor-join-retention-minutes", c.JanitorJoinRetentionMinutes},
		{"janitor-message-retention-seconds", c.JanitorMessageRetentionSeconds},
		{"timeout-duration-minutes", c.TimeoutDurationMinutes},
		{"spam-escalation-multiplier", c.SpamEscalationMultiplier},
	}
	for _, f := range fields {
		if f.val <= 0 {
			return fmt.Errorf("invalid detection config: %s must be positive (got %d)", f.name, f.val)
		}
	}
	if c.JoinRetention() < c.JoinWindow() {
		return fmt.Errorf("invalid detection config: join retention (%s) shorter than join window (%s)", c.JoinRetention(), c.JoinWindow())
	}
	if c.MessageRetention() < c.SpamWindow() {
		return fmt.Errorf("invalid detection config: message retention (%s) shorter than spam window (%s)", c.MessageRetention(), c.SpamWindow())
	}
	return nil
}

func (c DetectionConfig) JoinWindow() time.Duration {
	return time.Duration(c.JoinWindowMinutes) * time.Minute
}

func (c DetectionConfig) SpamWindow() time.Duration {
	return time.Duration(c.SpamWindowSeconds) * time.Second
}

func (c DetectionConfig) AccountAgeThreshold() time.Duration {
	return time.Duration(c.AccountAgeThresholdHours) * time.Hour
}

func (c DetectionConfig) JoinRetention() time.Duration {
	return time.Duration(c.JanitorJoinRetentionMinutes) * time.Minute
}

func (c DetectionConfig) MessageRetention() time.Duration {
	return time.Duration(c.JanitorMessageRetentionSeconds) * time.Second
}

func (c DetectionConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.TimeoutDurationMinutes) * time.Minute
}

// Message count above which a spamming author is also timed out.
func (c DetectionConfig) EscalationThreshold() int {
	return c.MaxMessagesPerSecond * c.SpamEscalationMultiplier
}
