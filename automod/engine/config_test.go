package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectionConfig(t *testing.T) {
	assert := assert.New(t)

	c := DefaultDetectionConfig()
	assert.NoError(c.Validate())
	assert.Equal(time.Minute, c.JoinWindow())
	assert.Equal(time.Second, c.SpamWindow())
	assert.Equal(24*time.Hour, c.AccountAgeThreshold())
	assert.Equal(5*time.Minute, c.JoinRetention())
	assert.Equal(10*time.Second, c.MessageRetention())
	assert.Equal(10*time.Minute, c.TimeoutDuration())
	assert.Equal(15, c.EscalationThreshold())

	bad := c
	bad.MaxJoinsPerMinute = 0
	assert.ErrorContains(bad.Validate(), "max-joins-per-minute")

	bad = c
	bad.JanitorMessageRetentionSeconds = 0
	assert.Error(bad.Validate())

	bad = c
	bad.JoinWindowMinutes = 10
	assert.ErrorContains(bad.Validate(), "join retention")
}
