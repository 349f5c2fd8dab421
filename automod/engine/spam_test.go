package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msg(author string, n int, at time.Time) MessageEvent {
	return MessageEvent{
		MessageID:  fmt.Sprintf("%s-%d", author, n),
		GuildID:    "g1",
		ChannelID:  "c1",
		AuthorID:   author,
		Content:    "hello",
		ObservedAt: at,
	}
}

func TestSpamDetection(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := EngineTestFixture()

	limit := eng.Config.MaxMessagesPerSecond
	for i := 0; i < limit; i++ {
		assert.False(eng.CheckSpam(ctx, msg("u1", i, FixtureNow.Add(time.Duration(i)*10*time.Millisecond))))
	}
	assert.True(eng.CheckSpam(ctx, msg("u1", limit, FixtureNow.Add(100*time.Millisecond))))

	// another author is unaffected
	assert.False(eng.CheckSpam(ctx, msg("u2", 0, FixtureNow)))

	// once the window has passed, the author is clean again
	assert.False(eng.CheckSpam(ctx, msg("u1", 99, FixtureNow.Add(2*time.Second))))
	assert.Equal(1, eng.Messages.Count("u1"))
}

func TestSpamIgnoresBots(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := EngineTestFixture()

	for i := 0; i < 50; i++ {
		evt := msg("bot1", i, FixtureNow)
		evt.AuthorIsBot = true
		assert.False(eng.CheckSpam(ctx, evt))
	}
	assert.Equal(0, eng.Messages.Count("bot1"))
	assert.Equal(0, eng.Messages.Len())
}
