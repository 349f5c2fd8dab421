package consumer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/oxce5/Discord-bot/automod/engine"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinEventFromMember(t *testing.T) {
	assert := assert.New(t)

	observed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	evt, err := JoinEventFromMember(&discordgo.Member{
		GuildID: "g1",
		User:    &discordgo.User{ID: "175928847299117063"},
	}, "Test Guild", observed)
	require.NoError(t, err)
	assert.Equal("g1", evt.GuildID)
	assert.Equal("Test Guild", evt.GuildName)
	assert.Equal("175928847299117063", evt.MemberID)
	assert.Equal(observed, evt.ObservedAt)
	assert.True(evt.AccountCreatedAt.Equal(time.Date(2016, 4, 30, 11, 18, 25, 796_000_000, time.UTC)), evt.AccountCreatedAt.String())

	_, err = JoinEventFromMember(&discordgo.Member{GuildID: "g1"}, "", observed)
	assert.Error(err)
	_, err = JoinEventFromMember(&discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "not-a-number"}}, "", observed)
	assert.Error(err)
}

func TestMessageEventFromMessage(t *testing.T) {
	assert := assert.New(t)

	observed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := &discordgo.Message{
		ID:        "m1",
		GuildID:   "g1",
		ChannelID: "c1",
		Content:   "hi",
		Author:    &discordgo.User{ID: "u1", Username: "robot", Bot: true},
	}
	evt := MessageEventFromMessage(m, "self", observed)
	assert.Equal("m1", evt.MessageID)
	assert.Equal("g1", evt.GuildID)
	assert.Equal("c1", evt.ChannelID)
	assert.Equal("u1", evt.AuthorID)
	assert.Equal("robot", evt.AuthorName)
	assert.True(evt.AuthorIsBot)
	assert.False(evt.FromSelf)
	assert.Equal("hi", evt.Content)
	assert.Equal(observed, evt.ObservedAt)
	assert.NotEmpty(evt.AuthorAvatarURL)

	assert.True(MessageEventFromMessage(m, "u1", observed).FromSelf)
	assert.False(MessageEventFromMessage(m, "", observed).FromSelf)
}

func TestGatewayDispatch(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, client := engine.EngineTestFixture()
	gc := &GatewayConsumer{
		Logger: slog.Default(),
		Engine: eng,
		Clock:  func() time.Time { return engine.FixtureNow },
	}
	sched := NewScheduler(2, "test-gateway", gc.handleWork)

	sess := &discordgo.Session{State: discordgo.NewState()}
	sess.State.User = &discordgo.User{ID: "bot"}

	for i := 0; i < 8; i++ {
		gc.HandleMessageCreate(ctx, sched, sess, &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:        "m" + string(rune('a'+i)),
			GuildID:   "g1",
			ChannelID: "c1",
			Content:   "spam",
			Author:    &discordgo.User{ID: "u1"},
		}})
	}
	// own messages never reach the engine
	gc.HandleMessageCreate(ctx, sched, sess, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:     "self1",
		Author: &discordgo.User{ID: "bot"},
	}})
	sched.Shutdown()

	// messages 6 through 8 were spam
	assert.Len(client.DeleteCalls(), 3)
	assert.Equal(8, eng.Messages.Count("u1"))
}

func TestGatewayEventAfterShutdown(t *testing.T) {
	assert := assert.New(t)

	eng, client := engine.EngineTestFixture()
	gc := &GatewayConsumer{
		Logger: slog.Default(),
		Engine: eng,
		Clock:  func() time.Time { return engine.FixtureNow },
	}
	sched := NewScheduler(2, "test-gateway-closed", gc.handleWork)
	sched.Shutdown()

	sess := &discordgo.Session{State: discordgo.NewState()}
	sess.State.User = &discordgo.User{ID: "bot"}

	// a handler still running on the gateway goroutine after shutdown only logs
	assert.NotPanics(func() {
		gc.HandleMessageCreate(context.Background(), sched, sess, &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:      "late",
			GuildID: "g1",
			Author:  &discordgo.User{ID: "u1"},
		}})
		gc.HandleMemberAdd(context.Background(), sched, sess, &discordgo.GuildMemberAdd{Member: &discordgo.Member{
			GuildID: "g1",
			User:    &discordgo.User{ID: "175928847299117063"},
		}})
	})
	assert.Equal(0, eng.Messages.Count("u1"))
	assert.Empty(client.DeleteCalls())
}
