package commands

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterIgnoresNonCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	r, api := routerFixture()

	assert.NoError(r.ProcessCommand(ctx, command("hello there")))
	assert.NoError(r.ProcessCommand(ctx, command("!")))
	assert.NoError(r.ProcessCommand(ctx, command("!nosuchcommand")))

	evt := command("!hello")
	evt.AuthorIsBot = true
	assert.NoError(r.ProcessCommand(ctx, evt))

	assert.Empty(api.Sent)
	assert.Empty(api.Embeds)
}

func TestRouterAliasesAndCase(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	r, api := routerFixture()

	assert.NoError(r.ProcessCommand(ctx, command("!HELLO")))
	assert.Equal("Hello <@300000000000000001>!", api.lastSent())

	assert.NoError(r.ProcessCommand(ctx, command("!lr")))
	require.NotNil(t, api.lastEmbed())
	assert.Equal("Server Roles (3)", api.lastEmbed().Title)

	cmd, ok := r.Lookup("giverole")
	assert.True(ok)
	assert.Equal("assignrole", cmd.Name)
}

func TestRouterMissingPermissions(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	r, api := routerFixture()
	api.Perms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages

	assert.NoError(r.ProcessCommand(ctx, command("!poll lunch?")))
	assert.Equal("❌ Missing required permissions: Embed Links, Add Reactions, Use External Emojis", api.lastSent())
	assert.Empty(api.Embeds)

	// administrators skip individual permission checks
	api.Perms = discordgo.PermissionAdministrator
	assert.NoError(r.ProcessCommand(ctx, command("!poll lunch?")))
	assert.Len(api.Embeds, 1)
}

func TestRouterMissingArgument(t *testing.T) {
	assert := assert.New(t)
	r, api := routerFixture()

	assert.NoError(r.ProcessCommand(context.Background(), command("!poll")))
	assert.Equal("❌ Please provide all required arguments. Use `!help` for command usage.", api.lastSent())
}

func TestRouterGuildOnly(t *testing.T) {
	assert := assert.New(t)
	r, api := routerFixture()

	evt := command("!info")
	evt.GuildID = ""
	assert.NoError(r.ProcessCommand(context.Background(), evt))
	assert.Equal("❌ This command can only be used in a server.", api.lastSent())
}

func TestRouterCooldown(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	api := newMockAPI()
	r := NewRouter(api, nil, "!", slog.Default())
	r.Register(BasicCommands()...)

	for range 6 {
		assert.NoError(r.ProcessCommand(ctx, command("!hello")))
	}
	assert.Len(api.Sent, r.Burst)

	// a different user has their own budget
	evt := command("!hello")
	evt.AuthorID = testMember
	assert.NoError(r.ProcessCommand(ctx, evt))
	assert.Len(api.Sent, r.Burst+1)
}

func TestRouterGuildBudget(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	r, api := routerFixture()
	r.GuildBudget = 2

	for _, author := range []string{testAuthor, testMember, testBot} {
		evt := command("!hello")
		evt.AuthorID = author
		assert.NoError(r.ProcessCommand(ctx, evt))
	}
	assert.Len(api.Sent, 2)

	// other guilds are unaffected
	evt := command("!hello")
	evt.GuildID = "100000000000000002"
	assert.NoError(r.ProcessCommand(ctx, evt))
	assert.Len(api.Sent, 3)
}

func TestRouterGuildBudgetConcurrent(t *testing.T) {
	assert := assert.New(t)
	r, _ := routerFixture()
	r.GuildBudget = 10
	r.GuildWindow = time.Minute

	var wg sync.WaitGroup
	var allowed atomic.Int64
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if r.allowGuild(testGuild) {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(int64(10), allowed.Load())
	assert.Equal(1, r.guildLimiters.Len())
}

func TestRouterUnexpectedErrors(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	r, api := routerFixture()
	r.Register(
		&Command{Name: "boom", Handler: func(c *Context) error { panic("kaboom") }},
		&Command{Name: "fail", Handler: func(c *Context) error { return errors.New("disk on fire") }},
	)

	err := r.ProcessCommand(ctx, command("!boom"))
	assert.ErrorContains(err, "command panic: kaboom")
	assert.Equal("❌ Error: command panic: kaboom", api.lastSent())

	err = r.ProcessCommand(ctx, command("!fail"))
	assert.ErrorContains(err, "disk on fire")
	assert.Equal("❌ Error: disk on fire", api.lastSent())
}

func TestRouterPlatformRefusal(t *testing.T) {
	assert := assert.New(t)
	r, api := routerFixture()
	api.RoleAddErr = forbidden()

	assert.NoError(r.ProcessCommand(context.Background(), command("!ar <@300000000000000002> Member")))
	assert.Equal("❌ I don't have permission to assign roles.", api.lastSent())
}

func TestRouterDuplicateRegistration(t *testing.T) {
	r, _ := routerFixture()
	assert.Panics(t, func() {
		r.Register(&Command{Name: "other", Aliases: []string{"ping"}})
	})
}

func TestTranslateError(t *testing.T) {
	assert := assert.New(t)
	cmd := &Command{Name: "x"}

	msg, ok := translateError(cmd, "?", ErrMissingArgument)
	assert.True(ok)
	assert.Equal("❌ Please provide all required arguments. Use `?help` for command usage.", msg)

	msg, ok = translateError(cmd, "!", forbidden())
	assert.False(ok, "raw discordgo errors are not classified here")
	assert.Contains(msg, "❌ Error:")

	msg, ok = translateError(cmd, "!", &UserError{Msg: "nope"})
	assert.True(ok)
	assert.Equal("❌ nope", msg)
}

func TestMissingPermissions(t *testing.T) {
	assert := assert.New(t)

	assert.Empty(missingPermissions(permsEmbed, permsBasic))
	assert.Equal([]string{"Manage Roles"}, missingPermissions(permsEmbed, permsManageRoles))
	assert.Equal([]string{"View Channel", "Send Messages", "Embed Links", "Manage Webhooks"}, missingPermissions(0, permsManageWebhooks))
}
