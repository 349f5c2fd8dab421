package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oxce5/Discord-bot/automod/discord"
	"github.com/oxce5/Discord-bot/automod/engine"

	"github.com/RussellLuo/slidingwindow"
	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

type HandlerFunc = func(c *Context) error

type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	// channel permissions the invoking member must hold
	Perms int64
	// command makes no sense outside a guild
	GuildOnly bool
	// completes "I don't have permission to ..." when the bot itself is refused
	Denied string
	// reply for a not-found error from Discord, eg "Webhook not found"
	NotFound string
	Handler  HandlerFunc
}

// Per-invocation state passed to handlers
type Context struct {
	Ctx     context.Context
	Logger  *slog.Logger
	API     API
	Router  *Router
	Command *Command
	Event   engine.MessageEvent
	// Everything after the command name, trimmed
	Args string
}

// Parses prefixed chat commands and dispatches them. Permission checks, cooldowns and error replies happen here for every command.
type Router struct {
	API    API
	Prefix string
	Logger *slog.Logger
	// Returns the bot's own user; nil before the gateway is ready
	Self func() *discordgo.User

	// per-user limit on command invocations
	Rate  rate.Limit
	Burst int
	// per-guild budget shared by all members; zero disables
	GuildBudget int64
	GuildWindow time.Duration

	commands map[string]*Command
	ordered  []*Command

	// guards get-or-create on both limiter tables; authors in one guild run on different scheduler keys
	limiterLk     sync.Mutex
	limiters      *expirable.LRU[string, *rate.Limiter]
	guildLimiters *expirable.LRU[string, *slidingwindow.Limiter]
}

var _ engine.CommandProcessor = (*Router)(nil)

func NewRouter(api API, self func() *discordgo.User, prefix string, logger *slog.Logger) *Router {
	r := &Router{
		API:           api,
		Prefix:        prefix,
		Logger:        logger.With("component", "commands"),
		Self:          self,
		Rate:          rate.Every(time.Second),
		Burst:         3,
		GuildBudget:   30,
		GuildWindow:   time.Minute,
		commands:      make(map[string]*Command),
		limiters:      expirable.NewLRU[string, *rate.Limiter](10_000, nil, 10*time.Minute),
		guildLimiters: expirable.NewLRU[string, *slidingwindow.Limiter](1_000, nil, 10*time.Minute),
	}
	return r
}

// Registers a command under its name and aliases. Panics on duplicate names, which is a programming error.
func (r *Router) Register(cmds ...*Command) {
	for _, cmd := range cmds {
		for _, n := range append([]string{cmd.Name}, cmd.Aliases...) {
			n = strings.ToLower(n)
			if _, exists := r.commands[n]; exists {
				panic(fmt.Sprintf("duplicate command name: %s", n))
			}
			r.commands[n] = cmd
		}
		r.ordered = append(r.ordered, cmd)
	}
}

func (r *Router) Commands() []*Command {
	out := append([]*Command(nil), r.ordered...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Router) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Splits "!name rest of args" in to name and args. ok=false if the content isn't a command invocation.
func (r *Router) parse(content string) (string, string, bool) {
	if r.Prefix == "" || !strings.HasPrefix(content, r.Prefix) {
		return "", "", false
	}
	body := strings.TrimSpace(content[len(r.Prefix):])
	if body == "" {
		return "", "", false
	}
	name, args, _ := strings.Cut(body, " ")
	return name, strings.TrimSpace(args), true
}

func (r *Router) allow(userID string) bool {
	r.limiterLk.Lock()
	lim, ok := r.limiters.Get(userID)
	if !ok {
		lim = rate.NewLimiter(r.Rate, r.Burst)
		r.limiters.Add(userID, lim)
	}
	r.limiterLk.Unlock()
	return lim.Allow()
}

func (r *Router) allowGuild(guildID string) bool {
	if guildID == "" || r.GuildBudget <= 0 {
		return true
	}
	r.limiterLk.Lock()
	lim, ok := r.guildLimiters.Get(guildID)
	if !ok {
		lim, _ = slidingwindow.NewLimiter(r.GuildWindow, r.GuildBudget, func() (slidingwindow.Window, slidingwindow.StopFunc) {
			return slidingwindow.NewLocalWindow()
		})
		r.guildLimiters.Add(guildID, lim)
	}
	r.limiterLk.Unlock()
	return lim.Allow()
}

func (r *Router) ProcessCommand(ctx context.Context, evt engine.MessageEvent) error {
	if evt.AuthorIsBot {
		return nil
	}
	name, args, ok := r.parse(evt.Content)
	if !ok {
		return nil
	}
	cmd, ok := r.Lookup(name)
	if !ok {
		r.Logger.Debug("unknown command", "name", name, "author", evt.AuthorID)
		return nil
	}
	logger := r.Logger.With("command", cmd.Name, "author", evt.AuthorID, "guild", evt.GuildID, "channel", evt.ChannelID)
	if !r.allow(evt.AuthorID) {
		commandCount.WithLabelValues(cmd.Name, "rate-limited").Inc()
		logger.Debug("command rate-limited")
		return nil
	}
	if !r.allowGuild(evt.GuildID) {
		commandCount.WithLabelValues(cmd.Name, "rate-limited").Inc()
		logger.Info("guild command budget exhausted")
		return nil
	}

	c := &Context{
		Ctx:     ctx,
		Logger:  logger,
		API:     r.API,
		Router:  r,
		Command: cmd,
		Event:   evt,
		Args:    args,
	}
	err := r.invoke(c, cmd)
	if err == nil {
		commandCount.WithLabelValues(cmd.Name, "ok").Inc()
		return nil
	}

	msg, expected := translateError(cmd, r.Prefix, err)
	if expected {
		commandCount.WithLabelValues(cmd.Name, "refused").Inc()
		logger.Info("command refused", "err", err)
	} else {
		commandCount.WithLabelValues(cmd.Name, "error").Inc()
		logger.Error("command failed", "err", err)
	}
	if _, replyErr := r.API.ChannelMessageSend(evt.ChannelID, msg, discordgo.WithContext(ctx)); replyErr != nil {
		logger.Warn("failed to send command error reply", "err", discord.TranslateError("sending reply", replyErr))
	}
	if !expected {
		return fmt.Errorf("command %s: %w", cmd.Name, err)
	}
	return nil
}

func (r *Router) invoke(c *Context, cmd *Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("command panic: %v", rec)
		}
	}()
	if cmd.GuildOnly && c.Event.GuildID == "" {
		return userErrorf("This command can only be used in a server.")
	}
	if err := r.requirePermissions(c, cmd.Perms); err != nil {
		return err
	}
	return cmd.Handler(c)
}

func (r *Router) requirePermissions(c *Context, need int64) error {
	if need == 0 || c.Event.GuildID == "" {
		return nil
	}
	have, err := r.API.UserChannelPermissions(c.Event.AuthorID, c.Event.ChannelID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return discord.TranslateError("checking member permissions", err)
	}
	if have&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	if missing := missingPermissions(have, need); len(missing) > 0 {
		return &MissingPermissionsError{Missing: missing}
	}
	return nil
}

func (c *Context) Reply(content string) error {
	_, err := c.API.ChannelMessageSend(c.Event.ChannelID, content, discordgo.WithContext(c.Ctx))
	return discord.TranslateError("sending reply", err)
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	msg, err := c.API.ChannelMessageSendEmbed(c.Event.ChannelID, embed, discordgo.WithContext(c.Ctx))
	if err != nil {
		return nil, discord.TranslateError("sending embed reply", err)
	}
	return msg, nil
}

func (c *Context) Self() *discordgo.User {
	if c.Router.Self == nil {
		return nil
	}
	return c.Router.Self()
}

// Splits args in to the first whitespace-separated token and the remainder
func splitFirst(args string) (string, string) {
	first, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	return first, strings.TrimSpace(rest)
}

// Every built-in command
func DefaultCommands() []*Command {
	var out []*Command
	out = append(out, BasicCommands()...)
	out = append(out, RoleCommands()...)
	out = append(out, WebhookCommands()...)
	return out
}
