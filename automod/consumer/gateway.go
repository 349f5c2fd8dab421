package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oxce5/Discord-bot/automod"

	"github.com/bwmarrin/discordgo"
)

// Gateway intents needed for join and message handling (message content is a privileged intent, and must also be enabled for the application)
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Receives gateway events from a discordgo session and feeds them to the engine.
//
// Joins are keyed by guild and messages by author, so events for a single guild (or author) are processed one at a time in arrival order, while unrelated guilds and authors proceed in parallel.
type GatewayConsumer struct {
	Parallelism int
	Logger      *slog.Logger
	Session     *discordgo.Session
	Engine      *automod.Engine
	// optional; defaults to time.Now
	Clock func() time.Time
}

type gatewayWork struct {
	join    *automod.JoinEvent
	message *automod.MessageEvent
}

func (gc *GatewayConsumer) now() time.Time {
	if gc.Clock != nil {
		return gc.Clock()
	}
	return time.Now()
}

// Opens the gateway connection and processes events until the context is cancelled.
func (gc *GatewayConsumer) Run(ctx context.Context) error {

	if gc.Engine == nil {
		return fmt.Errorf("nil engine")
	}
	if gc.Session == nil {
		return fmt.Errorf("nil discord session")
	}

	par := gc.Parallelism
	if par <= 0 {
		par = 1
	}
	scheduler := NewScheduler(par, "gateway", gc.handleWork)
	gc.Logger.Info("gateway scheduler configured", "scheduler", "keyed", "parallelism", par)

	// handlers run on the gateway goroutine one at a time, so AddWork sees events in arrival order
	gc.Session.SyncEvents = true
	removers := []func(){
		gc.Session.AddHandler(gc.handleReady),
		gc.Session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
			gc.HandleMemberAdd(ctx, scheduler, s, m)
		}),
		gc.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
			gc.HandleMessageCreate(ctx, scheduler, s, m)
		}),
	}
	// handlers go first, so nothing new reaches the scheduler while it shuts down
	stop := func() {
		for _, remove := range removers {
			remove()
		}
		scheduler.Shutdown()
	}

	if err := gc.Session.Open(); err != nil {
		stop()
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	gc.Logger.Info("connected to discord gateway")

	<-ctx.Done()
	gc.Logger.Info("closing discord gateway")
	stop()
	err := gc.Session.Close()
	if err != nil {
		return fmt.Errorf("closing discord gateway: %w", err)
	}
	return nil
}

func (gc *GatewayConsumer) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	gatewayEventsReceived.WithLabelValues("ready").Inc()
	if r.User == nil {
		gc.Logger.Warn("ready event without bot user")
		return
	}
	gc.Logger.Info("bot ready", "user", r.User.Username, "id", r.User.ID, "guilds", len(r.Guilds))
}

func (gc *GatewayConsumer) HandleMemberAdd(ctx context.Context, sched *Scheduler[gatewayWork], s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	gatewayEventsReceived.WithLabelValues("member-add").Inc()
	observed := gc.now()
	if m.Member == nil {
		return
	}
	evt, err := JoinEventFromMember(m.Member, guildName(s, m.GuildID), observed)
	if err != nil {
		gc.Logger.Error("bad member join event", "guild", m.GuildID, "err", err)
		return
	}
	if err := sched.AddWork(ctx, "join/"+evt.GuildID, gatewayWork{join: &evt}); err != nil {
		gc.Logger.Warn("failed to queue join", "guild", evt.GuildID, "member", evt.MemberID, "err", err)
	}
}

func (gc *GatewayConsumer) HandleMessageCreate(ctx context.Context, sched *Scheduler[gatewayWork], s *discordgo.Session, m *discordgo.MessageCreate) {
	gatewayEventsReceived.WithLabelValues("message-create").Inc()
	observed := gc.now()
	if m.Message == nil || m.Author == nil {
		return
	}
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	evt := MessageEventFromMessage(m.Message, selfID, observed)
	if evt.FromSelf {
		return
	}
	if err := sched.AddWork(ctx, "message/"+evt.AuthorID, gatewayWork{message: &evt}); err != nil {
		gc.Logger.Warn("failed to queue message", "author", evt.AuthorID, "message", evt.MessageID, "err", err)
	}
}

func (gc *GatewayConsumer) handleWork(ctx context.Context, w gatewayWork) error {
	switch {
	case w.join != nil:
		return gc.Engine.ProcessJoin(ctx, *w.join)
	case w.message != nil:
		return gc.Engine.ProcessMessage(ctx, *w.message)
	}
	return nil
}

// Guild name from the gateway state cache. Never does a REST call, since this runs on the gateway goroutine.
func guildName(s *discordgo.Session, guildID string) string {
	if s != nil && s.State != nil {
		if g, err := s.State.Guild(guildID); err == nil && g.Name != "" {
			return g.Name
		}
	}
	return "the server"
}

func JoinEventFromMember(m *discordgo.Member, guildName string, observedAt time.Time) (automod.JoinEvent, error) {
	if m.User == nil {
		return automod.JoinEvent{}, fmt.Errorf("member without user")
	}
	created, err := discordgo.SnowflakeTimestamp(m.User.ID)
	if err != nil {
		return automod.JoinEvent{}, fmt.Errorf("parsing user snowflake: %w", err)
	}
	return automod.JoinEvent{
		GuildID:          m.GuildID,
		GuildName:        guildName,
		MemberID:         m.User.ID,
		AccountCreatedAt: created,
		ObservedAt:       observedAt,
	}, nil
}

func MessageEventFromMessage(m *discordgo.Message, selfID string, observedAt time.Time) automod.MessageEvent {
	evt := automod.MessageEvent{
		MessageID:  m.ID,
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		Content:    m.Content,
		ObservedAt: observedAt,
	}
	if m.Author != nil {
		evt.AuthorID = m.Author.ID
		evt.AuthorName = m.Author.Username
		evt.AuthorAvatarURL = m.Author.AvatarURL("")
		evt.AuthorIsBot = m.Author.Bot
		evt.FromSelf = selfID != "" && m.Author.ID == selfID
	}
	return evt
}
