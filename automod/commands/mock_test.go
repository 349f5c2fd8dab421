package commands

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/oxce5/Discord-bot/automod/engine"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const (
	testGuild   = "100000000000000001"
	testChannel = "200000000000000001"
	testAuthor  = "300000000000000001"
	testMember  = "300000000000000002"
	testBot     = "300000000000000009"
)

type roleCall struct {
	UserID, RoleID string
}

// In-memory stand-in for the parts of the Discord API commands touch
type mockAPI struct {
	mu sync.Mutex

	Perms    int64
	PermsErr error

	GuildInfo *discordgo.Guild
	Roles     []*discordgo.Role
	Members   map[string]*discordgo.Member
	Hooks     map[string]*discordgo.Webhook

	Sent        []string
	Embeds      []*discordgo.MessageEmbed
	Reactions   []string
	RoleAdds    []roleCall
	RoleRemoves []roleCall
	CreatedRole []string
	DeletedRole []string
	DeletedHook []string
	Executed    []*discordgo.WebhookParams

	SendErr    error
	RoleAddErr error
	nextID     int
}

var _ API = (*mockAPI)(nil)

func newMockAPI() *mockAPI {
	return &mockAPI{
		Perms:     discordgo.PermissionAll,
		GuildInfo: &discordgo.Guild{ID: testGuild, Name: "Test Guild", MemberCount: 42},
		Roles: []*discordgo.Role{
			{ID: testGuild, Name: "@everyone", Position: 0},
			{ID: "400000000000000001", Name: "Member", Position: 1},
			{ID: "400000000000000002", Name: "Bot", Position: 5},
			{ID: "400000000000000003", Name: "Admin", Position: 10},
		},
		Members: map[string]*discordgo.Member{
			testBot:    {User: &discordgo.User{ID: testBot, Username: "modbot"}, Roles: []string{"400000000000000002"}},
			testMember: {User: &discordgo.User{ID: testMember, Username: "target"}, Roles: []string{}},
		},
		Hooks:  map[string]*discordgo.Webhook{},
		nextID: 500000000000000000,
	}
}

func notFound() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownWebhook, Message: "Unknown Webhook"},
	}
}

func forbidden() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}
}

func (m *mockAPI) newID() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

func (m *mockAPI) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	m.Sent = append(m.Sent, content)
	return &discordgo.Message{ID: m.newID(), ChannelID: channelID, Content: content}, nil
}

func (m *mockAPI) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return nil, m.SendErr
	}
	m.Embeds = append(m.Embeds, embed)
	return &discordgo.Message{ID: m.newID(), ChannelID: channelID, Embeds: []*discordgo.MessageEmbed{embed}}, nil
}

func (m *mockAPI) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reactions = append(m.Reactions, emojiID)
	return nil
}

func (m *mockAPI) HeartbeatLatency() time.Duration {
	return 42 * time.Millisecond
}

func (m *mockAPI) Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error) {
	return m.GuildInfo, nil
}

func (m *mockAPI) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*discordgo.Role(nil), m.Roles...), nil
}

func (m *mockAPI) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.Members[userID]
	if !ok {
		return nil, &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusNotFound},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMember},
		}
	}
	return mem, nil
}

func (m *mockAPI) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RoleAddErr != nil {
		return m.RoleAddErr
	}
	m.RoleAdds = append(m.RoleAdds, roleCall{userID, roleID})
	return nil
}

func (m *mockAPI) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RoleRemoves = append(m.RoleRemoves, roleCall{userID, roleID})
	return nil
}

func (m *mockAPI) GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role := &discordgo.Role{ID: m.newID(), Name: data.Name, Position: 1}
	m.Roles = append(m.Roles, role)
	m.CreatedRole = append(m.CreatedRole, data.Name)
	return role, nil
}

func (m *mockAPI) GuildRoleDelete(guildID, roleID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedRole = append(m.DeletedRole, roleID)
	return nil
}

func (m *mockAPI) UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error) {
	return m.Perms, m.PermsErr
}

func (m *mockAPI) WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hook := &discordgo.Webhook{ID: m.newID(), ChannelID: channelID, GuildID: testGuild, Name: name, Token: "tok"}
	m.Hooks[hook.ID] = hook
	return hook, nil
}

func (m *mockAPI) ChannelWebhooks(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*discordgo.Webhook
	for _, h := range m.sortedHooks() {
		if h.ChannelID == channelID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockAPI) GuildWebhooks(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedHooks(), nil
}

func (m *mockAPI) sortedHooks() []*discordgo.Webhook {
	out := make([]*discordgo.Webhook, 0, len(m.Hooks))
	for id := range m.Hooks {
		out = append(out, m.Hooks[id])
	}
	// IDs are fixed-width so lexical order is creation order
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockAPI) Webhook(webhookID string, options ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hook, ok := m.Hooks[webhookID]
	if !ok {
		return nil, notFound()
	}
	return hook, nil
}

func (m *mockAPI) WebhookDelete(webhookID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Hooks[webhookID]; !ok {
		return notFound()
	}
	delete(m.Hooks, webhookID)
	m.DeletedHook = append(m.DeletedHook, webhookID)
	return nil
}

func (m *mockAPI) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, data)
	return nil, nil
}

func (m *mockAPI) lastSent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1]
}

func (m *mockAPI) lastEmbed() *discordgo.MessageEmbed {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Embeds) == 0 {
		return nil
	}
	return m.Embeds[len(m.Embeds)-1]
}

func routerFixture() (*Router, *mockAPI) {
	api := newMockAPI()
	self := &discordgo.User{ID: testBot, Username: "modbot"}
	r := NewRouter(api, func() *discordgo.User { return self }, "!", slog.Default())
	r.Rate = rate.Inf
	r.GuildBudget = 0
	r.Register(DefaultCommands()...)
	return r, api
}

func command(content string) engine.MessageEvent {
	return engine.MessageEvent{
		MessageID:       "600000000000000001",
		GuildID:         testGuild,
		ChannelID:       testChannel,
		AuthorID:        testAuthor,
		AuthorName:      "alice",
		AuthorAvatarURL: "https://cdn.example/alice.png",
		Content:         content,
		ObservedAt:      engine.FixtureNow,
	}
}
