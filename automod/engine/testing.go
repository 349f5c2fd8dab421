package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oxce5/Discord-bot/automod/countstore"
	"github.com/oxce5/Discord-bot/automod/flagstore"
	"github.com/oxce5/Discord-bot/automod/setstore"
)

type KickCall struct {
	GuildID  string
	MemberID string
	Reason   string
}

type TimeoutCall struct {
	GuildID  string
	MemberID string
	Until    time.Time
	Reason   string
}

type DeleteCall struct {
	ChannelID string
	MessageID string
}

type SentMessage struct {
	ChannelID string
	Content   string
	Opts      SendOpts
	Embed     *Embed
}

// Recording implementation of Client, for tests. Intentionally exported, for use in other packages.
//
// Error fields, if set, are returned from the matching method (the call is still recorded). Channels are returned per guild; a channel is sendable if listed in Sendable.
type MockClient struct {
	mu sync.Mutex

	Kicks    []KickCall
	Timeouts []TimeoutCall
	Deletes  []DeleteCall
	Sent     []SentMessage
	// keyed by user ID
	DMs map[string][]string

	Channels map[string][]Channel
	Sendable map[string]bool

	KickErr     error
	TimeoutErr  error
	DeleteErr   error
	SendErr     error
	DMErr       error
	ChannelsErr error

	nextID int
}

var _ Client = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{
		DMs:      make(map[string][]string),
		Channels: make(map[string][]Channel),
		Sendable: make(map[string]bool),
	}
}

func (m *MockClient) newID() string {
	m.nextID++
	return fmt.Sprintf("msg%d", m.nextID)
}

func (m *MockClient) Kick(ctx context.Context, guildID, memberID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Kicks = append(m.Kicks, KickCall{GuildID: guildID, MemberID: memberID, Reason: reason})
	return m.KickErr
}

func (m *MockClient) Timeout(ctx context.Context, guildID, memberID string, until time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timeouts = append(m.Timeouts, TimeoutCall{GuildID: guildID, MemberID: memberID, Until: until, Reason: reason})
	return m.TimeoutErr
}

func (m *MockClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, DeleteCall{ChannelID: channelID, MessageID: messageID})
	return m.DeleteErr
}

func (m *MockClient) SendMessage(ctx context.Context, channelID, content string, opts SendOpts) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChannelID: channelID, Content: content, Opts: opts})
	if m.SendErr != nil {
		return "", m.SendErr
	}
	return m.newID(), nil
}

func (m *MockClient) SendEmbed(ctx context.Context, channelID string, embed Embed) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChannelID: channelID, Embed: &embed})
	if m.SendErr != nil {
		return "", m.SendErr
	}
	return m.newID(), nil
}

func (m *MockClient) SendDirectMessage(ctx context.Context, userID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DMs[userID] = append(m.DMs[userID], content)
	if m.DMErr != nil {
		return "", m.DMErr
	}
	return m.newID(), nil
}

func (m *MockClient) ListTextChannels(ctx context.Context, guildID string) ([]Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChannelsErr != nil {
		return nil, m.ChannelsErr
	}
	return append([]Channel(nil), m.Channels[guildID]...), nil
}

func (m *MockClient) HasSendPermission(ctx context.Context, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sendable[channelID], nil
}

// Snapshot helpers, safe to call while the engine is running

func (m *MockClient) KickCalls() []KickCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]KickCall(nil), m.Kicks...)
}

func (m *MockClient) TimeoutCalls() []TimeoutCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TimeoutCall(nil), m.Timeouts...)
}

func (m *MockClient) DeleteCalls() []DeleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DeleteCall(nil), m.Deletes...)
}

func (m *MockClient) SentMessages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}

// Fixed clock for tests
var FixtureNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Engine with in-memory state, default detection config, no rules, and a MockClient. The clock is pinned to FixtureNow.
func EngineTestFixture() (*Engine, *MockClient) {
	client := NewMockClient()
	sets := setstore.NewMemSetStore()
	sets.Add("banned-words", "shit", "damn", "badword")
	eng := &Engine{
		Logger:     slog.Default(),
		Config:     DefaultDetectionConfig(),
		Joins:      countstore.NewMemRateWindow(),
		Messages:   countstore.NewMemRateWindow(),
		Suspicious: flagstore.NewMemFlagStore(),
		Sets:       sets,
		Client:     client,
		Clock:      func() time.Time { return FixtureNow },
	}
	return eng, client
}
