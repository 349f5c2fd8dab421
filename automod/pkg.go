package automod

import (
	"github.com/oxce5/Discord-bot/automod/engine"
)

type Engine = engine.Engine
type DetectionConfig = engine.DetectionConfig
type RuleSet = engine.RuleSet
type Janitor = engine.Janitor
type JanitorStats = engine.JanitorStats
type Client = engine.Client
type CommandProcessor = engine.CommandProcessor

type JoinEvent = engine.JoinEvent
type MessageEvent = engine.MessageEvent
type Channel = engine.Channel
type Embed = engine.Embed
type SendOpts = engine.SendOpts

type JoinContext = engine.JoinContext
type MessageContext = engine.MessageContext

type JoinRuleFunc = engine.JoinRuleFunc
type MessageRuleFunc = engine.MessageRuleFunc

const DefaultJanitorInterval = engine.DefaultJanitorInterval

var (
	ErrPermissionDenied = engine.ErrPermissionDenied
	ErrNotFound         = engine.ErrNotFound
	ErrTransient        = engine.ErrTransient

	DefaultDetectionConfig = engine.DefaultDetectionConfig
	NewJanitor             = engine.NewJanitor
)
