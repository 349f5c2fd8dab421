package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/oxce5/Discord-bot/automod"
	"github.com/oxce5/Discord-bot/automod/cachestore"
	"github.com/oxce5/Discord-bot/automod/commands"
	"github.com/oxce5/Discord-bot/automod/consumer"
	"github.com/oxce5/Discord-bot/automod/countstore"
	"github.com/oxce5/Discord-bot/automod/discord"
	"github.com/oxce5/Discord-bot/automod/flagstore"
	"github.com/oxce5/Discord-bot/automod/rules"
	"github.com/oxce5/Discord-bot/automod/setstore"

	"github.com/bwmarrin/discordgo"
	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"golang.org/x/sync/errgroup"
)

// platform lookups (eg, guild channel lists) are short-lived in the cache
const lookupCacheTTL = 30 * time.Second

type Server struct {
	logger          *slog.Logger
	session         *discordgo.Session
	engine          *automod.Engine
	client          *discord.Client
	janitor         *automod.Janitor
	janitorInterval time.Duration
	metricsListen   string
	workers         int
}

type Config struct {
	DiscordToken    string
	Detection       automod.DetectionConfig
	WelcomeChannel  string
	BannedWords     []string
	BannedWordsFile string
	CommandPrefix   string
	RedisURL        string
	Workers         int
	JanitorInterval time.Duration
	MetricsListen   string
	Logger          *slog.Logger
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if config.DiscordToken == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if err := config.Detection.Validate(); err != nil {
		return nil, err
	}
	if config.JanitorInterval <= 0 {
		config.JanitorInterval = automod.DefaultJanitorInterval
	}

	sess, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	sess.Identify.Intents = consumer.Intents
	sess.UserAgent = fmt.Sprintf("DiscordBot (https://github.com/oxce5/Discord-bot, %s)", versioninfo.Short())
	sess.ShouldReconnectOnError = true

	sets := setstore.NewMemSetStore()
	sets.Add(rules.BannedWordsSet, config.BannedWords...)
	if config.BannedWordsFile != "" {
		if err := sets.LoadFromFileJSON(config.BannedWordsFile); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %v", err)
		} else {
			logger.Info("loaded set config from JSON", "path", config.BannedWordsFile)
		}
	}

	var cache cachestore.CacheStore
	if config.RedisURL != "" {
		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, lookupCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh
	} else {
		cache = cachestore.NewMemCacheStore(5_000, lookupCacheTTL)
	}

	client := discord.NewClient(sess, cache, logger)

	router := commands.NewRouter(sess, selfUser(sess), config.CommandPrefix, logger)
	router.Register(commands.DefaultCommands()...)

	engine := automod.Engine{
		Logger:     logger,
		Config:     config.Detection,
		Joins:      countstore.NewMemRateWindow(),
		Messages:   countstore.NewMemRateWindow(),
		Suspicious: flagstore.NewMemFlagStore(),
		Sets:       sets,
		Client:     client,
		Rules:      rules.DefaultRules(config.WelcomeChannel),
		Commands:   router,
	}

	s := &Server{
		logger:          logger,
		session:         sess,
		engine:          &engine,
		client:          client,
		janitor:         automod.NewJanitor(&engine),
		janitorInterval: config.JanitorInterval,
		metricsListen:   config.MetricsListen,
		workers:         config.Workers,
	}
	return s, nil
}

// The bot's own user from gateway state; nil until the Ready event has been seen.
func selfUser(sess *discordgo.Session) func() *discordgo.User {
	return func() *discordgo.User {
		if sess.State == nil {
			return nil
		}
		sess.State.RLock()
		defer sess.State.RUnlock()
		return sess.State.User
	}
}

// Runs the gateway consumer, janitor, and HTTP endpoint until the context is cancelled or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	defer s.client.Close()

	gc := consumer.GatewayConsumer{
		Parallelism: s.workers,
		Logger:      s.logger,
		Session:     s.session,
		Engine:      s.engine,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gc.Run(ctx)
	})
	g.Go(func() error {
		return s.RunJanitor(ctx)
	})
	if s.metricsListen != "" {
		g.Go(func() error {
			return s.RunHTTP(ctx, s.metricsListen)
		})
	}
	return g.Wait()
}

// Sweeps stale rate window entries every janitor interval. Expects to be run in a goroutine.
func (s *Server) RunJanitor(ctx context.Context) error {
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			stats := s.janitor.Sweep(now)
			s.logger.Debug("janitor sweep",
				"join_keys_evicted", stats.JoinKeysEvicted,
				"message_keys_evicted", stats.MessageKeysEvicted,
				"join_keys", stats.JoinKeys,
				"message_keys", stats.MessageKeys,
			)
		}
	}
}

type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (s *Server) HandleHealthCheck(c echo.Context) error {
	if !s.session.DataReady {
		return c.JSON(http.StatusServiceUnavailable, HealthStatus{Status: "error", Message: "gateway not connected"})
	}
	return c.JSON(http.StatusOK, HealthStatus{Status: "ok"})
}

// Serves /metrics and /_health until the context is cancelled.
func (s *Server) RunHTTP(ctx context.Context, listen string) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.NewWithConfig(s.logger, slogecho.Config{
		DefaultLevel:     slog.LevelDebug,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}))
	e.Use(echoprometheus.NewMiddleware("modbot"))

	e.GET("/_health", s.HandleHealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shutdown metrics endpoint", "err", err)
		}
	}()
	s.logger.Info("starting metrics endpoint", "listen", listen)
	if err := e.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics endpoint: %w", err)
	}
	return nil
}
