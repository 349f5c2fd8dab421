package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oxce5/Discord-bot/automod"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	return newApp().Run(args)
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "modbot",
		Usage:   "discord moderation daemon (raid and spam protection)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"MODBOT_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: text or json",
			Value:   "text",
			EnvVars: []string{"MODBOT_LOG_FORMAT", "LOG_FORMAT"},
		},
	}
	app.Flags = append(app.Flags, detectionFlags...)

	app.Commands = []*cli.Command{
		runCmd,
		configCmd,
	}

	return app
}

// Flags which populate engine.DetectionConfig. Defaults come from automod.DefaultDetectionConfig.
var detectionFlags = func() []cli.Flag {
	def := automod.DefaultDetectionConfig()
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "max-joins-per-minute",
			Usage:   "joins per guild within the join window before a raid is declared",
			Value:   def.MaxJoinsPerMinute,
			EnvVars: []string{"MAX_JOINS_PER_MINUTE"},
		},
		&cli.IntFlag{
			Name:    "max-messages-per-second",
			Usage:   "messages per author within the spam window before spam is declared",
			Value:   def.MaxMessagesPerSecond,
			EnvVars: []string{"MAX_MESSAGES_PER_SECOND"},
		},
		&cli.IntFlag{
			Name:    "account-age-threshold-hours",
			Usage:   "accounts younger than this are treated as suspicious on join",
			Value:   def.AccountAgeThresholdHours,
			EnvVars: []string{"ACCOUNT_AGE_THRESHOLD_HOURS"},
		},
		&cli.IntFlag{
			Name:    "spam-window-seconds",
			Value:   def.SpamWindowSeconds,
			EnvVars: []string{"SPAM_WINDOW_SECONDS"},
		},
		&cli.IntFlag{
			Name:    "join-window-minutes",
			Value:   def.JoinWindowMinutes,
			EnvVars: []string{"JOIN_WINDOW_MINUTES"},
		},
		&cli.IntFlag{
			Name:    "janitor-join-retention-minutes",
			Value:   def.JanitorJoinRetentionMinutes,
			EnvVars: []string{"JANITOR_JOIN_RETENTION_MINUTES"},
		},
		&cli.IntFlag{
			Name:    "janitor-message-retention-seconds",
			Value:   def.JanitorMessageRetentionSeconds,
			EnvVars: []string{"JANITOR_MESSAGE_RETENTION_SECONDS"},
		},
		&cli.IntFlag{
			Name:    "timeout-duration-minutes",
			Usage:   "how long repeat spammers are timed out for",
			Value:   def.TimeoutDurationMinutes,
			EnvVars: []string{"TIMEOUT_DURATION_MINUTES"},
		},
		&cli.IntFlag{
			Name:    "spam-escalation-multiplier",
			Usage:   "timeout once an author's recount exceeds this multiple of max-messages-per-second",
			Value:   def.SpamEscalationMultiplier,
			EnvVars: []string{"SPAM_ESCALATION_MULTIPLIER"},
		},
	}
}()

func detectionConfig(cctx *cli.Context) (automod.DetectionConfig, error) {
	cfg := automod.DetectionConfig{
		MaxJoinsPerMinute:              cctx.Int("max-joins-per-minute"),
		MaxMessagesPerSecond:           cctx.Int("max-messages-per-second"),
		AccountAgeThresholdHours:       cctx.Int("account-age-threshold-hours"),
		SpamWindowSeconds:              cctx.Int("spam-window-seconds"),
		JoinWindowMinutes:              cctx.Int("join-window-minutes"),
		JanitorJoinRetentionMinutes:    cctx.Int("janitor-join-retention-minutes"),
		JanitorMessageRetentionSeconds: cctx.Int("janitor-message-retention-seconds"),
		TimeoutDurationMinutes:         cctx.Int("timeout-duration-minutes"),
		SpamEscalationMultiplier:       cctx.Int("spam-escalation-multiplier"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func configLogger(cctx *cli.Context, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn", "warning":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unknown log level: %s", cctx.String("log-level"))
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cctx.String("log-format")) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", cctx.String("log-format"))
	}
	return slog.New(handler), nil
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "connect to the gateway and moderate",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "discord-token",
			Usage:    "bot token (without the 'Bot ' prefix)",
			Required: true,
			EnvVars:  []string{"DISCORD_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "welcome-channel",
			Usage:   "name of the text channel new members are greeted in",
			Value:   "general",
			EnvVars: []string{"WELCOME_CHANNEL_NAME"},
		},
		&cli.StringSliceFlag{
			Name:    "banned-words",
			Usage:   "words the censor removes messages for (comma separated)",
			Value:   cli.NewStringSlice("shit", "damn", "badword"),
			EnvVars: []string{"BANNED_WORDS"},
		},
		&cli.StringFlag{
			Name:    "banned-words-file",
			Usage:   "optional JSON file of named sets; a \"banned-words\" set replaces the flag value",
			EnvVars: []string{"BANNED_WORDS_FILE"},
		},
		&cli.StringFlag{
			Name:    "command-prefix",
			Value:   "!",
			EnvVars: []string{"COMMAND_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis server URL for caching platform lookups (in-memory cache if not set)",
			EnvVars: []string{"MODBOT_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics and health checks",
			Value:   ":3998",
			EnvVars: []string{"MODBOT_METRICS_LISTEN"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "number of events processed in parallel (per-guild and per-author order is preserved)",
			Value:   32,
			EnvVars: []string{"MODBOT_WORKERS"},
		},
		&cli.DurationFlag{
			Name:    "janitor-interval",
			Usage:   "how often stale rate window entries are evicted",
			Value:   automod.DefaultJanitorInterval,
			EnvVars: []string{"JANITOR_INTERVAL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger, err := configLogger(cctx, os.Stdout)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		detection, err := detectionConfig(cctx)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownOTEL, err := configOTEL(ctx, "modbot")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		srv, err := NewServer(Config{
			DiscordToken:    cctx.String("discord-token"),
			Detection:       detection,
			WelcomeChannel:  cctx.String("welcome-channel"),
			BannedWords:     cctx.StringSlice("banned-words"),
			BannedWordsFile: cctx.String("banned-words-file"),
			CommandPrefix:   cctx.String("command-prefix"),
			RedisURL:        cctx.String("redis-url"),
			Workers:         cctx.Int("workers"),
			JanitorInterval: cctx.Duration("janitor-interval"),
			MetricsListen:   cctx.String("metrics-listen"),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run modbot service: %w", err)
		}
		return nil
	},
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "print the effective detection configuration as JSON and exit",
	Action: func(cctx *cli.Context) error {
		detection, err := detectionConfig(cctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cctx.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(detection)
	},
}
