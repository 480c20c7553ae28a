package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/smallmud/smallmud/pkg/boltstore"
	"github.com/smallmud/smallmud/pkg/flatfile"
	"github.com/smallmud/smallmud/pkg/mud"
	"github.com/smallmud/smallmud/pkg/player"
	"github.com/smallmud/smallmud/pkg/world"
)

// Exit statuses. Communications failures get their own status so
// supervisors can tell a bad port from bad data.
const (
	exitUsage = 1
	exitComms = 2
	exitData  = 3
)

// envDefault returns the environment variable value if set, otherwise
// the fallback.
func envDefault(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

func main() {
	confFile := flag.String("conf", envDefault("MUD_CONF", ""), "Path to YAML config file (env: MUD_CONF)")
	listen := flag.String("listen", "", "Listen address, overrides config (env: MUD_LISTEN)")
	metricsAddr := flag.String("metrics", "", "Prometheus metrics address, overrides config (env: MUD_METRICS)")
	boltPath := flag.String("bolt", envDefault("MUD_BOLT", ""), "Path to bbolt player database, overrides config (env: MUD_BOLT)")
	playersDir := flag.String("players", "", "Player flatfile directory, overrides config (env: MUD_PLAYERS)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := mud.DefaultConfig()
	if *confFile != "" {
		loaded, err := mud.LoadConfig(*confFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "smallmud: %v\n", err)
			os.Exit(exitUsage)
		}
		cfg = loaded
	}
	if *listen == "" {
		*listen = os.Getenv("MUD_LISTEN")
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *metricsAddr == "" {
		*metricsAddr = os.Getenv("MUD_METRICS")
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *boltPath != "" {
		cfg.Data.BoltPath = *boltPath
	}
	if *playersDir == "" {
		*playersDir = os.Getenv("MUD_PLAYERS")
	}
	if *playersDir != "" {
		cfg.Data.PlayersDir = *playersDir
	}

	w, err := flatfile.LoadRooms(cfg.Data.RoomsFile, cfg.DirectionSet())
	if err != nil {
		logger.Error("loading rooms", "path", cfg.Data.RoomsFile, "error", err)
		os.Exit(exitData)
	}
	if w.Len() == 0 {
		logger.Error("no rooms loaded", "path", cfg.Data.RoomsFile)
		os.Exit(exitData)
	}
	logger.Info("rooms loaded", "count", w.Len(), "path", cfg.Data.RoomsFile)

	messages, err := flatfile.LoadMessages(cfg.Data.MessagesFile)
	if err != nil {
		logger.Error("loading messages", "path", cfg.Data.MessagesFile, "error", err)
		os.Exit(exitData)
	}
	logger.Info("messages loaded", "count", len(messages))

	var store player.Store
	if cfg.Data.BoltPath != "" {
		bs, err := boltstore.Open(cfg.Data.BoltPath)
		if err != nil {
			logger.Error("opening player database", "path", cfg.Data.BoltPath, "error", err)
			os.Exit(exitData)
		}
		defer bs.Close()
		store = bs
		logger.Info("player store: bbolt", "path", cfg.Data.BoltPath)
	} else {
		store = flatfile.NewDir(cfg.Data.PlayersDir)
		logger.Info("player store: flatfile", "dir", cfg.Data.PlayersDir)
	}

	srv, err := mud.NewServer(&cfg, w, messages, store, logger)
	if err != nil {
		logger.Error("initializing comms", "error", err)
		os.Exit(exitComms)
	}

	if cfg.Data.ScrollbackPath != "" {
		sb, err := mud.OpenScrollback(cfg.Data.ScrollbackPath, logger)
		if err != nil {
			logger.Error("opening scrollback database", "path", cfg.Data.ScrollbackPath, "error", err)
			os.Exit(exitData)
		}
		defer sb.Close()
		srv.Bus().Subscribe(sb)
		sb.StartRetention(time.Duration(cfg.Data.ScrollbackRetention))
		logger.Info("scrollback enabled", "path", sb.Path())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, mud.RunOptions{
		ReloadMessages: func() (world.Messages, error) {
			return flatfile.LoadMessages(cfg.Data.MessagesFile)
		},
	}); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(exitComms)
	}
	logger.Info("goodbye")
}
