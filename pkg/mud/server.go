package mud

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/smallmud/smallmud/pkg/events"
	"github.com/smallmud/smallmud/pkg/player"
	"github.com/smallmud/smallmud/pkg/textutil"
	"github.com/smallmud/smallmud/pkg/world"
)

// maxInputLine bounds one line of client input. A line that exceeds it
// ends the session.
const maxInputLine = 1024

type inputKind int

const (
	inputConnect inputKind = iota // new session, s set
	inputLine                     // one line of text, s and line set
	inputGone                     // peer disconnected, s set
)

// sessionInput is one unit of work for the game loop. Reader and
// accept goroutines produce these; the game loop is the only consumer
// and the only goroutine that touches game state.
type sessionInput struct {
	kind inputKind
	s    *Session
	line string
}

// Server is the game. All game state (registry, world, messages) is
// owned by the single game-loop goroutine inside Run; everything else
// communicates with it through the input channel.
type Server struct {
	cfg    *Config
	logger *slog.Logger

	world    *world.World
	messages world.Messages
	store    player.Store
	reg      *Registry
	bus      *events.Bus

	directions   textutil.FoldSet
	badNames     textutil.FoldSet
	blockedHosts map[string]struct{}

	commands map[string]CommandHandler
	states   map[Stage]stateHandler

	listener net.Listener
	inputCh  chan sessionInput
	reloadCh chan struct{}

	stopping bool
	started  time.Time
}

// NewServer wires up a server and binds its listen socket. A bind
// failure is returned to the caller so startup can fail distinctly.
func NewServer(cfg *Config, w *world.World, messages world.Messages, store player.Store, logger *slog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}

	srv := &Server{
		cfg:          cfg,
		logger:       logger,
		world:        w,
		messages:     messages,
		store:        store,
		reg:          NewRegistry(),
		bus:          events.NewBus(),
		directions:   cfg.DirectionSet(),
		badNames:     cfg.BadNameSet(),
		blockedHosts: cfg.BlockedHostSet(),
		commands:     initCommands(),
		states:       initStates(),
		listener:     listener,
		inputCh:      make(chan sessionInput, 64),
		reloadCh:     make(chan struct{}, 1),
		started:      time.Now(),
	}
	return srv, nil
}

// Bus returns the server's event bus for subscribers such as the
// scrollback recorder.
func (srv *Server) Bus() *events.Bus { return srv.bus }

// Addr returns the bound listen address.
func (srv *Server) Addr() net.Addr { return srv.listener.Addr() }

// emit publishes a game event to the bus.
func (srv *Server) emit(ev events.Event) {
	srv.bus.Emit(ev)
}

// savePlayer persists a session's record. Failures are logged, never
// shown to the player mid-game.
func (srv *Server) savePlayer(s *Session) {
	if s.Name == "" {
		return
	}
	if err := srv.store.Save(s.Record()); err != nil {
		srv.logger.Error("saving player", "name", s.Name, "error", err)
	}
}

// doCommand runs a command line for a session as if they had typed it,
// showing any error the way typed input would.
func (srv *Server) doCommand(s *Session, line string) {
	if err := dispatchCommand(srv, s, line); err != nil {
		s.Append(err.Error() + "\n")
	}
}

// processInput handles one line from a session: the current stage
// handler interprets it, errors become client text, and the prompt is
// re-issued. Lines pipelined behind a quit (or arriving after the
// session died) are dropped; a closing session must not act again.
func (srv *Server) processInput(s *Session, line string) {
	if s.Closing || !s.Connected() {
		return
	}
	linesReceived.Inc()

	handler, ok := srv.states[s.Stage]
	if !ok {
		srv.logger.Error("session in unknown stage", "stage", int(s.Stage), "addr", s.Addr())
		s.Closing = true
		return
	}
	if err := handler(srv, s, newArgs(line)); err != nil {
		s.Append(err.Error() + "\n")
	}
	s.Append(s.Prompt)
}

// acceptLoop hands accepted connections to the game loop. Blocked
// source addresses are refused before a session exists.
func (srv *Server) acceptLoop() {
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			srv.logger.Error("accept failed", "error", err)
			continue
		}

		host := ""
		if ra := conn.RemoteAddr(); ra != nil {
			host, _, _ = net.SplitHostPort(ra.String())
		}
		if _, blocked := srv.blockedHosts[host]; blocked {
			connectionsBlocked.Inc()
			srv.logger.Info("refused blocked address", "addr", host)
			fmt.Fprintf(conn, "You are not permitted to connect.\n")
			conn.Close()
			continue
		}

		connectionsTotal.Inc()
		s := NewSession(conn, srv.cfg)
		go s.writeLoop(srv.logger)

		srv.inputCh <- sessionInput{kind: inputConnect, s: s}
		go srv.readLoop(s, conn)
	}
}

// readLoop feeds one session's lines to the game loop, then reports
// the disconnect.
func (srv *Server) readLoop(s *Session, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, maxInputLine), maxInputLine)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		srv.inputCh <- sessionInput{kind: inputLine, s: s, line: line}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		srv.logger.Info("session read ended", "addr", s.Addr(), "error", err)
	}
	srv.inputCh <- sessionInput{kind: inputGone, s: s}
}

// handleConnect registers a fresh session and greets it.
func (srv *Server) handleConnect(s *Session) {
	srv.reg.Add(s)
	srv.logger.Info("new connection", "addr", s.Addr(), "sessions", srv.reg.Count())
	s.Append(srv.messages.Get("welcome"))
	s.Append(s.Prompt)
}

// handleGone marks a session dead and, if it was playing, makes it
// leave the game cleanly. Output to the dead session is discarded, so
// the synthesized quit only informs everyone else.
func (srv *Server) handleGone(s *Session) {
	s.MarkDead()
	if s.Stage == StagePlaying && !s.Closing {
		srv.doCommand(s, "quit")
	}
	s.Closing = true
}

// reloadMessages re-reads the messages file after the watcher saw it
// change. The old set stays if the reload fails.
func (srv *Server) reloadMessages(load func() (world.Messages, error)) {
	messages, err := load()
	if err != nil {
		srv.logger.Error("reloading messages", "error", err)
		return
	}
	srv.messages = messages
	srv.logger.Info("messages reloaded", "count", len(messages))
}

// RunOptions carries the pieces Run needs beyond the server itself.
type RunOptions struct {
	// ReloadMessages re-reads the message file; nil disables the
	// file watcher.
	ReloadMessages func() (world.Messages, error)
}

// Run drives the game until the context is cancelled or a shutdown
// command stops it. It owns all game state; nothing else may touch the
// registry or world while Run is live.
func (srv *Server) Run(ctx context.Context, opts RunOptions) error {
	if srv.cfg.MetricsAddr != "" {
		go serveMetrics(srv.cfg.MetricsAddr, srv.logger)
	}

	if opts.ReloadMessages != nil && srv.cfg.Data.MessagesFile != "" {
		watcher, err := watchMessages(srv.cfg.Data.MessagesFile, srv.reloadCh, srv.logger)
		if err != nil {
			srv.logger.Error("starting message file watcher", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	go srv.acceptLoop()
	srv.logger.Info("server listening", "addr", srv.listener.Addr().String())

	ticker := time.NewTicker(time.Duration(srv.cfg.TickInterval))
	defer ticker.Stop()
	lastTickMessage := time.Now()

	for !srv.stopping {
		select {
		case <-ctx.Done():
			srv.stopping = true

		case in := <-srv.inputCh:
			switch in.kind {
			case inputConnect:
				srv.handleConnect(in.s)
			case inputLine:
				srv.processInput(in.s, in.line)
			case inputGone:
				srv.handleGone(in.s)
			}

		case <-srv.reloadCh:
			if opts.ReloadMessages != nil {
				srv.reloadMessages(opts.ReloadMessages)
			}

		case <-ticker.C:
			srv.tick(&lastTickMessage)
		}

		// Removal is deferred to here so no scan is ever broken
		// by a disappearing session.
		srv.reg.RemoveInactive(srv.savePlayer, srv.logger)
	}

	srv.shutdown()
	return nil
}

// tick runs the periodic work: the world heartbeat message, metric
// gauges, and event bus hygiene.
func (srv *Server) tick(lastTickMessage *time.Time) {
	if srv.cfg.TickMessage != "" &&
		time.Since(*lastTickMessage) >= time.Duration(srv.cfg.TickMessageInterval) {
		*lastTickMessage = time.Now()
		srv.reg.Broadcast(srv.cfg.TickMessage+"\n", nil, 0)
	}
	srv.updateGauges()
	srv.bus.Cleanup()
}

// shutdown tells everyone, saves every playing session, and lets the
// writers push out the farewell before closing.
func (srv *Server) shutdown() {
	srv.logger.Info("server shutting down", "sessions", srv.reg.Count())
	srv.listener.Close()

	for _, s := range srv.reg.All() {
		s.Append("\n\n** Game shut down. **\n\n")
		if s.Stage == StagePlaying {
			srv.savePlayer(s)
		}
		s.FinishAndClose()
	}
	srv.emit(events.Event{Kind: events.KindSystem, Text: "server stopped", When: time.Now()})
}
