package mud

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/smallmud/smallmud/pkg/events"
	"github.com/smallmud/smallmud/pkg/flatfile"
	"github.com/smallmud/smallmud/pkg/world"
)

// Shared fixtures for the mud package tests. Handlers are exercised
// directly against an in-memory server; no sockets are involved.

func testWorld() *world.World {
	w := world.NewWorld()
	w.AddRoom(&world.Room{
		Vnum:        1000,
		Description: "The starting room.\n",
		Exits:       map[string]int{"n": 1001},
	})
	w.AddRoom(&world.Room{
		Vnum:        1001,
		Description: "The north room.\n",
		Exits:       map[string]int{"s": 1000},
	})
	w.AddRoom(&world.Room{
		Vnum:        1002,
		Description: "An unconnected room.\n",
		Exits:       map[string]int{},
	})
	return w
}

func testMessages() world.Messages {
	m := make(world.Messages)
	m.Set("welcome", "Welcome to the game!\n")
	m.Set("motd", "Message of the day.\n")
	m.Set("new_player", "A new player message.\n")
	m.Set("existing_player", "Welcome back.\n")
	m.Set("help", "Help text.\n")
	return m
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Data.PlayersDir = t.TempDir()
	return &Server{
		cfg:          &cfg,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		world:        testWorld(),
		messages:     testMessages(),
		store:        flatfile.NewDir(cfg.Data.PlayersDir),
		reg:          NewRegistry(),
		bus:          events.NewBus(),
		directions:   cfg.DirectionSet(),
		badNames:     cfg.BadNameSet(),
		blockedHosts: cfg.BlockedHostSet(),
		commands:     initCommands(),
		states:       initStates(),
	}
}

func newTestSession(srv *Server) *Session {
	s := &Session{
		addr:    "10.0.0.1",
		flushCh: make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
	}
	s.Init(srv.cfg)
	srv.reg.Add(s)
	return s
}

// playAs skips the login dialog and puts a session straight into the
// game as a named player.
func playAs(srv *Server, name string) *Session {
	s := newTestSession(srv)
	s.Name = name
	s.Password = "secret"
	s.Stage = StagePlaying
	s.Prompt = srv.cfg.Prompt
	return s
}

// takeOutput drains and returns everything buffered for the session.
func takeOutput(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := string(s.out)
	s.out = nil
	return out
}

// typeLine feeds one line through the full per-line dispatch path,
// prompt and all.
func typeLine(srv *Server, s *Session, line string) {
	srv.processInput(s, line)
}

func wantContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output %q does not contain %q", got, want)
	}
}

func wantNotContains(t *testing.T, got, avoid string) {
	t.Helper()
	if strings.Contains(got, avoid) {
		t.Errorf("output %q should not contain %q", got, avoid)
	}
}
