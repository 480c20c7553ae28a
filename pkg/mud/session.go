package mud

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/smallmud/smallmud/pkg/player"
)

// Stage is a session's position in the login dialog.
type Stage int

const (
	StageName            Stage = iota // awaiting player name
	StagePassword                     // awaiting existing player's password
	StageNewName                      // they typed 'new', awaiting a fresh name
	StageNewPassword                  // awaiting a password for the new character
	StageConfirmPassword              // awaiting password confirmation
	StagePlaying                      // normal connected play
)

// writeChunk is the most we hand to the transport per write attempt.
const writeChunk = 512

// initialPrompt greets a session that has not yet given a name.
const initialPrompt = "Enter your name, or 'new' to create a new character ...  "

// Session is the server-side state for one client connection. All
// game-visible fields are owned by the game loop; only the output
// buffer is shared with the session's writer goroutine.
type Session struct {
	conn net.Conn
	addr string // remote host, without port

	Stage            Stage
	Prompt           string
	Name             string
	Password         string
	BadPasswordCount int
	Room             int
	Flags            map[string]struct{}
	Closing          bool // finish pending writes, then remove

	mu      sync.Mutex
	out     []byte
	dead    bool // transport is gone, discard output
	flushCh chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// NewSession wraps an accepted connection. The session starts at
// StageName with the login prompt; cfg supplies the initial room.
func NewSession(conn net.Conn, cfg *Config) *Session {
	host := ""
	if ra := conn.RemoteAddr(); ra != nil {
		host, _, _ = net.SplitHostPort(ra.String())
	}
	s := &Session{
		conn:    conn,
		addr:    host,
		flushCh: make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
	}
	s.Init(cfg)
	return s
}

// Init resets the session to its pre-login state. Also used as the
// too-many-bad-passwords penalty.
func (s *Session) Init(cfg *Config) {
	s.Stage = StageName
	s.Room = cfg.InitialRoom
	s.Flags = make(map[string]struct{})
	s.Prompt = initialPrompt
}

// Addr returns the remote host the session connected from.
func (s *Session) Addr() string { return s.addr }

// Connected reports whether the transport is still usable.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dead
}

// IsPlaying reports whether the session is actively in the game.
func (s *Session) IsPlaying() bool {
	return s.Connected() && s.Stage == StagePlaying && !s.Closing
}

// HasFlag reports whether a capability flag is set.
func (s *Session) HasFlag(flag string) bool {
	_, ok := s.Flags[flag]
	return ok
}

// NeedFlag returns a permission error unless the flag is set.
func (s *Session) NeedFlag(flag string) error {
	if !s.HasFlag(flag) {
		return errNotPermitted
	}
	return nil
}

// NeedNoFlag returns a permission error if the flag is set.
func (s *Session) NeedNoFlag(flag string) error {
	if s.HasFlag(flag) {
		return errNotPermitted
	}
	return nil
}

// Record converts the session's persisted fields to a player record.
func (s *Session) Record() *player.Record {
	rec := player.NewRecord(s.Name)
	rec.Password = s.Password
	rec.Room = s.Room
	for f := range s.Flags {
		rec.SetFlag(f)
	}
	return rec
}

// ApplyRecord copies a loaded record into the session.
func (s *Session) ApplyRecord(rec *player.Record) {
	s.Password = rec.Password
	s.Room = rec.Room
	s.Flags = make(map[string]struct{}, len(rec.Flags))
	for f := range rec.Flags {
		s.Flags[f] = struct{}{}
	}
}

// Append enqueues text into the session's output buffer and nudges
// the writer goroutine. Output to a dead session is discarded.
func (s *Session) Append(text string) {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return
	}
	s.out = append(s.out, text...)
	s.mu.Unlock()

	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// Printf formats into the session's output buffer.
func (s *Session) Printf(format string, args ...any) {
	s.Append(fmt.Sprintf(format, args...))
}

// PendingOutput reports whether unflushed bytes remain.
func (s *Session) PendingOutput() bool {
	return s.pendingLen() > 0
}

func (s *Session) pendingLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.out)
}

// MarkDead records that the peer is gone; buffered output is dropped
// and further appends are discarded.
func (s *Session) MarkDead() {
	s.mu.Lock()
	s.dead = true
	s.out = nil
	s.mu.Unlock()
	s.closeDone()
}

// FinishAndClose asks the writer goroutine to drain whatever is
// buffered and then close the transport.
func (s *Session) FinishAndClose() {
	s.closeDone()
}

func (s *Session) closeDone() {
	s.once.Do(func() { close(s.doneCh) })
}

// flushChunk hands at most writeChunk bytes of the buffer to w and
// removes only what was actually accepted, so a short write leaves
// the remainder queued in order. It returns the number of bytes
// attempted and the number written.
func (s *Session) flushChunk(w io.Writer) (attempted, written int, err error) {
	s.mu.Lock()
	if s.dead || len(s.out) == 0 {
		s.mu.Unlock()
		return 0, 0, nil
	}
	attempted = len(s.out)
	if attempted > writeChunk {
		attempted = writeChunk
	}
	chunk := make([]byte, attempted)
	copy(chunk, s.out[:attempted])
	s.mu.Unlock()

	written, err = w.Write(chunk)

	s.mu.Lock()
	if written > 0 && written <= len(s.out) {
		s.out = s.out[written:]
	}
	s.mu.Unlock()
	return attempted, written, err
}

// drain flushes the buffer in chunks. A short write ends the pass
// with a re-nudge so the remainder goes out on the next one; any
// write error other than a timeout kills the session.
func (s *Session) drain(logger *slog.Logger) {
	for {
		s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		attempted, written, err := s.flushChunk(s.conn)
		if attempted == 0 {
			return
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return // retry on the next nudge
			}
			logger.Error("write to session failed", "addr", s.addr, "error", err)
			s.MarkDead()
			return
		}
		if written < attempted {
			select {
			case s.flushCh <- struct{}{}:
			default:
			}
			return
		}
	}
}

// writeLoop runs in the session's writer goroutine. It drains the
// output buffer whenever nudged, and after FinishAndClose it drains
// once more and closes the transport.
func (s *Session) writeLoop(logger *slog.Logger) {
	for {
		select {
		case <-s.flushCh:
			s.drain(logger)
		case <-s.doneCh:
			// Final flush: keep going while we make progress.
			for s.PendingOutput() && s.Connected() {
				before := s.pendingLen()
				s.drain(logger)
				if s.pendingLen() == before {
					break
				}
			}
			s.conn.Close()
			return
		}
	}
}
