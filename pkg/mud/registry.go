package mud

import (
	"log/slog"
	"strings"
)

// Registry owns every live session. Only the game loop mutates it, so
// iteration needs no locking; removal happens in a dedicated pass
// (RemoveInactive) and never while another scan is in progress.
type Registry struct {
	sessions []*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.sessions = append(r.sessions, s)
}

// All returns the live session list. Callers must not hold the slice
// across a RemoveInactive pass.
func (r *Registry) All() []*Session {
	return r.sessions
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	return len(r.sessions)
}

// FindPlayer returns the playing session with the given name
// (case-insensitive), or nil.
func (r *Registry) FindPlayer(name string) *Session {
	for _, s := range r.sessions {
		if s.IsPlaying() && strings.EqualFold(s.Name, name) {
			return s
		}
	}
	return nil
}

// Broadcast appends message to the output buffer of every playing
// session, skipping except (identity comparison) and, when room is
// non-zero, sessions outside that room. Delivery only enqueues bytes;
// transmission is the writers' concern.
func (r *Registry) Broadcast(message string, except *Session, room int) {
	for _, s := range r.sessions {
		if !s.IsPlaying() || s == except {
			continue
		}
		if room != 0 && s.Room != room {
			continue
		}
		s.Append(message)
	}
}

// RemoveInactive prunes sessions that are dead or marked closing.
// Sessions that reached the playing stage are saved through save
// before removal; the writer goroutine is told to finish pending
// output and close the transport.
func (r *Registry) RemoveInactive(save func(*Session), logger *slog.Logger) {
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if s.Connected() && !s.Closing {
			kept = append(kept, s)
			continue
		}
		if s.Stage == StagePlaying && save != nil {
			save(s)
		}
		s.FinishAndClose()
		logger.Info("session removed", "name", s.Name, "addr", s.Addr())
	}
	// Zero the tail so removed sessions are not retained.
	for i := len(kept); i < len(r.sessions); i++ {
		r.sessions[i] = nil
	}
	r.sessions = kept
}
