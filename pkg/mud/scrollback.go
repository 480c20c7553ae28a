package mud

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/smallmud/smallmud/pkg/events"
)

// scrollbackQueueSize bounds the events buffered ahead of the writer.
// When the disk cannot keep up, events are dropped rather than
// stalling the game loop.
const scrollbackQueueSize = 256

// Scrollback records game events in a SQLite database so operators can
// review what happened on the server. It subscribes to the event bus;
// Receive only enqueues, and a dedicated goroutine does the inserts.
type Scrollback struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	queue chan events.Event
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// OpenScrollback opens (creating if needed) the scrollback database
// and starts its writer goroutine.
func OpenScrollback(path string, logger *slog.Logger) (*Scrollback, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS scrollback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		kind TEXT NOT NULL,
		actor TEXT NOT NULL,
		target TEXT NOT NULL DEFAULT '',
		room INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating scrollback table: %w", err)
	}
	if _, err := db.Exec(
		"CREATE INDEX IF NOT EXISTS scrollback_at ON scrollback(at)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexing scrollback table: %w", err)
	}

	sb := &Scrollback{
		db:     db,
		path:   path,
		logger: logger,
		queue:  make(chan events.Event, scrollbackQueueSize),
		done:   make(chan struct{}),
	}
	go sb.writeLoop()
	return sb, nil
}

// Path returns the database file path.
func (sb *Scrollback) Path() string { return sb.path }

// Receive implements events.Subscriber. It never blocks the caller:
// the event is queued for the writer goroutine, or dropped with a log
// line when the queue is full.
func (sb *Scrollback) Receive(ev events.Event) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.closed {
		return
	}
	select {
	case sb.queue <- ev:
	default:
		sb.logger.Warn("scrollback queue full, event dropped", "kind", string(ev.Kind))
	}
}

// writeLoop drains the queue into the database until Close.
func (sb *Scrollback) writeLoop() {
	defer close(sb.done)
	for ev := range sb.queue {
		sb.insert(ev)
	}
}

func (sb *Scrollback) insert(ev events.Event) {
	when := ev.When
	if when.IsZero() {
		when = time.Now()
	}
	_, err := sb.db.Exec(
		"INSERT INTO scrollback (at, kind, actor, target, room, text) VALUES (?, ?, ?, ?, ?, ?)",
		when.Unix(), string(ev.Kind), ev.Actor, ev.Target, ev.Room, ev.Text)
	if err != nil {
		sb.logger.Error("scrollback insert failed", "error", err)
	}
}

// Closed implements events.Subscriber.
func (sb *Scrollback) Closed() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.closed
}

// Purge deletes rows older than the retention window and returns how
// many were removed.
func (sb *Scrollback) Purge(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := sb.db.Exec("DELETE FROM scrollback WHERE at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartRetention runs an hourly purge until the scrollback is closed.
func (sb *Scrollback) StartRetention(retention time.Duration) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if sb.Closed() {
				return
			}
			purged, err := sb.Purge(retention)
			if err != nil {
				sb.logger.Error("scrollback purge failed", "error", err)
				continue
			}
			if purged > 0 {
				sb.logger.Info("scrollback purged", "rows", purged)
			}
		}
	}()
}

// Close stops delivery, waits for queued events to be written, and
// releases the database. Safe to call more than once.
func (sb *Scrollback) Close() error {
	sb.mu.Lock()
	if sb.closed {
		sb.mu.Unlock()
		return nil
	}
	sb.closed = true
	close(sb.queue)
	sb.mu.Unlock()

	<-sb.done
	return sb.db.Close()
}
