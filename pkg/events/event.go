// Package events is a small pub/sub bus for structured game events.
// Game code emits events as they happen; subscribers (the scrollback
// recorder, loggers) consume them without the game loop knowing who
// is listening.
package events

import "time"

// Kind classifies an event.
type Kind string

const (
	KindSay     Kind = "say"
	KindChat    Kind = "chat"
	KindTell    Kind = "tell"
	KindEmote   Kind = "emote"
	KindSystem  Kind = "system" // broadcasts not attributed to a player
	KindConnect Kind = "connect"
	KindQuit    Kind = "quit"
)

// Event is one structured game event.
type Event struct {
	Kind   Kind
	Actor  string // player name, "" for system events
	Target string // recipient name for tells, "" otherwise
	Room   int    // room vnum, 0 when not room-scoped
	Text   string
	When   time.Time
}
