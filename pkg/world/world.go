// Package world holds the read-mostly game data the server consumes:
// the room graph and the message template table. Both are built by a
// loader (pkg/flatfile) and are not mutated by command handlers.
package world

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoRoom is returned when a vnum does not resolve to a room.
var ErrNoRoom = errors.New("room does not exist")

// Room is one location node. Rooms are immutable after load.
type Room struct {
	Vnum        int
	Description string
	Exits       map[string]int // direction token -> destination vnum
}

// ExitNames returns the room's exit directions in sorted order.
func (r *Room) ExitNames() []string {
	names := make([]string, 0, len(r.Exits))
	for dir := range r.Exits {
		names = append(names, dir)
	}
	sort.Strings(names)
	return names
}

// World is the room graph keyed by vnum.
type World struct {
	rooms map[int]*Room
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{rooms: make(map[int]*Room)}
}

// AddRoom inserts a room. It returns false if the vnum is already
// taken (the first definition wins, matching the loader contract).
func (w *World) AddRoom(r *Room) bool {
	if _, dup := w.rooms[r.Vnum]; dup {
		return false
	}
	w.rooms[r.Vnum] = r
	return true
}

// FindRoom resolves a vnum. A dangling vnum yields ErrNoRoom; callers
// turn that into a user-visible error, never a crash.
func (w *World) FindRoom(vnum int) (*Room, error) {
	r, ok := w.rooms[vnum]
	if !ok {
		return nil, ErrNoRoom
	}
	return r, nil
}

// Len returns the number of loaded rooms.
func (w *World) Len() int { return len(w.rooms) }

// Messages is the message template table, keyed case-insensitively.
// The loader expands %r placeholders before the table is built.
type Messages map[string]string

// Get returns the template for key, or "" if absent.
func (m Messages) Get(key string) string {
	return m[strings.ToLower(key)]
}

// Set stores a template under a lowercased key.
func (m Messages) Set(key, text string) {
	m[strings.ToLower(key)] = text
}
