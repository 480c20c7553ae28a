package mud

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallmud/smallmud/pkg/events"
	"github.com/smallmud/smallmud/pkg/textutil"
)

// Errors shared across handlers.
var (
	errNotPermitted = errors.New("You are not permitted to do that.")
	errHuh          = errors.New("Huh?")
)

// CommandHandler runs one game command for a playing session. A
// returned error is shown to the player verbatim; handlers must not
// mutate world state before their argument checks pass.
type CommandHandler func(srv *Server, s *Session, a *args) error

// initCommands builds the verb table. Lookup is case-sensitive, built
// once at startup and read-only thereafter.
func initCommands() map[string]CommandHandler {
	return map[string]CommandHandler{
		"look":      cmdLook,
		"l":         cmdLook,
		"quit":      cmdQuit,
		"say":       cmdSay,
		"\"":        cmdSay,
		"tell":      cmdTell,
		"chat":      cmdChat,
		"emote":     cmdEmote,
		"who":       cmdWho,
		"help":      cmdHelp,
		"setflag":   cmdSetFlag,
		"clearflag": cmdClearFlag,
		"goto":      cmdGoto,
		"transfer":  cmdTransfer,
		"shutdown":  cmdShutdown,
		"save":      cmdSave,
	}
}

// dispatchCommand handles one line from a playing session: movement
// directions first, then the verb table.
func dispatchCommand(srv *Server, s *Session, line string) error {
	a := newArgs(line)
	verb := a.Word()

	if srv.directions.Has(verb) {
		return doDirection(srv, s, verb)
	}

	handler, ok := srv.commands[verb]
	if !ok {
		return errHuh
	}
	commandsTotal.WithLabelValues(verb).Inc()
	return handler(srv, s, a)
}

// getPlayer resolves a target player argument. "me" and "self" name
// the caller; notme rejects resolving to the caller.
func getPlayer(srv *Server, s *Session, a *args, noNameMessage string, notme bool) (*Session, error) {
	name := a.Word()
	if name == "" {
		return nil, errors.New(noNameMessage)
	}
	var target *Session
	if strings.EqualFold(name, "me") || strings.EqualFold(name, "self") {
		target = s
	} else {
		target = srv.reg.FindPlayer(name)
	}
	if target == nil {
		return nil, fmt.Errorf("Player %s is not connected.", textutil.Capitalize(name))
	}
	if notme && target == s {
		return nil, errors.New("You cannot do that to yourself.")
	}
	return target, nil
}

// getMessage consumes the rest of the line as free text.
func getMessage(a *args, noMessageError string) (string, error) {
	message := a.Rest()
	if message == "" {
		return "", errors.New(noMessageError)
	}
	return message, nil
}

// getFlag consumes a flag name, restricted to the player-name
// character set.
func getFlag(a *args, noFlagError string) (string, error) {
	flag := a.Word()
	if flag == "" {
		return "", errors.New(noFlagError)
	}
	if !textutil.ValidName(flag) {
		return "", errors.New("Flag name not valid.")
	}
	return flag, nil
}

// playerToRoom moves a session to vnum: departure notice to the old
// room, location update, an implicit look, arrival notice to the new
// room. The destination must resolve or nothing moves.
func playerToRoom(srv *Server, s *Session, vnum int, playerMessage, departMessage, arriveMessage string) error {
	if _, err := srv.world.FindRoom(vnum); err != nil {
		return fmt.Errorf("Room number %d does not exist.", vnum)
	}
	srv.reg.Broadcast(departMessage, s, s.Room)
	s.Room = vnum
	s.Append(playerMessage)
	srv.doCommand(s, "look")
	srv.reg.Broadcast(arriveMessage, s, s.Room)
	return nil
}

// doDirection moves the player through an exit of the current room.
func doDirection(srv *Server, s *Session, dir string) error {
	room, err := srv.world.FindRoom(s.Room)
	if err != nil {
		return fmt.Errorf("Room number %d does not exist.", s.Room)
	}
	// Exits are keyed lowercase; the echo keeps the player's casing.
	dest, ok := room.Exits[strings.ToLower(dir)]
	if !ok {
		return errors.New("You cannot go that way.")
	}
	return playerToRoom(srv, s, dest,
		"You go "+dir+"\n",
		s.Name+" goes "+dir+"\n",
		s.Name+" enters.\n")
}

func cmdQuit(srv *Server, s *Session, a *args) error {
	if err := a.NoMore(); err != nil {
		return err
	}
	if s.Stage == StagePlaying {
		s.Append("See you next time!\n")
		srv.logger.Info("player left the game", "name", s.Name)
		srv.reg.Broadcast("Player "+s.Name+" has left the game.\n", s, 0)
		srv.emit(events.Event{Kind: events.KindQuit, Actor: s.Name, When: time.Now()})
	}
	s.Closing = true
	return nil
}

func cmdLook(srv *Server, s *Session, a *args) error {
	if which := a.Word(); which != "" {
		// Object inspection stub; there is no object model yet.
		s.Printf("Looking at object %s\n", which)
		return nil
	}

	room, err := srv.world.FindRoom(s.Room)
	if err != nil {
		return fmt.Errorf("Room number %d does not exist.", s.Room)
	}
	s.Append(room.Description)

	if len(room.Exits) > 0 {
		s.Append("Exits: ")
		for _, dir := range room.ExitNames() {
			s.Append(dir + " ")
		}
		s.Append("\n")
	}

	others := 0
	for _, other := range srv.reg.All() {
		if other == s || !other.IsPlaying() || other.Room != s.Room {
			continue
		}
		if others == 0 {
			s.Append("You also see ")
		} else {
			s.Append(", ")
		}
		s.Append(other.Name)
		others++
	}
	if others > 0 {
		s.Append(".\n")
	}
	return nil
}

func cmdSay(srv *Server, s *Session, a *args) error {
	if err := s.NeedNoFlag("gagged"); err != nil {
		return err
	}
	what, err := getMessage(a, "Say what?")
	if err != nil {
		return err
	}
	s.Printf("You say, \"%s\"\n", what)
	srv.reg.Broadcast(s.Name+" says, \""+what+"\"\n", s, s.Room)
	srv.emit(events.Event{Kind: events.KindSay, Actor: s.Name, Room: s.Room, Text: what, When: time.Now()})
	return nil
}

func cmdTell(srv *Server, s *Session, a *args) error {
	if err := s.NeedNoFlag("gagged"); err != nil {
		return err
	}
	target, err := getPlayer(srv, s, a, "Tell whom?", true)
	if err != nil {
		return err
	}
	what, err := getMessage(a, "Tell "+s.Name+" what?")
	if err != nil {
		return err
	}
	s.Printf("You tell %s, \"%s\"\n", target.Name, what)
	target.Printf("%s tells you, \"%s\"\n", s.Name, what)
	srv.emit(events.Event{Kind: events.KindTell, Actor: s.Name, Target: target.Name, Text: what, When: time.Now()})
	return nil
}

func cmdChat(srv *Server, s *Session, a *args) error {
	if err := s.NeedNoFlag("gagged"); err != nil {
		return err
	}
	what, err := getMessage(a, "Chat what?")
	if err != nil {
		return err
	}
	srv.reg.Broadcast(s.Name+" chats, \""+what+"\"\n", nil, 0)
	srv.emit(events.Event{Kind: events.KindChat, Actor: s.Name, Text: what, When: time.Now()})
	return nil
}

func cmdEmote(srv *Server, s *Session, a *args) error {
	what, err := getMessage(a, "Emote what?")
	if err != nil {
		return err
	}
	srv.reg.Broadcast(s.Name+" "+what+"\n", s, s.Room)
	srv.emit(events.Event{Kind: events.KindEmote, Actor: s.Name, Room: s.Room, Text: what, When: time.Now()})
	return nil
}

func cmdWho(srv *Server, s *Session, a *args) error {
	if err := a.NoMore(); err != nil {
		return err
	}
	s.Append("Connected players ...\n")
	count := 0
	for _, other := range srv.reg.All() {
		if other.IsPlaying() {
			s.Printf("  %s in room %d\n", other.Name, other.Room)
			count++
		}
	}
	s.Printf("%d player(s)\n", count)
	return nil
}

func cmdHelp(srv *Server, s *Session, a *args) error {
	if err := a.NoMore(); err != nil {
		return err
	}
	s.Append(srv.messages.Get("help"))
	return nil
}

func cmdSetFlag(srv *Server, s *Session, a *args) error {
	if err := s.NeedFlag("can_setflag"); err != nil {
		return err
	}
	target, err := getPlayer(srv, s, a, "Usage: setflag <who> <flag>", false)
	if err != nil {
		return err
	}
	flag, err := getFlag(a, "Set which flag?")
	if err != nil {
		return err
	}
	if err := a.NoMore(); err != nil {
		return err
	}
	if target.HasFlag(flag) {
		return errors.New("Flag already set.")
	}
	target.Flags[flag] = struct{}{}
	s.Printf("You set the flag '%s' for %s\n", flag, target.Name)
	return nil
}

func cmdClearFlag(srv *Server, s *Session, a *args) error {
	if err := s.NeedFlag("can_setflag"); err != nil {
		return err
	}
	target, err := getPlayer(srv, s, a, "Usage: clearflag <who> <flag>", false)
	if err != nil {
		return err
	}
	flag, err := getFlag(a, "Clear which flag?")
	if err != nil {
		return err
	}
	if err := a.NoMore(); err != nil {
		return err
	}
	if !target.HasFlag(flag) {
		return errors.New("Flag not set.")
	}
	delete(target.Flags, flag)
	s.Printf("You clear the flag '%s' for %s\n", flag, target.Name)
	return nil
}

func cmdGoto(srv *Server, s *Session, a *args) error {
	if err := s.NeedFlag("can_goto"); err != nil {
		return err
	}
	room, ok := a.Int()
	if !ok {
		return errors.New("Go to which room?")
	}
	if err := a.NoMore(); err != nil {
		return err
	}
	return playerToRoom(srv, s, room,
		fmt.Sprintf("You go to room %d\n", room),
		s.Name+" disappears in a puff of smoke!\n",
		s.Name+" appears in a puff of smoke!\n")
}

func cmdTransfer(srv *Server, s *Session, a *args) error {
	if err := s.NeedFlag("can_transfer"); err != nil {
		return err
	}
	target, err := getPlayer(srv, s, a, "Usage: transfer <who> [ where ] (default is here)", true)
	if err != nil {
		return err
	}
	room, ok := a.Int()
	if !ok {
		room = s.Room // no room argument: transfer to our room
	}
	if err := a.NoMore(); err != nil {
		return err
	}
	s.Printf("You transfer %s to room %d\n", target.Name, room)
	return playerToRoom(srv, target, room,
		s.Name+" transfers you to another room!\n",
		target.Name+" is yanked away by unseen forces!\n",
		target.Name+" appears breathlessly!\n")
}

func cmdShutdown(srv *Server, s *Session, a *args) error {
	if err := a.NoMore(); err != nil {
		return err
	}
	if err := s.NeedFlag("can_shutdown"); err != nil {
		return err
	}
	srv.reg.Broadcast(s.Name+" shuts down the game\n", nil, 0)
	srv.emit(events.Event{Kind: events.KindSystem, Actor: s.Name, Text: "shutdown", When: time.Now()})
	srv.stopping = true
	return nil
}

func cmdSave(srv *Server, s *Session, a *args) error {
	srv.savePlayer(s)
	s.Append("Saved.\n")
	return nil
}
