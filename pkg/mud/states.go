package mud

import (
	"errors"
	"fmt"
	"time"

	"github.com/smallmud/smallmud/pkg/events"
	"github.com/smallmud/smallmud/pkg/player"
	"github.com/smallmud/smallmud/pkg/textutil"
)

// stateHandler interprets one line of input for a session at a given
// login stage. A returned error is shown to the client verbatim and
// the stage is left wherever the handler put it.
type stateHandler func(srv *Server, s *Session, a *args) error

// initStates builds the stage table. StagePlaying is included so the
// per-line dispatch point is uniform; it simply hands the line to the
// command dispatcher.
func initStates() map[Stage]stateHandler {
	return map[Stage]stateHandler{
		StageName:            stateName,
		StagePassword:        statePassword,
		StageNewName:         stateNewName,
		StageNewPassword:     stateNewPassword,
		StageConfirmPassword: stateConfirmPassword,
		StagePlaying: func(srv *Server, s *Session, a *args) error {
			return dispatchCommand(srv, s, a.Rest())
		},
	}
}

// enterGame is the shared success path for login and signup: the
// session becomes a playing player, sees the MOTD and its
// surroundings, and everyone else hears about it.
func enterGame(srv *Server, s *Session, message string) {
	s.Stage = StagePlaying
	s.Prompt = srv.cfg.Prompt
	s.Printf("Welcome, %s\n\n", s.Name)
	s.Append(message)
	s.Append(srv.messages.Get("motd"))
	srv.doCommand(s, "look")

	srv.reg.Broadcast(
		"Player "+s.Name+" has joined the game from "+s.Addr()+".\n", s, 0)
	srv.emit(events.Event{Kind: events.KindConnect, Actor: s.Name, Room: s.Room, When: time.Now()})

	srv.logger.Info("player joined the game", "name", s.Name, "addr", s.Addr())
}

// stateName handles the first line: an existing player's name, or
// 'new' to start character creation.
func stateName(srv *Server, s *Session, a *args) error {
	name := a.Word()

	if name == "" {
		return errors.New("Name cannot be blank.")
	}
	if srv.reg.FindPlayer(name) != nil {
		return fmt.Errorf("%s is already connected.", name)
	}
	if !textutil.ValidName(name) {
		return errors.New("That player name contains disallowed characters.")
	}

	if textutil.NewFoldSet("new").Has(name) {
		s.Stage = StageNewName
		s.Prompt = "Please choose a name for your new character ... "
		return nil
	}

	s.Name = textutil.Capitalize(name)
	rec, err := srv.store.Load(s.Name)
	if errors.Is(err, player.ErrNotFound) {
		return errors.New("That player does not exist, type 'new' to create a new one.")
	}
	if err != nil {
		srv.logger.Error("loading player record", "name", s.Name, "error", err)
		return errors.New("That player cannot be loaded right now.")
	}
	s.ApplyRecord(rec)

	s.Stage = StagePassword
	s.Prompt = "Enter your password ... "
	s.BadPasswordCount = 0
	return nil
}

// statePassword checks an existing player's password. Repeated
// failures reset the whole session as a penalty.
func statePassword(srv *Server, s *Session, a *args) error {
	err := func() error {
		password := a.Word()
		if password == "" {
			return errors.New("Password cannot be blank.")
		}
		if password != s.Password {
			return errors.New("That password is incorrect.")
		}

		if s.HasFlag("blocked") {
			s.Closing = true
			s.Prompt = "Goodbye.\n"
			return errors.New("You are not permitted to connect.")
		}

		enterGame(srv, s, srv.messages.Get("existing_player"))
		return nil
	}()

	if err != nil {
		s.BadPasswordCount++
		if s.BadPasswordCount >= srv.cfg.MaxPasswordAttempts {
			s.Append("Too many attempts to guess the password!\n")
			s.Init(srv.cfg)
		}
	}
	return err
}

// nameTaken reports whether a name exists as a persisted record or an
// active session.
func nameTaken(srv *Server, name string) (bool, error) {
	if srv.reg.FindPlayer(name) != nil {
		return true, nil
	}
	return srv.store.Exists(textutil.Capitalize(name))
}

// stateNewName picks the name for a new character.
func stateNewName(srv *Server, s *Session, a *args) error {
	name := a.Word()

	if name == "" {
		return errors.New("Name cannot be blank.")
	}
	if !textutil.ValidName(name) {
		return errors.New("That player name contains disallowed characters.")
	}
	if srv.badNames.Has(name) {
		return errors.New("That name is not permitted.")
	}
	taken, err := nameTaken(srv, name)
	if err != nil {
		srv.logger.Error("checking player name", "name", name, "error", err)
		return errors.New("That name cannot be checked right now.")
	}
	if taken {
		return errors.New("That player already exists, please choose another name.")
	}

	s.Name = textutil.Capitalize(name)
	s.Stage = StageNewPassword
	s.Prompt = "Choose a password for " + s.Name + " ... "
	s.BadPasswordCount = 0
	return nil
}

// stateNewPassword takes the new character's password.
func stateNewPassword(srv *Server, s *Session, a *args) error {
	password := a.Word()
	if password == "" {
		return errors.New("Password cannot be blank.")
	}
	s.Password = password
	s.Stage = StageConfirmPassword
	s.Prompt = "Re-enter password to confirm it ... "
	return nil
}

// stateConfirmPassword confirms the password and re-checks the name,
// which may have been taken while this session was choosing.
func stateConfirmPassword(srv *Server, s *Session, a *args) error {
	password := a.Word()

	if password != s.Password {
		s.Stage = StageNewPassword
		s.Prompt = "Choose a password for " + s.Name + " ... "
		return errors.New("Password and confirmation do not agree.")
	}

	taken, err := nameTaken(srv, s.Name)
	if err != nil {
		srv.logger.Error("checking player name", "name", s.Name, "error", err)
		return errors.New("That name cannot be checked right now.")
	}
	if taken {
		s.Stage = StageNewName
		s.Prompt = "Please choose a name for your new character ... "
		return errors.New("That player already exists, please choose another name.")
	}

	enterGame(srv, s, srv.messages.Get("new_player"))
	return nil
}
