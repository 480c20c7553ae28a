package mud

import (
	"testing"
)

func TestDirectionsMoveThePlayer(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	bob := playAs(srv, "Bob")
	carol := playAs(srv, "Carol")
	carol.Room = 1001

	typeLine(srv, alice, "n")
	out := takeOutput(alice)
	wantContains(t, out, "You go n")
	wantContains(t, out, "The north room.")
	if alice.Room != 1001 {
		t.Fatalf("room = %d, want 1001", alice.Room)
	}

	wantContains(t, takeOutput(bob), "Alice goes n")
	wantContains(t, takeOutput(carol), "Alice enters.")
}

func TestDirectionsAreCaseInsensitive(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")

	typeLine(srv, alice, "N")
	wantContains(t, takeOutput(alice), "You go N")
	if alice.Room != 1001 {
		t.Errorf("room = %d, want 1001", alice.Room)
	}
}

func TestVerbsAreCaseSensitive(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")

	typeLine(srv, alice, "LOOK")
	wantContains(t, takeOutput(alice), "Huh?")
}

func TestNoExitThatWay(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")

	typeLine(srv, alice, "w")
	wantContains(t, takeOutput(alice), "You cannot go that way.")
	if alice.Room != 1000 {
		t.Errorf("room = %d, player should not have moved", alice.Room)
	}
}

func TestLook(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	playAs(srv, "Bob")
	carol := playAs(srv, "Carol")
	carol.Room = 1001

	typeLine(srv, alice, "look")
	out := takeOutput(alice)
	wantContains(t, out, "The starting room.")
	wantContains(t, out, "Exits: n ")
	wantContains(t, out, "You also see Bob.")
	wantNotContains(t, out, "Carol")
}

func TestSayIsRoomScoped(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	bob := playAs(srv, "Bob")
	carol := playAs(srv, "Carol")
	carol.Room = 1001

	typeLine(srv, alice, "say hello there")
	wantContains(t, takeOutput(alice), `You say, "hello there"`)
	wantContains(t, takeOutput(bob), `Alice says, "hello there"`)
	wantNotContains(t, takeOutput(carol), "hello there")
}

func TestSayGagged(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	alice.Flags["gagged"] = struct{}{}

	typeLine(srv, alice, "say hello")
	wantContains(t, takeOutput(alice), "You are not permitted to do that.")
}

func TestChatReachesEveryRoom(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	carol := playAs(srv, "Carol")
	carol.Room = 1001

	typeLine(srv, alice, "chat anyone around?")
	wantContains(t, takeOutput(alice), `Alice chats, "anyone around?"`)
	wantContains(t, takeOutput(carol), `Alice chats, "anyone around?"`)
}

func TestTell(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	bob := playAs(srv, "Bob")
	carol := playAs(srv, "Carol")

	typeLine(srv, alice, "tell bob psst")
	wantContains(t, takeOutput(alice), `You tell Bob, "psst"`)
	wantContains(t, takeOutput(bob), `Alice tells you, "psst"`)
	wantNotContains(t, takeOutput(carol), "psst")

	typeLine(srv, alice, "tell me hi")
	wantContains(t, takeOutput(alice), "You cannot do that to yourself.")

	typeLine(srv, alice, "tell nobody hi")
	wantContains(t, takeOutput(alice), "Player Nobody is not connected.")
}

func TestEmoteGoesToOthersInTheRoom(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	bob := playAs(srv, "Bob")
	carol := playAs(srv, "Carol")
	carol.Room = 1001

	typeLine(srv, alice, "emote grins widely")
	wantNotContains(t, takeOutput(alice), "Alice grins widely")
	wantContains(t, takeOutput(bob), "Alice grins widely")
	wantNotContains(t, takeOutput(carol), "Alice grins widely")
}

func TestWho(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	carol := playAs(srv, "Carol")
	carol.Room = 1001
	newTestSession(srv) // still logging in, must not be listed

	typeLine(srv, alice, "who")
	out := takeOutput(alice)
	wantContains(t, out, "Connected players ...")
	wantContains(t, out, "  Alice in room 1000")
	wantContains(t, out, "  Carol in room 1001")
	wantContains(t, out, "2 player(s)")
}

func TestQuit(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	bob := playAs(srv, "Bob")

	typeLine(srv, alice, "quit")
	wantContains(t, takeOutput(alice), "See you next time!")
	wantContains(t, takeOutput(bob), "Player Alice has left the game.")
	if !alice.Closing {
		t.Error("quit should mark the session closing")
	}
}

func TestQuitRejectsTrailingInput(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")

	typeLine(srv, alice, "quit now")
	wantContains(t, takeOutput(alice), "Unexpected input: now")
	if alice.Closing {
		t.Error("a rejected quit must not close the session")
	}
}

func TestGotoNeedsFlag(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")

	typeLine(srv, alice, "goto 1002")
	wantContains(t, takeOutput(alice), "You are not permitted to do that.")

	alice.Flags["can_goto"] = struct{}{}
	typeLine(srv, alice, "goto 1002")
	out := takeOutput(alice)
	wantContains(t, out, "You go to room 1002")
	wantContains(t, out, "An unconnected room.")
	if alice.Room != 1002 {
		t.Errorf("room = %d, want 1002", alice.Room)
	}

	typeLine(srv, alice, "goto 9999")
	wantContains(t, takeOutput(alice), "Room number 9999 does not exist.")
	if alice.Room != 1002 {
		t.Errorf("room = %d, failed goto must not move the player", alice.Room)
	}
}

func TestTransfer(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	alice.Flags["can_transfer"] = struct{}{}
	bob := playAs(srv, "Bob")
	bob.Room = 1001

	typeLine(srv, alice, "transfer bob")
	wantContains(t, takeOutput(alice), "You transfer Bob to room 1000")
	out := takeOutput(bob)
	wantContains(t, out, "Alice transfers you to another room!")
	wantContains(t, out, "The starting room.")
	if bob.Room != 1000 {
		t.Errorf("room = %d, want 1000", bob.Room)
	}

	typeLine(srv, alice, "transfer me 1001")
	wantContains(t, takeOutput(alice), "You cannot do that to yourself.")
}

func TestSetAndClearFlag(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	alice.Flags["can_setflag"] = struct{}{}
	bob := playAs(srv, "Bob")

	typeLine(srv, alice, "setflag bob gagged")
	wantContains(t, takeOutput(alice), "You set the flag 'gagged' for Bob")
	if !bob.HasFlag("gagged") {
		t.Error("flag not set on target")
	}

	typeLine(srv, alice, "setflag bob gagged")
	wantContains(t, takeOutput(alice), "Flag already set.")

	typeLine(srv, alice, "clearflag bob gagged")
	wantContains(t, takeOutput(alice), "You clear the flag 'gagged' for Bob")
	if bob.HasFlag("gagged") {
		t.Error("flag not cleared on target")
	}

	typeLine(srv, alice, "clearflag bob gagged")
	wantContains(t, takeOutput(alice), "Flag not set.")

	typeLine(srv, alice, "setflag bob b*d")
	wantContains(t, takeOutput(alice), "Flag name not valid.")
}

func TestShutdownNeedsFlag(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")

	typeLine(srv, alice, "shutdown")
	wantContains(t, takeOutput(alice), "You are not permitted to do that.")
	if srv.stopping {
		t.Fatal("shutdown must not fire without the flag")
	}

	alice.Flags["can_shutdown"] = struct{}{}
	typeLine(srv, alice, "shutdown")
	wantContains(t, takeOutput(alice), "Alice shuts down the game")
	if !srv.stopping {
		t.Error("shutdown should stop the server")
	}
}

func TestSavePersistsTheRecord(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")
	alice.Room = 1001
	alice.Flags["gagged"] = struct{}{}

	typeLine(srv, alice, "save")
	wantContains(t, takeOutput(alice), "Saved.")

	rec, err := srv.store.Load("Alice")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Room != 1001 {
		t.Errorf("saved room = %d, want 1001", rec.Room)
	}
	if !rec.HasFlag("gagged") {
		t.Error("saved record is missing the flag")
	}
	if rec.Password != "secret" {
		t.Errorf("saved password = %q, want secret", rec.Password)
	}
}

func TestHelp(t *testing.T) {
	srv := newTestServer(t)
	alice := playAs(srv, "Alice")

	typeLine(srv, alice, "help")
	wantContains(t, takeOutput(alice), "Help text.")
}
