package boltstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/smallmud/smallmud/pkg/player"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "players.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Load("Alice"); !errors.Is(err, player.ErrNotFound) {
		t.Fatalf("Load on empty store = %v, want ErrNotFound", err)
	}

	rec := player.NewRecord("Alice")
	rec.Password = "swordfish"
	rec.Room = 1001
	rec.SetFlag("can_shutdown")
	if err := s.Save(rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("Alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.Password != "swordfish" || got.Room != 1001 || !got.HasFlag("can_shutdown") {
		t.Errorf("loaded %+v flags %v", got, got.FlagList())
	}
}

func TestStoreExists(t *testing.T) {
	s := openTestStore(t)

	ok, err := s.Exists("Bob")
	if err != nil || ok {
		t.Fatalf("Exists = %v, %v; want false, nil", ok, err)
	}

	rec := player.NewRecord("Bob")
	rec.Room = 1000
	if err := s.Save(rec); err != nil {
		t.Fatal(err)
	}

	ok, err = s.Exists("Bob")
	if err != nil || !ok {
		t.Fatalf("Exists after save = %v, %v; want true, nil", ok, err)
	}
}

func TestStoreOverwrite(t *testing.T) {
	s := openTestStore(t)

	rec := player.NewRecord("Carol")
	rec.Room = 1000
	if err := s.Save(rec); err != nil {
		t.Fatal(err)
	}
	rec.Room = 1002
	if err := s.Save(rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load("Carol")
	if err != nil {
		t.Fatal(err)
	}
	if got.Room != 1002 {
		t.Errorf("room = %d, want the newer save", got.Room)
	}
}
