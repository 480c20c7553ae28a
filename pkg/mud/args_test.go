package mud

import "testing"

func TestArgsWord(t *testing.T) {
	a := newArgs("  say   hello   world  ")
	if w := a.Word(); w != "say" {
		t.Errorf("first word = %q, want say", w)
	}
	if r := a.Rest(); r != "hello   world" {
		t.Errorf("rest = %q, want %q", r, "hello   world")
	}
	if w := a.Word(); w != "" {
		t.Errorf("exhausted word = %q, want empty", w)
	}
}

func TestArgsInt(t *testing.T) {
	a := newArgs("goto 1000")
	a.Word()
	n, ok := a.Int()
	if !ok || n != 1000 {
		t.Errorf("Int() = %d, %v; want 1000, true", n, ok)
	}
	if err := a.NoMore(); err != nil {
		t.Errorf("NoMore() = %v, want nil", err)
	}
}

func TestArgsIntFailureDoesNotConsume(t *testing.T) {
	a := newArgs("transfer bob")
	a.Word()
	if _, ok := a.Int(); ok {
		t.Fatal("Int() parsed a name")
	}
	if w := a.Word(); w != "bob" {
		t.Errorf("word after failed Int = %q, want bob", w)
	}
}

func TestArgsNoMoreRejectsTrailingInput(t *testing.T) {
	a := newArgs("quit please")
	a.Word()
	err := a.NoMore()
	if err == nil {
		t.Fatal("NoMore() accepted trailing input")
	}
	if got := err.Error(); got != "Unexpected input: please" {
		t.Errorf("error = %q", got)
	}
}
