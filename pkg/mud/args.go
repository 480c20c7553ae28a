package mud

import (
	"fmt"
	"strconv"
	"strings"
)

// args consumes one input line the way the handlers need it: a word
// at a time, or the whole remainder at once.
type args struct {
	rest string
}

func newArgs(line string) *args {
	return &args{rest: strings.TrimSpace(line)}
}

// Word consumes and returns the next whitespace-delimited token, or
// "" when the line is exhausted.
func (a *args) Word() string {
	a.rest = strings.TrimLeft(a.rest, " \t")
	if a.rest == "" {
		return ""
	}
	i := strings.IndexAny(a.rest, " \t")
	if i < 0 {
		w := a.rest
		a.rest = ""
		return w
	}
	w := a.rest[:i]
	a.rest = a.rest[i+1:]
	return w
}

// Rest consumes and returns everything remaining, trimmed of
// surrounding whitespace.
func (a *args) Rest() string {
	r := strings.TrimSpace(a.rest)
	a.rest = ""
	return r
}

// Int consumes the next token as an integer. ok is false when there
// is no token or it does not parse; the token is not consumed on a
// parse failure so NoMore can report it.
func (a *args) Int() (n int, ok bool) {
	save := a.rest
	w := a.Word()
	if w == "" {
		return 0, false
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		a.rest = save
		return 0, false
	}
	return n, true
}

// NoMore errors if any non-whitespace input remains. Handlers that
// take no further arguments call this to reject trailing junk.
func (a *args) NoMore() error {
	if rest := a.Rest(); rest != "" {
		return fmt.Errorf("Unexpected input: %s", rest)
	}
	return nil
}
