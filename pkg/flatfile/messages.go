package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smallmud/smallmud/pkg/textutil"
	"github.com/smallmud/smallmud/pkg/world"
)

// ParseMessages reads the message template file. Each line is a
// message key followed by its text; embedded %r sequences become
// newlines before the table is built, so the core never sees the
// placeholder.
func ParseMessages(r io.Reader) (world.Messages, error) {
	msgs := make(world.Messages)
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		line := sc.Text()
		key, text, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
		if key == "" {
			continue
		}
		msgs.Set(key, textutil.ExpandBreaks(strings.TrimLeft(text, " \t")))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	return msgs, nil
}

// LoadMessages parses the message file at path.
func LoadMessages(path string) (world.Messages, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening messages file: %w", err)
	}
	defer f.Close()
	return ParseMessages(f)
}
