package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/smallmud/smallmud/pkg/textutil"
	"github.com/smallmud/smallmud/pkg/world"
)

// ParseRooms reads the rooms file. Each room is three lines: the vnum,
// the description (with %r line breaks), and the exits as
// "dir vnum" pairs. A zero vnum or empty description ends the load.
// Exits whose direction is not in directions, or whose vnum does not
// parse, are skipped.
func ParseRooms(r io.Reader, directions textutil.FoldSet) (*world.World, error) {
	w := world.NewWorld()
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		vnumLine := strings.TrimSpace(sc.Text())
		if vnumLine == "" {
			continue
		}
		vnum, err := strconv.Atoi(strings.Fields(vnumLine)[0])
		if err != nil || vnum == 0 {
			break
		}

		if !sc.Scan() {
			break
		}
		description := sc.Text()
		if strings.TrimSpace(description) == "" {
			break
		}

		var exitLine string
		if sc.Scan() {
			exitLine = sc.Text()
		}

		room := &world.Room{
			Vnum:        vnum,
			Description: textutil.ExpandBreaks(description) + "\n",
			Exits:       make(map[string]int),
		}
		if !w.AddRoom(room) {
			// First definition wins for duplicate vnums.
			continue
		}

		fields := strings.Fields(exitLine)
		for i := 0; i+1 < len(fields); i += 2 {
			dir := fields[i]
			dest, err := strconv.Atoi(fields[i+1])
			if err != nil || dest == 0 {
				continue
			}
			if !directions.Has(dir) {
				continue
			}
			room.Exits[strings.ToLower(dir)] = dest
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading rooms: %w", err)
	}
	return w, nil
}

// LoadRooms parses the rooms file at path.
func LoadRooms(path string, directions textutil.FoldSet) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rooms file: %w", err)
	}
	defer f.Close()
	return ParseRooms(f, directions)
}
