// Package flatfile reads and writes the server's flat text data
// files: per-player record files, the rooms file, and the message
// template file.
package flatfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smallmud/smallmud/pkg/player"
)

// PlayerExt is the suffix for player record files.
const PlayerExt = ".player"

// EncodeRecord renders a record in the flat player-file format:
// password on the first line, room vnum on the second, the flag
// tokens space-separated on the third.
func EncodeRecord(rec *player.Record) []byte {
	var sb strings.Builder
	sb.WriteString(rec.Password)
	sb.WriteByte('\n')
	sb.WriteString(strconv.Itoa(rec.Room))
	sb.WriteByte('\n')
	sb.WriteString(strings.Join(rec.FlagList(), " "))
	sb.WriteByte('\n')
	return []byte(sb.String())
}

// DecodeRecord parses the flat player-file format produced by
// EncodeRecord. Save-then-load round-trips exactly.
func DecodeRecord(name string, data []byte) (*player.Record, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("player record for %s is truncated", name)
	}

	rec := player.NewRecord(name)
	rec.Password = strings.TrimSpace(lines[0])

	fields := strings.Fields(lines[1])
	if len(fields) == 0 {
		return nil, fmt.Errorf("player record for %s: bad room %q", name, lines[1])
	}
	room, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("player record for %s: bad room %q", name, lines[1])
	}
	rec.Room = room

	if len(lines) > 2 {
		for _, flag := range strings.Fields(lines[2]) {
			rec.SetFlag(flag)
		}
	}
	return rec, nil
}

// Dir is a player.Store backed by one file per player in a directory.
type Dir struct {
	path string
}

// NewDir creates a player store rooted at path. The directory is
// created on the first Save.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) file(name string) string {
	return filepath.Join(d.path, name+PlayerExt)
}

// Load reads the record for name, or player.ErrNotFound.
func (d *Dir) Load(name string) (*player.Record, error) {
	data, err := os.ReadFile(d.file(name))
	if os.IsNotExist(err) {
		return nil, player.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", name, err)
	}
	return DecodeRecord(name, data)
}

// Save writes the record, creating the directory if needed.
func (d *Dir) Save(rec *player.Record) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("saving player %s: %w", rec.Name, err)
	}
	if err := os.WriteFile(d.file(rec.Name), EncodeRecord(rec), 0o644); err != nil {
		return fmt.Errorf("saving player %s: %w", rec.Name, err)
	}
	return nil
}

// Exists reports whether a record file exists for name.
func (d *Dir) Exists(name string) (bool, error) {
	_, err := os.Stat(d.file(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var _ player.Store = (*Dir)(nil)
