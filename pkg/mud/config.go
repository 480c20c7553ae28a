package mud

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smallmud/smallmud/pkg/textutil"
)

// Duration is a time.Duration that also unmarshals from YAML strings
// like "500ms" or "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(v)
	case float64:
		*d = Duration(v)
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Config holds server configuration.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the metrics endpoint

	Prompt              string   `yaml:"prompt"`
	InitialRoom         int      `yaml:"initial_room"`
	MaxPasswordAttempts int      `yaml:"max_password_attempts"`
	TickInterval        Duration `yaml:"tick_interval"`         // game loop wakeup
	TickMessage         string   `yaml:"tick_message"`          // periodic world message
	TickMessageInterval Duration `yaml:"tick_message_interval"` // how often it fires

	Data    DataConfig    `yaml:"data"`
	Control ControlConfig `yaml:"control"`
}

// DataConfig holds paths to the external data the server consumes.
type DataConfig struct {
	PlayersDir   string `yaml:"players_dir"`
	BoltPath     string `yaml:"bolt_path"` // non-empty selects the bbolt player store
	RoomsFile    string `yaml:"rooms_file"`
	MessagesFile string `yaml:"messages_file"`

	ScrollbackPath      string   `yaml:"scrollback_path"` // non-empty enables the SQLite scrollback
	ScrollbackRetention Duration `yaml:"scrollback_retention"`
}

// ControlConfig holds the control lists: movement direction tokens,
// names new players may not take, and source addresses that are
// rejected before a session is created.
type ControlConfig struct {
	Directions   []string `yaml:"directions"`
	BadNames     []string `yaml:"bad_names"`
	BlockedHosts []string `yaml:"blocked_hosts"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:          ":4000",
		Prompt:              "> ",
		InitialRoom:         1000,
		MaxPasswordAttempts: 3,
		TickInterval:        Duration(500 * time.Millisecond),
		TickMessage:         "You hear creepy noises ...",
		TickMessageInterval: Duration(60 * time.Second),
		Data: DataConfig{
			PlayersDir:          "./players",
			RoomsFile:           "./rooms/rooms.txt",
			MessagesFile:        "./system/messages.txt",
			ScrollbackRetention: Duration(24 * time.Hour),
		},
		Control: ControlConfig{
			Directions: []string{"n", "s", "e", "w", "u", "d"},
			BadNames:   []string{"new", "quit", "look", "say", "admin"},
		},
	}
}

// LoadConfig reads a YAML config file and applies defaults for any
// field left unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":4000"
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "> "
	}
	if cfg.InitialRoom == 0 {
		cfg.InitialRoom = 1000
	}
	if cfg.MaxPasswordAttempts == 0 {
		cfg.MaxPasswordAttempts = 3
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = Duration(500 * time.Millisecond)
	}
	if cfg.TickMessageInterval == 0 {
		cfg.TickMessageInterval = Duration(60 * time.Second)
	}
	if cfg.Data.ScrollbackRetention == 0 {
		cfg.Data.ScrollbackRetention = Duration(24 * time.Hour)
	}
	return cfg, nil
}

// DirectionSet returns the configured movement tokens as a
// case-insensitive set.
func (c *Config) DirectionSet() textutil.FoldSet {
	return textutil.NewFoldSet(c.Control.Directions...)
}

// BadNameSet returns the forbidden-name list as a case-insensitive set.
func (c *Config) BadNameSet() textutil.FoldSet {
	return textutil.NewFoldSet(c.Control.BadNames...)
}

// BlockedHostSet returns the blocked source addresses. Matching is
// case-sensitive (addresses are literal).
func (c *Config) BlockedHostSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Control.BlockedHosts))
	for _, h := range c.Control.BlockedHosts {
		set[h] = struct{}{}
	}
	return set
}
