package livefx

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	// Plain-text log backend for commonlog.
	_ "github.com/tliron/commonlog/simple"
)

// DefaultConfigFile is read by the CLI when it exists and -config is not given.
const DefaultConfigFile = "livefx.toml"

// LoadConfig parses a TOML configuration file. Missing fields take their
// defaults and the result is validated.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigureLogging sets the global log verbosity: 0 logs notices and
// above, 1 adds info, 2 adds debug, -4 silences everything.
func ConfigureLogging(verbosity int) {
	commonlog.Configure(verbosity, nil)
}
