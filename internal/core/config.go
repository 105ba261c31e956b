package core

import "fmt"

// Config holds runtime configuration for the effect host.
type Config struct {
	Width           int    `toml:"width"`              // framebuffer width in pixels
	Height          int    `toml:"height"`             // framebuffer height in pixels
	Scale           int    `toml:"scale"`              // window pixels per framebuffer pixel
	FPS             int    `toml:"fps"`                // target update rate for headless mode
	Title           string `toml:"title"`              // window title
	MemoryLimitMB   int    `toml:"memory_limit_mb"`    // per-VM memory limit, 0 for none
	MaxScriptSizeKB int    `toml:"max_script_size_kb"` // max source size accepted by a load
	Journal         string `toml:"journal"`            // reload journal database path, "" disables
	Preview         string `toml:"preview"`            // live preview listen address, "" disables
	Verbosity       int    `toml:"verbosity"`          // log verbosity passed to commonlog
}

// DefaultConfig returns the configuration used when no file or flag
// overrides a field.
func DefaultConfig() Config {
	return Config{
		Width:           320,
		Height:          240,
		Scale:           3,
		FPS:             60,
		Title:           "livefx",
		MemoryLimitMB:   64,
		MaxScriptSizeKB: 512,
	}
}

// FillDefaults replaces zero-valued fields with their defaults.
func (c *Config) FillDefaults() {
	d := DefaultConfig()
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.Scale == 0 {
		c.Scale = d.Scale
	}
	if c.FPS == 0 {
		c.FPS = d.FPS
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.MemoryLimitMB == 0 {
		c.MemoryLimitMB = d.MemoryLimitMB
	}
	if c.MaxScriptSizeKB == 0 {
		c.MaxScriptSizeKB = d.MaxScriptSizeKB
	}
}

// Validate rejects configurations the host cannot run with.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("framebuffer size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Width > 0xFFFF || c.Height > 0xFFFF {
		return fmt.Errorf("framebuffer size %dx%d exceeds 65535", c.Width, c.Height)
	}
	if c.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", c.Scale)
	}
	if c.FPS < 1 {
		return fmt.Errorf("fps must be at least 1, got %d", c.FPS)
	}
	return nil
}
