package cli

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable consulted when --config is not
// given. There is no other discovery.
const ConfigEnv = "CHARCARD_CONFIG"

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Output OutputConfig `yaml:"output"`
	Embed  EmbedConfig  `yaml:"embed"`
}

type LogConfig struct {
	// Level is a zerolog level name. Default: warn
	Level string `yaml:"level"`
	// Format is "console" or "json". Default: console
	Format string `yaml:"format"`
}

type OutputConfig struct {
	// Format for extract: json, yaml or text. Default: json
	Format string `yaml:"format"`
	// Indent is the JSON indent width; 0 means compact. Default: 2
	Indent *int `yaml:"indent"`
}

type EmbedConfig struct {
	// Keywords overrides the tEXt keywords cards are written under.
	Keywords []string `yaml:"keywords"`
	// Width and Height size the placeholder image used when no avatar is
	// given. Default: 400x600
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func defaultConfig() Config {
	indent := 2
	return Config{
		Log:    LogConfig{Level: "warn", Format: "console"},
		Output: OutputConfig{Format: "json", Indent: &indent},
		Embed:  EmbedConfig{Width: 400, Height: 600},
	}
}

// LoadConfig reads path over the defaults. An empty path yields the
// defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.merge(file)
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.Log.Level != "" {
		c.Log.Level = o.Log.Level
	}
	if o.Log.Format != "" {
		c.Log.Format = o.Log.Format
	}
	if o.Output.Format != "" {
		c.Output.Format = o.Output.Format
	}
	if o.Output.Indent != nil {
		c.Output.Indent = o.Output.Indent
	}
	if len(o.Embed.Keywords) > 0 {
		c.Embed.Keywords = o.Embed.Keywords
	}
	if o.Embed.Width > 0 {
		c.Embed.Width = o.Embed.Width
	}
	if o.Embed.Height > 0 {
		c.Embed.Height = o.Embed.Height
	}
}

func (c Config) validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q: want console or json", c.Log.Format)
	}
	switch c.Output.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("output.format %q: want json, yaml or text", c.Output.Format)
	}
	if c.Output.Indent != nil && *c.Output.Indent < 0 {
		return errors.New("output.indent must not be negative")
	}
	return nil
}
