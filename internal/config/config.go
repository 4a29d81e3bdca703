package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vedantwpatil/focusglide/internal/magnet"
	"github.com/vedantwpatil/focusglide/internal/momentum"
	"github.com/vedantwpatil/focusglide/internal/motion"
	"github.com/vedantwpatil/focusglide/internal/tracker"
)

// ErrInvalidConfig is wrapped by every load failure caused by file contents.
var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Momentum momentum.Config   `yaml:"momentum"`
	Magnet   magnet.Config     `yaml:"magnet"`
	Tracker  tracker.Config    `yaml:"tracker"`
	Motion   motion.LoopConfig `yaml:"motion"`
	Settings motion.Settings   `yaml:"settings"`
}

func Default() *Config {
	return &Config{
		Momentum: momentum.DefaultConfig(),
		Magnet:   magnet.DefaultConfig(),
		Tracker:  tracker.DefaultConfig(),
		Motion:   motion.DefaultLoopConfig(),
		Settings: motion.DefaultSettings(),
	}
}

// Engine converts the file layout into what motion.New takes. Friction lives
// under settings only.
func (c *Config) Engine() motion.Config {
	m := c.Momentum
	m.Friction = c.Settings.Friction
	return motion.Config{
		Loop:     c.Motion,
		Momentum: m,
		Magnet:   c.Magnet,
		Tracker:  c.Tracker,
		Settings: c.Settings,
	}
}

func (c *Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Load overlays the file at path onto the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load without the file. Unknown keys are rejected so a misplaced
// setting cannot be silently ignored.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
