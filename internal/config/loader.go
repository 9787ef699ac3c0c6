package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/BurntSushi/toml"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type mergeOverlay struct {
	Layer struct {
		Values []UniqueValueConfig `toml:"values"`
	} `toml:"layer"`
}

func getConfigFilePath() string {
	var configDirs []string

	if dir := os.Getenv("MAPVIEW_CONFIG_DIR"); dir != "" {
		if s, err := os.Stat(dir); err == nil && s.IsDir() {
			return filepath.Join(dir, "config.toml")
		}
	}

	// os.UserConfigDir() already does this for linux leaving darwin to handle
	if runtime.GOOS == "darwin" {
		configDirs = append(configDirs, path.Join(os.Getenv("HOME"), ".config"))
		xdgConfigDir := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigDir != "" {
			configDirs = append(configDirs, xdgConfigDir)
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		configDirs = append(configDirs, configDir)
	}

	for _, dir := range configDirs {
		configPath := filepath.Join(dir, "mapview", "config.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	if len(configDirs) > 0 {
		return filepath.Join(configDirs[0], "mapview", "config.toml")
	}
	return ""
}

func loadDefaultConfig() *Config {
	data, err := configFS.ReadFile("default/config.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: no embedded default config found: %v\n", err)
		os.Exit(1)
	}

	config := &Config{}
	if err := config.Load(string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load embedded default config: %v\n", err)
		os.Exit(1)
	}
	return config
}

// Default returns a fresh copy of the embedded configuration.
func Default() *Config {
	return loadDefaultConfig()
}

// Load decodes data on top of c. Unique values are merged by value; every
// other key replaces what c had.
func (c *Config) Load(data string) error {
	baseValues := append([]UniqueValueConfig(nil), c.Layer.Values...)

	metadata, err := toml.Decode(data, c)
	if err != nil {
		return err
	}

	overlay := &mergeOverlay{}
	if _, err := toml.Decode(data, overlay); err != nil {
		return err
	}
	if metadata.IsDefined("layer", "values") {
		c.Layer.Values = mergeUniqueValues(baseValues, overlay.Layer.Values)
	}

	return c.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.GoTo.Zoom < 0 {
		errs = append(errs, fmt.Errorf("goto.zoom must not be negative, got %v", c.GoTo.Zoom))
	}
	if c.Highlight.Color != "" && !hexColor.MatchString(c.Highlight.Color) {
		errs = append(errs, fmt.Errorf("highlight.color %q is not a #rrggbb colour", c.Highlight.Color))
	}
	if c.Highlight.Opacity < 0 || c.Highlight.Opacity > 1 {
		errs = append(errs, fmt.Errorf("highlight.opacity must be within [0, 1], got %v", c.Highlight.Opacity))
	}
	if len(c.Layer.Values) > 0 && c.Layer.Modulo <= 0 {
		errs = append(errs, errors.New("layer.modulo must be positive when layer.values are set"))
	}
	for _, v := range c.Layer.Values {
		if !hexColor.MatchString(v.Color) {
			errs = append(errs, fmt.Errorf("layer value %d: colour %q is not a #rrggbb colour", v.Value, v.Color))
		}
	}
	return errors.Join(errs...)
}

// LoadFile builds a config from the embedded defaults and the file at path.
// An empty path means the user config file; a missing user config file is not
// an error.
func LoadFile(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = getConfigFilePath()
	}
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := c.Load(string(data)); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return c, nil
}

// ResolvePath returns the file LoadFile would read for path.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	return getConfigFilePath()
}
