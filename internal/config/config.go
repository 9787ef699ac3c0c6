package config

import (
	"embed"
	"time"
)

//go:embed default/*.toml
var configFS embed.FS

var Current = loadDefaultConfig()

type Config struct {
	Camera    CameraConfig    `toml:"camera"`
	GoTo      GoToConfig      `toml:"goto"`
	Selection SelectionConfig `toml:"selection"`
	Tour      TourConfig      `toml:"tour"`
	Highlight HighlightConfig `toml:"highlight"`
	Layer     LayerConfig     `toml:"layer"`
	Data      DataConfig      `toml:"data"`
	UI        UIConfig        `toml:"ui"`
}

type CameraConfig struct {
	Lon  float64 `toml:"lon"`
	Lat  float64 `toml:"lat"`
	Zoom float64 `toml:"zoom"`
}

type GoToConfig struct {
	Zoom       float64 `toml:"zoom"`
	DurationMs int     `toml:"duration_ms"`
}

type SelectionConfig struct {
	AutoDeselectSeconds int `toml:"auto_deselect_seconds"`
}

type TourConfig struct {
	IntervalSeconds int  `toml:"interval_seconds"`
	Loop            bool `toml:"loop"`
}

type HighlightConfig struct {
	Color   string  `toml:"color"`
	Opacity float64 `toml:"opacity"`
}

type LayerConfig struct {
	Title      string              `toml:"title"`
	LabelField string              `toml:"label_field"`
	Modulo     int                 `toml:"modulo"`
	Values     []UniqueValueConfig `toml:"values"`
}

type UniqueValueConfig struct {
	Value int    `toml:"value"`
	Label string `toml:"label"`
	Color string `toml:"color"`
}

type DataConfig struct {
	Files []string `toml:"files"`
}

type UIConfig struct {
	FlashMessageSeconds int        `toml:"flash_message_seconds"`
	InteractionIdleMs   int        `toml:"interaction_idle_ms"`
	Keys                KeysConfig `toml:"keys"`
}

type KeysConfig struct {
	Next     []string `toml:"next"`
	Prev     []string `toml:"prev"`
	Find     []string `toml:"find"`
	Tour     []string `toml:"tour"`
	Deselect []string `toml:"deselect"`
	Up       []string `toml:"up"`
	Down     []string `toml:"down"`
	Left     []string `toml:"left"`
	Right    []string `toml:"right"`
	ZoomIn   []string `toml:"zoom_in"`
	ZoomOut  []string `toml:"zoom_out"`
	Help     []string `toml:"help"`
	Quit     []string `toml:"quit"`
}

func GetExpiringFlashMessageTimeout(c *Config) time.Duration {
	if c.UI.FlashMessageSeconds <= 0 {
		return 0
	}
	return time.Duration(c.UI.FlashMessageSeconds) * time.Second
}

func GetAutoDeselectTimeout(c *Config) time.Duration {
	if c.Selection.AutoDeselectSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Selection.AutoDeselectSeconds) * time.Second
}

func GetTourInterval(c *Config) time.Duration {
	if c.Tour.IntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Tour.IntervalSeconds) * time.Second
}

func GetGoToDuration(c *Config) time.Duration {
	return time.Duration(max(c.GoTo.DurationMs, 0)) * time.Millisecond
}

func GetInteractionIdle(c *Config) time.Duration {
	if c.UI.InteractionIdleMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.UI.InteractionIdleMs) * time.Millisecond
}
