package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/muesli/termenv"

	"github.com/idursun/mapview/internal/config"
	"github.com/idursun/mapview/internal/entities"
	"github.com/idursun/mapview/internal/scene"
	"github.com/idursun/mapview/internal/ui"
)

var Version = "dev"

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	var dataFiles stringList
	configPath := flag.String("config", "", "Path to the config file")
	startTour := flag.Bool("tour", false, "Start the guided tour")
	versionFlag := flag.Bool("version", false, "Show version")
	help := flag.Bool("help", false, "Show help")
	flag.Var(&dataFiles, "data", "Entity file to load (.geojson, .json, .toml, .yaml); repeatable")
	flag.Parse()

	if *help {
		fmt.Println("Usage: mapview [options]")
		fmt.Println("\nBrowse, search and tour geographic entities in the terminal.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("mapview %s\n", Version)
		os.Exit(0)
	}

	logger, closeLog, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load config: %v\n", err)
		os.Exit(1)
	}
	config.Current = cfg
	if content, err := readConfig(*configPath); err == nil {
		for _, warning := range config.UnknownKeyWarnings(content) {
			logger.Warn("config", slog.String("warning", warning))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loaded, err := loadEntities(ctx, cfg, dataFiles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load entities: %v\n", err)
		os.Exit(1)
	}
	logger.Info("entities loaded", slog.Int("count", len(loaded)))

	model, err := ui.NewUI(ui.Options{
		Config:    cfg,
		Entities:  loaded,
		StartTour: *startTour,
		NoColor:   termenv.EnvNoColor(),
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
	defer model.Close()

	p := tea.NewProgram(ui.New(model))
	if path := config.ResolvePath(*configPath); path != "" {
		err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
			p.Send(ui.ConfigReloadedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			logger.Warn("config hot reload disabled", slog.String("path", path), slog.Any("error", err))
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes debug records to mapview.log when MAPVIEW_DEBUG is set and
// discards them otherwise.
func newLogger() (*slog.Logger, func(), error) {
	if os.Getenv("MAPVIEW_DEBUG") == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile("mapview.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), func() { _ = f.Close() }, nil
}

func readConfig(path string) (string, error) {
	data, err := os.ReadFile(config.ResolvePath(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// loadEntities reads the configured files plus extra, or the embedded capitals
// when neither names a file.
func loadEntities(ctx context.Context, cfg *config.Config, extra []string) ([]scene.Entity, error) {
	paths := append(append([]string(nil), cfg.Data.Files...), extra...)
	if len(paths) == 0 {
		return entities.Default()
	}
	return entities.Load(ctx, paths)
}
