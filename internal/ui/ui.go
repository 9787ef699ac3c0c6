package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"

	"github.com/idursun/mapview/internal/bridge"
	"github.com/idursun/mapview/internal/config"
	"github.com/idursun/mapview/internal/renderer"
	"github.com/idursun/mapview/internal/renderer/terminal"
	"github.com/idursun/mapview/internal/scene"
	"github.com/idursun/mapview/internal/tour"
	"github.com/idursun/mapview/internal/ui/finder"
	"github.com/idursun/mapview/internal/ui/flash"
	"github.com/idursun/mapview/internal/watch"
)

// ConfigReloadedMsg carries the result of reloading the config file.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

type Options struct {
	Config    *config.Config
	Entities  []scene.Entity
	StartTour bool
	// NoColor renders the view without escape sequences.
	NoColor bool
	Logger  *slog.Logger
	// Now is the clock used for camera animations.
	Now func() time.Time
}

type Model struct {
	store     *scene.Store
	bridge    *bridge.Bridge
	scene     *terminal.Scene
	tour      *tour.Tour
	finder    *finder.Model
	flash     *flash.Model
	help      help.Model
	keys      keyMap
	showHelp  bool
	startTour bool
	noColor   bool
	width     int
	height    int
	pending   []tea.Cmd
	logger    *slog.Logger
	unwatch   func()
}

func NewUI(options Options) (*Model, error) {
	cfg := options.Config
	if cfg == nil {
		cfg = config.Current
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	state, err := scene.NewState(options.Entities)
	if err != nil {
		return nil, fmt.Errorf("build state: %w", err)
	}
	store := scene.NewStore(state, logger)

	sc := terminal.New(terminal.Options{
		Camera:          terminal.Camera{Lon: cfg.Camera.Lon, Lat: cfg.Camera.Lat, Zoom: cfg.Camera.Zoom},
		InteractionIdle: config.GetInteractionIdle(cfg),
		Logger:          logger,
		Now:             options.Now,
	})
	b, err := bridge.New(store, sc, bridge.Options{
		GoTo:         goToOptions(cfg),
		AutoDeselect: config.GetAutoDeselectTimeout(cfg),
		Layer:        LayerSpec(cfg, store.GetState().Entities()),
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("register layer: %w", err)
	}

	m := &Model{
		store:     store,
		bridge:    b,
		scene:     sc,
		tour:      tour.New(store, config.GetTourInterval(cfg), cfg.Tour.Loop),
		flash:     flash.New(config.GetExpiringFlashMessageTimeout(cfg)),
		help:      help.New(),
		keys:      newKeyMap(cfg.UI.Keys),
		startTour: options.StartTour,
		noColor:   options.NoColor,
		logger:    logger.With(slog.String("component", "ui")),
	}
	m.unwatch = watch.Attach[*scene.State, bool](store, scene.OnTourField, m.onTourChanged)
	return m, nil
}

// LayerSpec describes the entity layer the way cfg styles it.
func LayerSpec(cfg *config.Config, entities []*scene.Entity) renderer.LayerSpec {
	return renderer.LayerSpec{
		Title:            cfg.Layer.Title,
		Geometry:         renderer.GeometryPoint,
		Fields:           renderer.EntityFields,
		LabelField:       cfg.Layer.LabelField,
		Renderer:         uniqueValues(cfg),
		HighlightColor:   cfg.Highlight.Color,
		HighlightOpacity: cfg.Highlight.Opacity,
		Entities:         entities,
	}
}

func uniqueValues(cfg *config.Config) renderer.UniqueValueRenderer {
	values := make([]renderer.UniqueValue, len(cfg.Layer.Values))
	for i, v := range cfg.Layer.Values {
		values[i] = renderer.UniqueValue{Value: v.Value, Label: v.Label, Color: v.Color}
	}
	return renderer.UniqueValueRenderer{Modulo: cfg.Layer.Modulo, Values: values}
}

func goToOptions(cfg *config.Config) renderer.GoToOptions {
	return renderer.GoToOptions{Zoom: cfg.GoTo.Zoom, Duration: config.GetGoToDuration(cfg)}
}

func (m *Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.startTour {
		cmds = append(cmds, m.tour.Start())
	}
	return tea.Batch(append(cmds, m.flush())...)
}

// Close detaches every observer from the store.
func (m *Model) Close() {
	if m.unwatch != nil {
		m.unwatch()
	}
	m.bridge.Close()
	m.scene.Close()
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scene.SetSize(m.width, m.sceneHeight())
	case ConfigReloadedMsg:
		cmds = append(cmds, m.applyConfig(msg.Config, msg.Err))
	case finder.SelectedMsg:
		m.finder = nil
		m.bridge.Select(msg.Entity)
	case finder.NotFoundMsg:
		m.finder = nil
		cmds = append(cmds, m.flash.Add(fmt.Sprintf("No entity matches %q", msg.Query), nil))
	case finder.CancelledMsg:
		m.finder = nil
	case tea.KeyPressMsg:
		if m.finder != nil {
			cmds = append(cmds, m.finder.Update(msg))
			break
		}
		cmds = append(cmds, m.handleKey(msg))
	case tea.MouseMsg:
		if m.finder != nil {
			break
		}
		cmds = append(cmds, m.scene.Update(msg))
	default:
		if m.finder != nil {
			cmds = append(cmds, m.finder.Update(msg))
		}
		cmds = append(cmds, m.scene.Update(msg), m.tour.Update(msg), m.flash.Update(msg))
	}
	cmds = append(cmds, m.bridge.Update(msg), m.flush())
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Next):
		m.bridge.SelectNext(1)
	case key.Matches(msg, m.keys.Prev):
		m.bridge.SelectNext(-1)
	case key.Matches(msg, m.keys.Find):
		m.finder = finder.New(m.store.GetState().Entities())
		return m.finder.Init()
	case key.Matches(msg, m.keys.Tour):
		return m.tour.Toggle()
	case key.Matches(msg, m.keys.Deselect):
		if m.showHelp {
			m.showHelp = false
			return nil
		}
		if m.store.GetState().Selected() == nil && m.flash.Any() {
			m.flash.DeleteOldest()
			return nil
		}
		m.bridge.Select(nil)
	case key.Matches(msg, m.keys.Up):
		m.scene.Pan(0, -2)
	case key.Matches(msg, m.keys.Down):
		m.scene.Pan(0, 2)
	case key.Matches(msg, m.keys.Left):
		m.scene.Pan(-4, 0)
	case key.Matches(msg, m.keys.Right):
		m.scene.Pan(4, 0)
	case key.Matches(msg, m.keys.ZoomIn):
		m.scene.Zoom(1)
	case key.Matches(msg, m.keys.ZoomOut):
		m.scene.Zoom(-1)
	}
	return nil
}

// flush collects the commands queued by the store observers and the scene.
func (m *Model) flush() tea.Cmd {
	cmds := m.pending
	m.pending = nil
	return tea.Batch(append(cmds, m.bridge.Flush(), m.scene.Pending())...)
}

func (m *Model) onTourChanged(onTour, _ bool, _ string) {
	if onTour {
		m.pending = append(m.pending, m.flash.Add("Tour started", nil), m.flash.SetBusy("touring"))
		return
	}
	m.flash.SetBusy("")
	m.pending = append(m.pending, m.flash.Add("Tour stopped", nil))
}

// applyConfig re-applies styling and timing. The entity collection is kept.
func (m *Model) applyConfig(cfg *config.Config, err error) tea.Cmd {
	if err != nil {
		m.logger.Warn("config reload failed", slog.Any("error", err))
		return m.flash.Add("", fmt.Errorf("config reload: %w", err))
	}
	config.Current = cfg
	m.scene.SetHighlight(cfg.Highlight.Color, cfg.Highlight.Opacity)
	m.scene.SetUniqueValues(uniqueValues(cfg))
	m.scene.SetIdle(config.GetInteractionIdle(cfg))
	m.bridge.SetTiming(goToOptions(cfg), config.GetAutoDeselectTimeout(cfg))
	m.tour.SetInterval(config.GetTourInterval(cfg))
	m.tour.SetLoop(cfg.Tour.Loop)
	m.flash.SetTimeout(config.GetExpiringFlashMessageTimeout(cfg))
	m.keys = newKeyMap(cfg.UI.Keys)
	return m.flash.Add("Config reloaded", nil)
}

func (m *Model) sceneHeight() int {
	return max(m.height-1, 0)
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	buf := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(m.scene.View()).Draw(buf, uv.Rect(0, 0, m.width, m.sceneHeight()))
	uv.NewStyledString(m.statusLine()).Draw(buf, uv.Rect(0, m.height-1, m.width, 1))

	if m.showHelp {
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).
			Render(m.help.FullHelpView(m.keys.FullHelp()))
		w, h := lipgloss.Size(box)
		uv.NewStyledString(box).Draw(buf, uv.Rect(0, max(m.sceneHeight()-h, 0), min(w, m.width), h))
	}
	if m.finder != nil {
		box := m.finder.View(m.width)
		w, h := lipgloss.Size(box)
		x := max((m.width-w)/2, 0)
		y := max((m.sceneHeight()-h)/2, 0)
		uv.NewStyledString(box).Draw(buf, uv.Rect(x, y, min(w, m.width), h))
	}
	if m.noColor {
		return ansi.Strip(buf.Render())
	}
	return buf.Render()
}

// statusLine shows flash messages on the left and the selection and key hints
// on the right. Hints are dropped first when the line is too narrow.
func (m *Model) statusLine() string {
	left := m.flash.View(m.width)
	var name string
	if selected := m.store.GetState().Selected(); selected != nil {
		name = lipgloss.NewStyle().Bold(true).Render(selected.Name)
	}
	hints := m.help.ShortHelpView(m.keys.ShortHelp())

	right := strings.TrimSpace(name + "  " + hints)
	if lipgloss.Width(left)+lipgloss.Width(right)+1 > m.width {
		right = name
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	line := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

var _ tea.Model = (*wrapper)(nil)

type (
	frameTickMsg struct{}
	wrapper      struct {
		ui                 *Model
		scheduledNextFrame bool
		render             bool
		cachedFrame        string
	}
)

func (w *wrapper) Init() tea.Cmd {
	return w.ui.Init()
}

func (w *wrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(frameTickMsg); ok {
		w.render = true
		w.scheduledNextFrame = false
		return w, nil
	}
	cmd := w.ui.Update(msg)
	if !w.scheduledNextFrame {
		w.scheduledNextFrame = true
		return w, tea.Batch(cmd, tea.Tick(time.Millisecond*8, func(time.Time) tea.Msg {
			return frameTickMsg{}
		}))
	}
	return w, cmd
}

func (w *wrapper) View() tea.View {
	if w.render {
		w.cachedFrame = w.ui.View()
		w.render = false
	}
	v := tea.NewView(w.cachedFrame)
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// New wraps ui as a program model that redraws at most once per frame.
func New(ui *Model) tea.Model {
	return &wrapper{ui: ui}
}
