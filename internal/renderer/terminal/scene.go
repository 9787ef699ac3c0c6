// Package terminal renders the entity layers onto a character grid.
package terminal

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/rivo/uniseg"

	"github.com/idursun/mapview/internal/renderer"
	"github.com/idursun/mapview/internal/scene"
)

const (
	frameInterval = time.Second / 30
	maxLabelWidth = 24
	popupWidth    = 36
	graticuleStep = 30.0
)

var ErrDuplicateLayer = errors.New("terminal: layer already registered")

var _ renderer.Renderer = (*Scene)(nil)

type frameMsg struct {
	at time.Time
}

type interactionIdleMsg struct{}

type Options struct {
	Camera          Camera
	InteractionIdle time.Duration
	Logger          *slog.Logger
	// Now is the clock used for animations.
	Now func() time.Time
}

type layer struct {
	spec      renderer.LayerSpec
	highlight lipgloss.Style
}

type popup struct {
	content  renderer.Popup
	location scene.Location
}

type drag struct {
	lastX, lastY int
	moved        bool
}

type styles struct {
	label     lipgloss.Style
	graticule lipgloss.Style
	popup     lipgloss.Style
	title     lipgloss.Style
}

type Scene struct {
	width, height int
	camera        Camera
	layers        []*layer
	highlights    map[scene.EntityID]int
	popup         *popup
	animation     *animation
	frameQueued   bool
	drag          *drag
	styles        styles
	logger        *slog.Logger
	now           func() time.Time

	watchMu     sync.Mutex
	watchers    map[int]func(bool)
	nextWatcher int
	interacting bool
	idle        time.Duration
	idleTimer   debouncer

	pending []tea.Cmd
}

func New(options Options) *Scene {
	now := options.Now
	if now == nil {
		now = time.Now
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	camera := options.Camera
	if camera.Zoom == 0 {
		camera.Zoom = minZoom
	}
	idle := options.InteractionIdle
	if idle <= 0 {
		idle = 300 * time.Millisecond
	}
	return &Scene{
		camera:     camera.clamped(),
		highlights: map[scene.EntityID]int{},
		watchers:   map[int]func(bool){},
		idle:       idle,
		now:        now,
		logger:     logger.With(slog.String("component", "terminal")),
		styles: styles{
			label:     lipgloss.NewStyle().Foreground(lipgloss.Color("#d0d0d0")),
			graticule: lipgloss.NewStyle().Foreground(lipgloss.Color("#3a3a3a")),
			popup:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#808080")).Padding(0, 1),
			title:     lipgloss.NewStyle().Bold(true),
		},
	}
}

func (s *Scene) SetSize(width, height int) {
	s.width, s.height = max(width, 0), max(height, 0)
}

func (s *Scene) Camera() Camera {
	return s.camera
}

// SetIdle changes how long the view must stay still before interaction is
// reported as over.
func (s *Scene) SetIdle(idle time.Duration) {
	if idle > 0 {
		s.idle = idle
	}
}

// SetHighlight restyles the highlight of every layer.
func (s *Scene) SetHighlight(hex string, opacity float64) {
	for _, l := range s.layers {
		l.spec.HighlightColor = hex
		l.spec.HighlightOpacity = opacity
		l.highlight = highlightStyle(hex, opacity)
	}
}

// SetUniqueValues restyles the markers of every layer.
func (s *Scene) SetUniqueValues(r renderer.UniqueValueRenderer) {
	for _, l := range s.layers {
		l.spec.Renderer = r
	}
}

// highlightStyle fills the highlighted marker with hex blended over black.
// Zero opacity paints nothing and leaves only the marker change.
func highlightStyle(hex string, opacity float64) lipgloss.Style {
	if hex == "" {
		hex = "#ff635e"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#000000"))
	switch {
	case opacity <= 0:
		return style
	case opacity >= 1:
		return style.Background(lipgloss.Color(hex))
	}
	r, g, b, _ := lipgloss.Color(hex).RGBA()
	blend := func(v uint32) uint8 {
		return uint8(math.Round(float64(v>>8) * opacity))
	}
	return style.Background(color.RGBA{R: blend(r), G: blend(g), B: blend(b), A: 0xff})
}

func (s *Scene) AddLayer(spec renderer.LayerSpec) error {
	for _, l := range s.layers {
		if l.spec.Title == spec.Title {
			return fmt.Errorf("%w: %q", ErrDuplicateLayer, spec.Title)
		}
	}
	s.layers = append(s.layers, &layer{spec: spec, highlight: highlightStyle(spec.HighlightColor, spec.HighlightOpacity)})
	return nil
}

func (s *Scene) HitTest(event renderer.PointerEvent) renderer.Future[[]renderer.Hit] {
	return renderer.Resolved(s.layout().HitTest(event.X, event.Y))
}

func (s *Scene) WatchInteraction(fn func(active bool)) (stop func()) {
	s.watchMu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			s.watchMu.Unlock()
		})
	}
}

type highlight struct {
	scene *Scene
	id    scene.EntityID
	once  sync.Once
}

func (h *highlight) Remove() {
	h.once.Do(func() {
		s := h.scene
		s.highlights[h.id]--
		if s.highlights[h.id] <= 0 {
			delete(s.highlights, h.id)
		}
	})
}

func (s *Scene) Highlight(id scene.EntityID) renderer.Future[renderer.Highlight] {
	if _, ok := s.find(id); !ok {
		return renderer.Rejected[renderer.Highlight](fmt.Errorf("%w: %d", renderer.ErrUnknownEntity, id))
	}
	s.highlights[id]++
	return renderer.Resolved[renderer.Highlight](&highlight{scene: s, id: id})
}

// GoTo starts a camera animation towards target. A running animation is
// interrupted. A zero zoom keeps the current zoom.
func (s *Scene) GoTo(target renderer.Target, options renderer.GoToOptions) renderer.Future[struct{}] {
	s.interrupt()
	to := Camera{Lon: target.Location.Lon, Lat: target.Location.Lat, Zoom: options.Zoom}
	if to.Zoom == 0 {
		to.Zoom = s.camera.Zoom
	}
	to = to.clamped()
	if options.Duration <= 0 {
		s.camera = to
		return renderer.Resolved(struct{}{})
	}
	promise := renderer.NewPromise[struct{}]()
	s.animation = &animation{
		from:     s.camera,
		to:       to,
		start:    s.now(),
		duration: options.Duration,
		promise:  promise,
	}
	s.queueFrame()
	return promise.Future()
}

func (s *Scene) OpenPopup(content renderer.Popup, location scene.Location) {
	s.popup = &popup{content: content, location: location}
}

func (s *Scene) ClosePopup() {
	s.popup = nil
}

// Pending returns the commands the scene needs run, such as animation frames
// and the interaction idle timer.
func (s *Scene) Pending() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

func (s *Scene) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case frameMsg:
		s.frameQueued = false
		s.advance(msg.at)
	case interactionIdleMsg:
		s.setInteracting(false)
	case tea.MouseClickMsg:
		if msg.Button == tea.MouseLeft {
			s.drag = &drag{lastX: msg.X, lastY: msg.Y}
		}
	case tea.MouseMotionMsg:
		if s.drag == nil {
			break
		}
		dx, dy := msg.X-s.drag.lastX, msg.Y-s.drag.lastY
		if dx == 0 && dy == 0 {
			break
		}
		s.drag.lastX, s.drag.lastY = msg.X, msg.Y
		s.drag.moved = true
		s.Pan(-dx, -dy)
	case tea.MouseReleaseMsg:
		d := s.drag
		s.drag = nil
		if d != nil && !d.moved {
			event := renderer.PointerEvent{X: msg.X, Y: msg.Y}
			s.pending = append(s.pending, func() tea.Msg { return renderer.ClickMsg{Event: event} })
		}
	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			s.Zoom(0.5)
		case tea.MouseWheelDown:
			s.Zoom(-0.5)
		}
	}
	return s.Pending()
}

// Pan moves the view by whole cells. It counts as user interaction.
func (s *Scene) Pan(dx, dy int) {
	s.userMoved()
	s.camera = s.camera.pan(dx, dy, s.width)
}

// Zoom changes the zoom level by delta. It counts as user interaction.
func (s *Scene) Zoom(delta float64) {
	s.userMoved()
	s.camera.Zoom += delta
	s.camera = s.camera.clamped()
}

func (s *Scene) View() string {
	return s.layout().RenderToString(s.width, s.height)
}

func (s *Scene) userMoved() {
	s.interrupt()
	s.setInteracting(true)
	s.pending = append(s.pending, s.idleTimer.Debounce(s.idle, func() tea.Msg {
		return interactionIdleMsg{}
	}))
}

// Close interrupts a running animation and drops the pending idle report.
func (s *Scene) Close() {
	s.interrupt()
	s.idleTimer.Cancel()
}

func (s *Scene) interrupt() {
	if s.animation == nil {
		return
	}
	s.animation.promise.Reject(renderer.ErrInterrupted)
	s.animation = nil
}

func (s *Scene) advance(at time.Time) {
	if s.animation == nil {
		return
	}
	camera, done := s.animation.at(at)
	s.camera = camera
	if done {
		s.animation.promise.Resolve(struct{}{})
		s.animation = nil
		return
	}
	s.queueFrame()
}

func (s *Scene) queueFrame() {
	if s.frameQueued {
		return
	}
	s.frameQueued = true
	now := s.now
	s.pending = append(s.pending, tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{at: now()}
	}))
}

func (s *Scene) setInteracting(active bool) {
	if s.interacting == active {
		return
	}
	s.interacting = active
	s.logger.Debug("interaction", slog.Bool("active", active))

	s.watchMu.Lock()
	watchers := make([]func(bool), 0, len(s.watchers))
	for i := 0; i < s.nextWatcher; i++ {
		if w, ok := s.watchers[i]; ok {
			watchers = append(watchers, w)
		}
	}
	s.watchMu.Unlock()
	for _, w := range watchers {
		w(active)
	}
}

func (s *Scene) find(id scene.EntityID) (*scene.Entity, bool) {
	for _, l := range s.layers {
		for _, e := range l.spec.Entities {
			if e.ID == id {
				return e, true
			}
		}
	}
	return nil, false
}

func (s *Scene) layout() *canvas {
	c := newCanvas()
	if s.width <= 0 || s.height <= 0 {
		return c
	}
	s.drawGraticule(c)
	for i, l := range s.layers {
		s.drawLayer(c, l, zLayer+i)
	}
	s.drawPopup(c)
	return c
}

func (s *Scene) drawGraticule(c *canvas) {
	dot := s.styles.graticule.Render("·")
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			loc := s.camera.unproject(x, y, s.width, s.height)
			next := s.camera.unproject(x+1, y+1, s.width, s.height)
			onMeridian := crosses(loc.Lon, next.Lon, graticuleStep)
			onParallel := crosses(next.Lat, loc.Lat, graticuleStep)
			if onMeridian && onParallel {
				c.AddDraw(uv.Rect(x, y, 1, 1), s.styles.graticule.Render("+"), zGraticule)
			} else if onParallel && x%2 == 0 {
				c.AddDraw(uv.Rect(x, y, 1, 1), dot, zGraticule)
			}
		}
	}
}

// crosses reports whether a multiple of step lies in [lo, hi).
func crosses(lo, hi, step float64) bool {
	if hi < lo {
		// wrapped across the antimeridian
		return true
	}
	return math.Floor(lo/step) != math.Floor(hi/step) || math.Mod(lo, step) == 0
}

func (s *Scene) drawLayer(c *canvas, l *layer, z int) {
	for _, e := range l.spec.Entities {
		x, y, ok := s.camera.project(e.Location, s.width, s.height)
		if !ok {
			continue
		}
		markerStyle := lipgloss.NewStyle()
		if symbol, ok := l.spec.Renderer.Symbol(e.ID); ok {
			markerStyle = markerStyle.Foreground(lipgloss.Color(symbol.Color))
		}
		marker := "●"
		highlighted := s.highlights[e.ID] > 0
		if highlighted {
			marker = "◉"
		}
		c.AddDraw(uv.Rect(x, y, 1, 1), markerStyle.Render(marker), z)

		label := truncate(l.spec.Label(e), min(maxLabelWidth, s.width-x-2))
		labelWidth := uniseg.StringWidth(label)
		if labelWidth > 0 {
			c.AddDraw(uv.Rect(x+2, y, labelWidth, 1), s.styles.label.Render(label), z)
		}
		width := 1
		if labelWidth > 0 {
			width = labelWidth + 2
		}
		area := uv.Rect(x, y, width, 1)
		if highlighted {
			c.AddPaint(area, l.highlight, zHighlight)
		}
		c.AddRegion(area, renderer.Hit{Layer: l.spec.Title, EntityID: e.ID, HasRecord: true}, z)
	}
}

func (s *Scene) drawPopup(c *canvas) {
	if s.popup == nil {
		return
	}
	inner := min(popupWidth, s.width-4)
	if inner <= 0 {
		return
	}
	lines := []string{s.styles.title.Render(truncate(s.popup.content.Title, inner))}
	if s.popup.content.Content != "" {
		lines = append(lines, lipgloss.NewStyle().Width(inner).Render(s.popup.content.Content))
	}
	box := s.styles.popup.Render(strings.Join(lines, "\n"))
	w, h := lipgloss.Size(box)

	x, y := 0, s.height-h
	if px, py, ok := s.camera.project(s.popup.location, s.width, s.height); ok {
		x, y = px+2, py-h
		if y < 0 {
			y = py + 1
		}
	}
	x = max(min(x, s.width-w), 0)
	y = max(min(y, s.height-h), 0)
	c.AddDraw(uv.Rect(x, y, w, h), box, zPopup)
}

// truncate shortens s to at most width cells without splitting graphemes.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	b.WriteString("…")
	return b.String()
}
