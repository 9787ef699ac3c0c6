package terminal

import (
	"image/color"
	"sort"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"

	"github.com/idursun/mapview/internal/renderer"
)

// Z layers, low to high.
const (
	zGraticule = 0
	zLayer     = 10
	zHighlight = 50
	zPopup     = 100
)

// canvas collects the operations of one frame. Draws and paints are applied
// in Z order; regions answer hit tests.
type canvas struct {
	draws        []drawOp
	paints       []paintOp
	regions      []regionOp
	orderCounter int
}

type drawOp struct {
	rect    uv.Rectangle
	content string
	z       int
	order   int
}

// paintOp overrides the background of every cell in rect.
type paintOp struct {
	rect  uv.Rectangle
	bg    ansi.Color
	z     int
	order int
}

// regionOp is a hit-testable area.
type regionOp struct {
	rect  uv.Rectangle
	hit   renderer.Hit
	z     int
	order int
}

func newCanvas() *canvas {
	return &canvas{
		draws:   make([]drawOp, 0, 32),
		regions: make([]regionOp, 0, 32),
	}
}

func (c *canvas) nextOrder() int {
	c.orderCounter++
	return c.orderCounter
}

func (c *canvas) AddDraw(rect uv.Rectangle, content string, z int) {
	c.draws = append(c.draws, drawOp{rect: rect, content: content, z: z, order: c.nextOrder()})
}

func (c *canvas) AddPaint(rect uv.Rectangle, style lipgloss.Style, z int) {
	bg := toAnsiColor(style.GetBackground())
	if bg == nil {
		return
	}
	c.paints = append(c.paints, paintOp{rect: rect, bg: bg, z: z, order: c.nextOrder()})
}

func (c *canvas) AddRegion(rect uv.Rectangle, hit renderer.Hit, z int) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return
	}
	c.regions = append(c.regions, regionOp{rect: rect, hit: hit, z: z, order: c.nextOrder()})
}

type renderOp struct {
	z     int
	order int
	draw  *drawOp
	paint *paintOp
}

// Render applies the draws, then the paints of the same or lower Z, to buf.
func (c *canvas) Render(buf uv.Screen) {
	ops := make([]renderOp, 0, len(c.draws)+len(c.paints))
	for i := range c.draws {
		ops = append(ops, renderOp{z: c.draws[i].z, order: c.draws[i].order, draw: &c.draws[i]})
	}
	for i := range c.paints {
		ops = append(ops, renderOp{z: c.paints[i].z, order: c.paints[i].order, paint: &c.paints[i]})
	}
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].z != ops[j].z {
			return ops[i].z < ops[j].z
		}
		return ops[i].order < ops[j].order
	})
	for _, op := range ops {
		if op.draw != nil {
			uv.NewStyledString(op.draw.content).Draw(buf, op.draw.rect)
			continue
		}
		paint(buf, op.paint.rect, op.paint.bg)
	}
}

func (c *canvas) RenderToString(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	buf := uv.NewScreenBuffer(width, height)
	c.Render(buf)
	return buf.Render()
}

// HitTest returns what lies under (x, y), highest Z first.
func (c *canvas) HitTest(x, y int) []renderer.Hit {
	matching := make([]regionOp, 0, 2)
	for _, r := range c.regions {
		if x >= r.rect.Min.X && x < r.rect.Max.X && y >= r.rect.Min.Y && y < r.rect.Max.Y {
			matching = append(matching, r)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].z != matching[j].z {
			return matching[i].z > matching[j].z
		}
		return matching[i].order > matching[j].order
	})
	hits := make([]renderer.Hit, len(matching))
	for i, r := range matching {
		hits[i] = r.hit
	}
	return hits
}

func paint(buf uv.Screen, rect uv.Rectangle, bg ansi.Color) {
	rect = rect.Intersect(buf.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			cell := buf.CellAt(x, y)
			// width-0 cells are the tails of wide graphemes
			if cell == nil || cell.Width == 0 {
				continue
			}
			painted := cell.Clone()
			painted.Style.Bg = bg
			buf.SetCell(x, y, painted)
		}
	}
}

// toAnsiColor converts a color.Color to the ansi.Color the screen buffer
// expects.
func toAnsiColor(c color.Color) ansi.Color {
	switch c := c.(type) {
	case nil:
		return nil
	case lipgloss.NoColor:
		return nil
	case ansi.BasicColor:
		return c
	case ansi.IndexedColor:
		return c
	default:
		if ac, ok := c.(ansi.Color); ok {
			return ac
		}
		return nil
	}
}
