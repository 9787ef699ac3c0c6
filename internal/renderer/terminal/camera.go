package terminal

import (
	"math"
	"time"

	"github.com/idursun/mapview/internal/renderer"
	"github.com/idursun/mapview/internal/scene"
)

const (
	minZoom = 1.0
	maxZoom = 12.0
	maxLat  = 85.0
	// terminal cells are about twice as tall as they are wide
	cellAspect = 2.0
)

// Camera is the centre of the view and its zoom level. Zoom 1 shows the whole
// world across the view width; each level halves the span.
type Camera struct {
	Lon  float64
	Lat  float64
	Zoom float64
}

func (c Camera) clamped() Camera {
	c.Zoom = math.Min(math.Max(c.Zoom, minZoom), maxZoom)
	c.Lat = math.Min(math.Max(c.Lat, -maxLat), maxLat)
	c.Lon = wrapLon(c.Lon)
	return c
}

func (c Camera) degreesPerColumn(width int) float64 {
	span := 360 / math.Pow(2, c.Zoom-1)
	return span / float64(max(width, 1))
}

// project maps loc to a cell of a width x height view. ok is false when the
// cell falls outside the view.
func (c Camera) project(loc scene.Location, width, height int) (x, y int, ok bool) {
	dpc := c.degreesPerColumn(width)
	dpr := dpc * cellAspect
	fx := float64(width)/2 + wrapLon(loc.Lon-c.Lon)/dpc
	fy := float64(height)/2 + (c.Lat-loc.Lat)/dpr
	x, y = int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && x < width && y >= 0 && y < height
}

// unproject returns the location at the centre of cell (x, y).
func (c Camera) unproject(x, y, width, height int) scene.Location {
	dpc := c.degreesPerColumn(width)
	dpr := dpc * cellAspect
	return scene.Location{
		Lon: wrapLon(c.Lon + (float64(x)+0.5-float64(width)/2)*dpc),
		Lat: c.Lat - (float64(y)+0.5-float64(height)/2)*dpr,
	}
}

// pan moves the view by whole cells.
func (c Camera) pan(dx, dy, width int) Camera {
	dpc := c.degreesPerColumn(width)
	c.Lon += float64(dx) * dpc
	c.Lat -= float64(dy) * dpc * cellAspect
	return c.clamped()
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// lerp interpolates between two cameras, crossing the antimeridian when that
// is shorter.
func lerp(from, to Camera, t float64) Camera {
	return Camera{
		Lon:  wrapLon(from.Lon + wrapLon(to.Lon-from.Lon)*t),
		Lat:  from.Lat + (to.Lat-from.Lat)*t,
		Zoom: from.Zoom + (to.Zoom-from.Zoom)*t,
	}
}

type animation struct {
	from     Camera
	to       Camera
	start    time.Time
	duration time.Duration
	promise  *renderer.Promise[struct{}]
}

// at returns the camera at time now and whether the animation has ended.
func (a *animation) at(now time.Time) (Camera, bool) {
	elapsed := now.Sub(a.start)
	if elapsed >= a.duration {
		return a.to, true
	}
	t := float64(elapsed) / float64(a.duration)
	return lerp(a.from, a.to, easeOutCubic(max(t, 0))), false
}
