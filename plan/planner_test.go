package plan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcodeplan/vec"
)

// fakeWriter records everything the emission pass sends downstream.
type fakeWriter struct {
	z        int64
	extruder int
	pos      vec.Point3

	moves  []fakeMove
	events []string
}

type fakeMove struct {
	p     vec.Point3
	speed int
	width int64
}

func (w *fakeWriter) CurrentExtruder() int   { return w.extruder }
func (w *fakeWriter) CurrentZ() int64        { return w.z }
func (w *fakeWriter) Position2() vec.Point2  { return w.pos.XY() }
func (w *fakeWriter) Position3() vec.Point3  { return w.pos }
func (w *fakeWriter) PositionZ() int64       { return w.pos.Z }
func (w *fakeWriter) UpdateTotalPrintTime()  { w.events = append(w.events, "update-time") }
func (w *fakeWriter) Retract()               { w.events = append(w.events, "retract") }
func (w *fakeWriter) Comment(comment string) { w.events = append(w.events, "comment:"+comment) }

func (w *fakeWriter) SwitchExtruder(extruder int) {
	w.extruder = extruder
	w.events = append(w.events, fmt.Sprintf("switch:%d", extruder))
}

func (w *fakeWriter) Fan(pct int) {
	w.events = append(w.events, fmt.Sprintf("fan:%d", pct))
}

func (w *fakeWriter) WriteMove(p vec.Point3, speed int, lineWidth int64) {
	w.moves = append(w.moves, fakeMove{p: p, speed: speed, width: lineWidth})
	w.events = append(w.events, fmt.Sprintf("move:%d,%d", p.X, p.Y))
	w.pos = p
}

// fakeBoundary is a scripted avoidance oracle.
type fakeBoundary struct {
	inside  func(p vec.Point2) bool
	moveTo  vec.Point2
	route   []vec.Point2
	routeOK bool
}

func (b *fakeBoundary) PointInside(p vec.Point2) bool {
	return b.inside(p)
}

func (b *fakeBoundary) MovePointInside(p vec.Point2, distance int64) (vec.Point2, bool) {
	return b.moveTo, true
}

func (b *fakeBoundary) PathInside(from, to vec.Point2) ([]vec.Point2, bool) {
	return b.route, b.routeOK
}

func xy(x, y int64) vec.Point2 {
	return vec.Point2{X: x, Y: y}
}

func TestQueueGroupsByConfig(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	config := &PathConfig{Speed: 50, LineWidth: 400, Comment: TypeWallInner}

	gp.QueueExtrusion(xy(1000, 0), config)
	gp.QueueExtrusion(xy(2000, 0), config)
	require.Len(t, gp.paths, 1)
	assert.Len(t, gp.paths[0].Points, 2)
	assert.Equal(t, xy(2000, 0), gp.lastPosition)

	other := &PathConfig{Speed: 50, LineWidth: 400, Comment: TypeWallInner}
	gp.QueueExtrusion(xy(3000, 0), other)
	require.Len(t, gp.paths, 2, "a different config instance starts a new path")

	gp.ForceNewPathStart()
	gp.QueueExtrusion(xy(4000, 0), other)
	require.Len(t, gp.paths, 3, "a done path takes no more appends")
}

func TestQueueTravelRetraction(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	gp.SetAlwaysRetract(true)

	gp.QueueTravel(xy(500, 0))
	require.Len(t, gp.paths, 1)
	assert.False(t, gp.paths[0].Retract, "short travels never retract")

	gp.ForceNewPathStart()
	gp.QueueTravel(xy(5500, 0))
	require.Len(t, gp.paths, 2)
	assert.True(t, gp.paths[1].Retract)
}

func TestForceRetract(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)

	gp.ForceRetract()
	gp.QueueTravel(xy(10, 0))
	require.Len(t, gp.paths, 1)
	assert.True(t, gp.paths[0].Retract, "forced retraction ignores distance")

	gp.ForceNewPathStart()
	gp.QueueTravel(xy(20, 0))
	assert.False(t, gp.paths[1].Retract, "the force flag is consumed")
}

func TestQueueTravelWithBoundaryRoute(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	gp.SetOuterPerimetersToAvoid(&fakeBoundary{
		inside:  func(p vec.Point2) bool { return true },
		route:   []vec.Point2{xy(100, 100), xy(200, 100)},
		routeOK: true,
	})

	gp.QueueTravel(xy(300, 0))
	require.Len(t, gp.paths, 1)
	require.Len(t, gp.paths[0].Points, 3, "route points precede the destination")
	assert.Equal(t, int64(100), gp.paths[0].Points[0].X)
	assert.False(t, gp.paths[0].Retract, "a short in-boundary route needs no retraction")
}

func TestQueueTravelWithLongBoundaryRoute(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	gp.SetOuterPerimetersToAvoid(&fakeBoundary{
		inside:  func(p vec.Point2) bool { return true },
		route:   []vec.Point2{xy(2000, 0), xy(2000, 2000)},
		routeOK: true,
	})

	gp.QueueTravel(xy(0, 2000))
	assert.True(t, gp.paths[0].Retract, "a long in-boundary route still retracts")
}

func TestQueueTravelCrossingBoundary(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	gp.SetOuterPerimetersToAvoid(&fakeBoundary{
		inside:  func(p vec.Point2) bool { return true },
		routeOK: false,
	})

	gp.QueueTravel(xy(5000, 0))
	assert.True(t, gp.paths[0].Retract, "crossing the boundary retracts")

	gp.ForceNewPathStart()
	gp.QueueTravel(xy(5500, 0))
	assert.False(t, gp.paths[1].Retract, "unless the crossing is short")
}

func TestQueuePolygonClosed(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	config := &PathConfig{Speed: 50, LineWidth: 400, Comment: TypeWallOuter, ClosedLoop: true}
	square := vec.Polygon{xy(0, 0), xy(10000, 0), xy(10000, 10000), xy(0, 10000)}

	gp.QueuePolygon(square, 1, config)

	// travel to the start vertex, then all the way around and close
	require.Len(t, gp.paths, 2)
	assert.Equal(t, int64(0), gp.paths[0].Config.LineWidth)
	assert.Equal(t, xy(10000, 0), gp.paths[0].Points[0].XY())

	var visited []vec.Point2
	for _, p := range gp.paths[1].Points {
		visited = append(visited, p.XY())
	}
	assert.Equal(t, []vec.Point2{
		xy(10000, 10000), xy(0, 10000), xy(0, 0), xy(10000, 0),
	}, visited)
	assert.Equal(t, xy(10000, 0), gp.lastPosition)
}

func TestQueuePolygonOpenForward(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	config := &PathConfig{Speed: 50, LineWidth: 400, Comment: "FILL"}
	line := vec.Polygon{xy(0, 0), xy(1000, 0), xy(2000, 0)}

	gp.QueuePolygon(line, 0, config)

	require.Len(t, gp.paths, 1, "already at the head: no travel")
	var visited []vec.Point2
	for _, p := range gp.paths[0].Points {
		visited = append(visited, p.XY())
	}
	assert.Equal(t, []vec.Point2{xy(1000, 0), xy(2000, 0)}, visited)
}

func TestQueuePolygonOpenBackward(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)
	config := &PathConfig{Speed: 50, LineWidth: 400, Comment: "FILL"}
	line := vec.Polygon{xy(0, 0), xy(1000, 0), xy(2000, 0)}

	gp.QueuePolygon(line, 2, config)

	require.Len(t, gp.paths, 2)
	assert.Equal(t, xy(2000, 0), gp.paths[0].Points[0].XY())

	var visited []vec.Point2
	for _, p := range gp.paths[1].Points {
		visited = append(visited, p.XY())
	}
	assert.Equal(t, []vec.Point2{xy(1000, 0), xy(0, 0)}, visited)
}

func TestQueuePolygonsByOptimizer(t *testing.T) {
	w := &fakeWriter{pos: vec.Point3{X: 21000, Y: 0}}
	gp := New(w, 150, 1000)
	config := &PathConfig{Speed: 50, LineWidth: 400, Comment: TypeWallInner, ClosedLoop: true}

	far := vec.Polygon{xy(0, 0), xy(1000, 0), xy(1000, 1000), xy(0, 1000)}
	near := vec.Polygon{xy(20000, 0), xy(21000, 0), xy(21000, 1000), xy(20000, 1000)}

	gp.QueuePolygonsByOptimizer([]vec.Polygon{far, near}, config)

	// the nearer island is visited first, entered at its nearest
	// vertex, which is exactly where the head already is: no travel
	require.NotEmpty(t, gp.paths)
	first := gp.paths[0]
	assert.NotEqual(t, int64(0), first.Config.LineWidth)
	assert.Equal(t, xy(21000, 1000), first.Points[0].XY())

	assert.Equal(t, xy(1000, 0), gp.lastPosition, "ends on the far island's entry vertex")
}

func TestSetExtruder(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)

	assert.False(t, gp.SetExtruder(0))
	assert.True(t, gp.SetExtruder(1))
	assert.Equal(t, 1, gp.CurrentExtruder())

	config := &PathConfig{Speed: 50, LineWidth: 400, Comment: "FILL"}
	gp.QueueExtrusion(xy(1000, 0), config)
	assert.Equal(t, 1, gp.paths[0].Extruder)
}

func TestSpeedFactorClamping(t *testing.T) {
	w := &fakeWriter{}
	gp := New(w, 150, 1000)

	gp.SetExtrudeSpeedFactor(0)
	assert.Equal(t, 1, gp.ExtrudeSpeedFactor())
	gp.SetTravelSpeedFactor(-5)
	assert.Equal(t, 1, gp.TravelSpeedFactor())
}

func TestMoveInsideTheOuterPerimeter(t *testing.T) {
	w := &fakeWriter{}
	inside := xy(500, 500)
	b := &fakeBoundary{
		inside: func(p vec.Point2) bool { return p == inside },
		moveTo: inside,
	}

	gp := New(w, 150, 1000)
	gp.SetOuterPerimetersToAvoid(b)
	gp.MoveInsideTheOuterPerimeter(100)

	require.Len(t, gp.paths, 1)
	assert.Equal(t, inside, gp.paths[0].Points[0].XY())
	assert.True(t, gp.paths[0].Done, "the inside-move closes its path")
	assert.Equal(t, inside, gp.lastPosition)

	// already inside: nothing to do
	gp.MoveInsideTheOuterPerimeter(100)
	assert.Len(t, gp.paths, 1)
}
