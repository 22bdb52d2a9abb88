// Package plan buffers printer motion for one layer and flushes it as
// ordered motion commands. Moves are queued into paths grouped by
// config, so post-processing passes (speed scaling for layer cooling,
// spiral Z lift, small-move coalescing, overlap removal) can rewrite
// them before anything reaches the code writer.
package plan

import (
	"gcodeplan/vec"
)

type Planner struct {
	writer Writer

	paths []*Path

	lastPosition    vec.Point2
	currentExtruder int

	forceRetraction bool
	alwaysRetract   bool

	extrudeSpeedFactor int // percent, >= 1
	travelSpeedFactor  int // percent, >= 1

	retractionMinDistance int64 // um

	totalPrintTime float64
	extraTime      float64

	outerPerimetersToAvoid Boundary
	optimizer              Optimizer

	removeOverlaps bool

	travelConfig PathConfig
}

// New makes a planner for one layer. The planner holds the writer for
// the duration of WriteQueued and must not be shared between
// goroutines.
func New(writer Writer, travelSpeed int, retractionMinDistance int64) *Planner {
	return &Planner{
		writer:                writer,
		lastPosition:          writer.Position2(),
		currentExtruder:       writer.CurrentExtruder(),
		extrudeSpeedFactor:    100,
		travelSpeedFactor:     100,
		retractionMinDistance: retractionMinDistance,
		travelConfig: PathConfig{
			Speed:   travelSpeed,
			Comment: "travel",
		},
	}
}

// latestPath returns the tail path if it is still appendable for
// config, otherwise appends a fresh path for the current extruder.
func (gp *Planner) latestPath(config *PathConfig) *Path {
	if n := len(gp.paths); n > 0 {
		p := gp.paths[n-1]
		if p.Config == config && !p.Done {
			return p
		}
	}
	p := &Path{Config: config, Extruder: gp.currentExtruder}
	gp.paths = append(gp.paths, p)
	return p
}

// ForceNewPathStart closes the tail path so the next queued move opens
// a fresh one with its own retraction decision.
func (gp *Planner) ForceNewPathStart() {
	if n := len(gp.paths); n > 0 {
		gp.paths[n-1].Done = true
	}
}

// SetExtruder switches the extruder used for subsequently queued paths.
// Returns true iff the extruder changed.
func (gp *Planner) SetExtruder(extruder int) bool {
	if extruder == gp.currentExtruder {
		return false
	}
	gp.currentExtruder = extruder
	return true
}

func (gp *Planner) CurrentExtruder() int {
	return gp.currentExtruder
}

// ForceRetract makes the next travel path retract regardless of
// distance.
func (gp *Planner) ForceRetract() {
	gp.forceRetraction = true
}

func (gp *Planner) SetAlwaysRetract(alwaysRetract bool) {
	gp.alwaysRetract = alwaysRetract
}

func (gp *Planner) SetExtrudeSpeedFactor(pct int) {
	if pct < 1 {
		pct = 1
	}
	gp.extrudeSpeedFactor = pct
}

func (gp *Planner) ExtrudeSpeedFactor() int {
	return gp.extrudeSpeedFactor
}

func (gp *Planner) SetTravelSpeedFactor(pct int) {
	if pct < 1 {
		pct = 1
	}
	gp.travelSpeedFactor = pct
}

func (gp *Planner) TravelSpeedFactor() int {
	return gp.travelSpeedFactor
}

// SetOuterPerimetersToAvoid installs the travel routing oracle. Pass
// nil to route travels as straight lines again.
func (gp *Planner) SetOuterPerimetersToAvoid(boundary Boundary) {
	gp.outerPerimetersToAvoid = boundary
}

// SetOptimizer overrides the island visit order used by
// QueuePolygonsByOptimizer. The default is nearest-neighbor.
func (gp *Planner) SetOptimizer(optimizer Optimizer) {
	gp.optimizer = optimizer
}

// SetRemovePerimeterOverlaps enables rewriting of self-overlapping
// perimeters at emission time. Off by default.
func (gp *Planner) SetRemovePerimeterOverlaps(on bool) {
	gp.removeOverlaps = on
}

// TotalPrintTime is the layer time estimate computed by the last
// ForceMinimumLayerTime call.
func (gp *Planner) TotalPrintTime() float64 {
	return gp.totalPrintTime
}

// ExtraTime is the cooling slack still missing after slowdown: layer
// time that speed scaling alone could not add.
func (gp *Planner) ExtraTime() float64 {
	return gp.extraTime
}

// QueueTravel queues a move to dest without extruding. When a boundary
// oracle is installed the travel is routed to stay inside it, and only
// travels that leave the boundary (or run long enough inside it) get a
// retraction.
func (gp *Planner) QueueTravel(dest vec.Point2) {
	path := gp.latestPath(&gp.travelConfig)
	z := gp.writer.CurrentZ()

	if gp.forceRetraction {
		path.Retract = true
		gp.forceRetraction = false
	} else if gp.outerPerimetersToAvoid != nil {
		if route, ok := gp.outerPerimetersToAvoid.PathInside(gp.lastPosition, dest); ok {
			inside := int64(0)
			p0 := gp.lastPosition
			for _, p := range route {
				path.Points = append(path.Points, p.At(z))
				inside += p.Sub(p0).Length()
				p0 = p
			}
			if inside > gp.retractionMinDistance {
				path.Retract = true
			}
		} else if dest.Sub(gp.lastPosition).LongerThan(gp.retractionMinDistance) {
			// no interior route: the move crosses the boundary
			path.Retract = true
		}
	} else if gp.alwaysRetract && dest.Sub(gp.lastPosition).LongerThan(gp.retractionMinDistance) {
		path.Retract = true
	}

	path.Points = append(path.Points, dest.At(z))
	gp.lastPosition = dest
}

// QueueExtrusion queues a move to dest while extruding with config.
func (gp *Planner) QueueExtrusion(dest vec.Point2, config *PathConfig) {
	path := gp.latestPath(config)
	path.Points = append(path.Points, dest.At(gp.writer.CurrentZ()))
	gp.lastPosition = dest
}

// QueuePolygon queues polygon starting at startIdx. Closed-loop configs
// traverse the whole ring and close it; open configs traverse forward
// from the head or backward from anywhere else.
func (gp *Planner) QueuePolygon(polygon vec.Polygon, startIdx int, config *PathConfig) {
	n := len(polygon)
	start := polygon[startIdx]

	if !config.Spiralize && gp.lastPosition != start {
		gp.QueueTravel(start)
	}

	switch {
	case config.ClosedLoop:
		for i := 1; i < n; i++ {
			gp.QueueExtrusion(polygon[(startIdx+i)%n], config)
		}
		if n > 2 {
			gp.QueueExtrusion(start, config)
		}
	case startIdx == 0:
		for i := 1; i < n; i++ {
			gp.QueueExtrusion(polygon[i], config)
		}
	default:
		for i := n - 1; i >= 1; i-- {
			gp.QueueExtrusion(polygon[(startIdx+i)%n], config)
		}
	}
}

// QueuePolygonsByOptimizer queues polygons in the visit order chosen by
// the installed optimizer.
func (gp *Planner) QueuePolygonsByOptimizer(polygons []vec.Polygon, config *PathConfig) {
	optimizer := gp.optimizer
	if optimizer == nil {
		optimizer = NearestOptimizer{}
	}
	for _, v := range optimizer.Order(polygons, gp.lastPosition) {
		gp.QueuePolygon(polygons[v.Polygon], v.Start, config)
	}
}

// MoveInsideTheOuterPerimeter moves the head into the boundary interior
// by roughly distance before the next travel. The projection is applied
// twice so that a tight corner, where one projection lands on the wrong
// side, still ends up interior. Both projections are best-effort; only
// the final inside check decides.
func (gp *Planner) MoveInsideTheOuterPerimeter(distance int64) {
	if gp.outerPerimetersToAvoid == nil || gp.outerPerimetersToAvoid.PointInside(gp.lastPosition) {
		return
	}
	p := gp.lastPosition
	p, _ = gp.outerPerimetersToAvoid.MovePointInside(p, distance)
	p, _ = gp.outerPerimetersToAvoid.MovePointInside(p, distance)
	if gp.outerPerimetersToAvoid.PointInside(p) {
		gp.QueueTravel(p)
		// close the path so any retraction happens after this move,
		// not before it
		gp.ForceNewPathStart()
	}
}
