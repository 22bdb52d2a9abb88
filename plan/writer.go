package plan

import (
	"gcodeplan/vec"
)

// Writer is the downstream code writer the planner flushes into. It
// formats output lines and tracks the physical printer state (position,
// extruder, E axis); the planner only decides what to emit and when.
type Writer interface {
	CurrentExtruder() int
	CurrentZ() int64
	Position2() vec.Point2
	Position3() vec.Point3
	PositionZ() int64

	SwitchExtruder(extruder int)
	Retract()
	Fan(pct int)
	Comment(comment string)
	WriteMove(p vec.Point3, speed int, lineWidth int64)
	UpdateTotalPrintTime()
}

// Boundary is the travel routing oracle: a region (the outer perimeter
// of the part) that travels should stay inside.
type Boundary interface {
	// PointInside reports whether p lies inside the boundary.
	PointInside(p vec.Point2) bool

	// MovePointInside projects p into the interior by roughly distance.
	// It fails when p is nowhere near the boundary.
	MovePointInside(p vec.Point2, distance int64) (vec.Point2, bool)

	// PathInside returns a piecewise-linear route from from to to that
	// stays inside the boundary. An empty route with ok=true means the
	// straight line is already interior. ok=false means no interior
	// route exists and the travel will cross the boundary.
	PathInside(from, to vec.Point2) ([]vec.Point2, bool)
}
