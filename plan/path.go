package plan

import (
	"gcodeplan/vec"
)

// Path is one sequential block of points sharing a single config and
// extruder. Retract asks the emission pass to retract before the first
// move. A done path takes no further appends; the next queued move
// opens a fresh path.
type Path struct {
	Config   *PathConfig
	Extruder int
	Retract  bool
	Points   []vec.Point3
	Done     bool
}

// Fragment is a piece of a rewritten perimeter with its own extrusion
// width, produced by overlap removal.
type Fragment struct {
	Points []vec.Point3
	Width  int64 // um
}
