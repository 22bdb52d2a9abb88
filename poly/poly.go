// Package poly does polygon boolean and offset operations for the
// planner's front-ends, backed by the clipper library. A slicer uses
// these to turn a layer outline into wall loops and comb boundaries.
package poly

import (
	clipper "github.com/ctessum/go.clipper"

	"gcodeplan/vec"
)

func toPath(poly vec.Polygon) clipper.Path {
	path := make(clipper.Path, 0, len(poly))
	for _, p := range poly {
		path = append(path, clipper.NewIntPointFromFloat(float64(p.X), float64(p.Y)))
	}
	return path
}

func toPaths(polys []vec.Polygon) clipper.Paths {
	paths := make(clipper.Paths, 0, len(polys))
	for _, poly := range polys {
		paths = append(paths, toPath(poly))
	}
	return paths
}

func fromPaths(paths clipper.Paths) []vec.Polygon {
	polys := make([]vec.Polygon, 0, len(paths))
	for _, path := range paths {
		poly := make(vec.Polygon, 0, len(path))
		for _, p := range path {
			poly = append(poly, vec.Point2{X: int64(p.X), Y: int64(p.Y)})
		}
		polys = append(polys, poly)
	}
	return polys
}

// Union merges overlapping outlines into clean non-zero filled
// polygons: anticlockwise outers, clockwise holes.
func Union(polys []vec.Polygon) []vec.Polygon {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(toPaths(polys), clipper.PtSubject, true)
	solution, ok := c.Execute1(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return fromPaths(solution)
}

// Inset shrinks polygons inward by distance micrometers. A wall loop is
// the outline inset by half a line width; each further wall is one more
// line width in.
func Inset(polys []vec.Polygon, distance int64) []vec.Polygon {
	co := clipper.NewClipperOffset()
	co.AddPaths(toPaths(polys), clipper.JtMiter, clipper.EtClosedPolygon)
	return fromPaths(co.Execute(float64(-distance)))
}
