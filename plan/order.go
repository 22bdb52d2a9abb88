package plan

import (
	"gcodeplan/vec"
)

// Visit names one polygon and the vertex index to start it at.
type Visit struct {
	Polygon int
	Start   int
}

// Optimizer picks the order to print a set of polygons in, and where to
// enter each one.
type Optimizer interface {
	Order(polygons []vec.Polygon, start vec.Point2) []Visit
}

// NearestOptimizer greedily visits whichever remaining polygon has a
// vertex closest to the current position, entering at that vertex. A
// closed loop ends where it starts, so the position after each visit is
// the chosen entry vertex.
type NearestOptimizer struct{}

func (NearestOptimizer) Order(polygons []vec.Polygon, start vec.Point2) []Visit {
	remaining := make(map[int]struct{})
	for i, poly := range polygons {
		if len(poly) > 0 {
			remaining[i] = struct{}{}
		}
	}

	order := make([]Visit, 0, len(remaining))
	pos := start
	for len(remaining) > 0 {
		best := Visit{Polygon: -1}
		bestDist2 := int64(0)
		for i := range remaining {
			for j, p := range polygons[i] {
				d2 := p.Sub(pos).Length2()
				if best.Polygon == -1 || d2 < bestDist2 {
					best = Visit{Polygon: i, Start: j}
					bestDist2 = d2
				}
			}
		}
		order = append(order, best)
		pos = polygons[best.Polygon][best.Start]
		delete(remaining, best.Polygon)
	}
	return order
}
