// Package avoid routes travel moves so they stay inside a boundary,
// the outer perimeter of the part, instead of dragging the nozzle
// across open space. It implements the planner's boundary capability.
package avoid

import (
	"math"

	"gcodeplan/vec"
)

const (
	// how far outside the boundary a point may be and still get
	// projected back in
	snapDistance = 2000 // um

	// clearance kept from the boundary when walking around it
	cornerOffset   = 200 // um
	crossingOffset = 200 // um

	// travels shorter than this never need combing
	minCombDistance = 1500 // um
)

// Comb is a travel router over a fixed set of boundary polygons. Outer
// outlines wind anticlockwise, holes clockwise, as a clipping library
// produces them; the interior is always to the left of an edge.
type Comb struct {
	boundary []vec.Polygon
}

func NewComb(boundary []vec.Polygon) *Comb {
	return &Comb{boundary: boundary}
}

// rotation maps points into a frame where a given direction lies along
// +X, so boundary crossings of a travel line become scanline crossings.
type rotation struct {
	c, s float64
}

func newRotation(dir vec.Point2) rotation {
	l := math.Sqrt(float64(dir.Length2()))
	if l == 0 {
		return rotation{c: 1}
	}
	return rotation{c: float64(dir.X) / l, s: float64(dir.Y) / l}
}

func (m rotation) apply(p vec.Point2) vec.Point2 {
	return vec.Point2{
		X: int64(math.Round(float64(p.X)*m.c + float64(p.Y)*m.s)),
		Y: int64(math.Round(float64(p.Y)*m.c - float64(p.X)*m.s)),
	}
}

func (m rotation) unapply(p vec.Point2) vec.Point2 {
	return vec.Point2{
		X: int64(math.Round(float64(p.X)*m.c - float64(p.Y)*m.s)),
		Y: int64(math.Round(float64(p.X)*m.s + float64(p.Y)*m.c)),
	}
}

// PointInside reports whether p is inside the boundary, by even-odd
// crossing count.
func (c *Comb) PointInside(p vec.Point2) bool {
	crossings := 0
	for _, poly := range c.boundary {
		if len(poly) < 2 {
			continue
		}
		p0 := poly[len(poly)-1]
		for _, p1 := range poly {
			if (p0.Y >= p.Y && p1.Y < p.Y) || (p1.Y >= p.Y && p0.Y < p.Y) {
				x := p0.X + (p1.X-p0.X)*(p.Y-p0.Y)/(p1.Y-p0.Y)
				if x >= p.X {
					crossings++
				}
			}
			p0 = p1
		}
	}
	return crossings%2 == 1
}

// MovePointInside projects p onto the nearest boundary edge and then
// moves it interior-ward by distance. Fails when no edge is within
// reach.
func (c *Comb) MovePointInside(p vec.Point2, distance int64) (vec.Point2, bool) {
	ret := p
	bestDist2 := int64(snapDistance) * snapDistance
	found := false

	for _, poly := range c.boundary {
		if len(poly) < 2 {
			continue
		}
		p0 := poly[len(poly)-1]
		for _, p1 := range poly {
			diff := p1.Sub(p0)
			lineLength := diff.Length()
			if lineLength < 1 {
				p0 = p1
				continue
			}
			distOnLine := diff.Dot(p.Sub(p0)) / lineLength
			// stay off the corners so the inward normal is meaningful
			if distOnLine < 10 {
				distOnLine = 10
			}
			if distOnLine > lineLength-10 {
				distOnLine = lineLength - 10
			}
			q := p0.Add(diff.Mul(distOnLine).Div(lineLength))
			if d2 := q.Sub(p).Length2(); d2 < bestDist2 {
				bestDist2 = d2
				ret = q.Add(diff.Normal(distance).PerpLeft())
				found = true
			}
			p0 = p1
		}
	}
	return ret, found
}

// collides reports whether the open segment a-b crosses any boundary
// edge.
func (c *Comb) collides(a, b vec.Point2) bool {
	m := newRotation(b.Sub(a))
	sp := m.apply(a)
	ep := m.apply(b)

	for _, poly := range c.boundary {
		if len(poly) < 2 {
			continue
		}
		p0 := m.apply(poly[len(poly)-1])
		for _, pt := range poly {
			p1 := m.apply(pt)
			if (p0.Y > sp.Y && p1.Y < sp.Y) || (p1.Y > sp.Y && p0.Y < sp.Y) {
				x := p0.X + (p1.X-p0.X)*(sp.Y-p0.Y)/(p1.Y-p0.Y)
				if x > sp.X && x < ep.X {
					return true
				}
			}
			p0 = p1
		}
	}
	return false
}

// crossing is where the travel scanline enters and leaves one boundary
// polygon, in the rotated frame.
type crossing struct {
	poly           int
	minX, maxX     int64
	minIdx, maxIdx int
}

// crossings finds, per polygon, the first and last scanline crossing
// between sp.X and ep.X in the rotated frame.
func (c *Comb) crossings(m rotation, sp, ep vec.Point2) []crossing {
	var result []crossing
	for n, poly := range c.boundary {
		if len(poly) < 2 {
			continue
		}
		cr := crossing{poly: n, minX: math.MaxInt64, maxX: math.MinInt64}
		p0 := m.apply(poly[len(poly)-1])
		for i, pt := range poly {
			p1 := m.apply(pt)
			if (p0.Y > sp.Y && p1.Y < sp.Y) || (p1.Y > sp.Y && p0.Y < sp.Y) {
				x := p0.X + (p1.X-p0.X)*(sp.Y-p0.Y)/(p1.Y-p0.Y)
				if x >= sp.X && x <= ep.X {
					if x < cr.minX {
						cr.minX = x
						cr.minIdx = i
					}
					if x > cr.maxX {
						cr.maxX = x
						cr.maxIdx = i
					}
				}
			}
			p0 = p1
		}
		if cr.maxX >= cr.minX {
			result = append(result, cr)
		}
	}
	return result
}

// boundaryPointWithOffset is boundary vertex idx of polygon n, moved
// interior-ward so the route keeps clearance from the wall.
func (c *Comb) boundaryPointWithOffset(n, idx int) vec.Point2 {
	poly := c.boundary[n]
	p0 := poly[(idx+len(poly)-1)%len(poly)]
	p1 := poly[idx]
	p2 := poly[(idx+1)%len(poly)]
	off0 := p1.Sub(p0).Normal(1000).PerpLeft()
	off1 := p2.Sub(p1).Normal(1000).PerpLeft()
	return p1.Add(off0.Add(off1).Normal(cornerOffset))
}

// PathInside computes a boundary-interior route from from to to. An
// empty route with ok=true means the straight line already stays
// inside. ok=false means an endpoint could not be brought inside, or no
// clean route exists, and the travel will cross the boundary.
func (c *Comb) PathInside(from, to vec.Point2) ([]vec.Point2, bool) {
	if to.Sub(from).ShorterThan(minCombDistance) {
		return nil, true
	}

	var route []vec.Point2
	start, end := from, to
	addEndpoint := false

	if !c.PointInside(start) {
		p, ok := c.MovePointInside(start, cornerOffset)
		if !ok {
			return nil, false
		}
		start = p
		route = append(route, start)
	}
	if !c.PointInside(end) {
		p, ok := c.MovePointInside(end, cornerOffset)
		if !ok {
			return nil, false
		}
		end = p
		addEndpoint = true
	}

	if !c.collides(start, end) && !addEndpoint && len(route) == 0 {
		return nil, true
	}

	m := newRotation(end.Sub(start))
	sp := m.apply(start)
	ep := m.apply(end)
	crossed := c.crossings(m, sp, ep)

	// walk the crossed polygons left to right; go around each one
	// along its shorter side
	var pointList []vec.Point2
	x := sp.X
	for {
		var next *crossing
		for i := range crossed {
			cr := &crossed[i]
			if cr.minX > x && (next == nil || cr.minX < next.minX) {
				next = cr
			}
		}
		if next == nil {
			break
		}
		poly := c.boundary[next.poly]
		size := len(poly)

		pointList = append(pointList, m.unapply(vec.Point2{X: next.minX - crossingOffset, Y: sp.Y}))
		forward := (next.minIdx-next.maxIdx+size)%size > (next.maxIdx-next.minIdx+size)%size
		if forward {
			for i := next.minIdx; i != next.maxIdx; i = (i + 1) % size {
				pointList = append(pointList, c.boundaryPointWithOffset(next.poly, i))
			}
		} else {
			minIdx := (next.minIdx + size - 1) % size
			maxIdx := (next.maxIdx + size - 1) % size
			for i := minIdx; i != maxIdx; i = (i + size - 1) % size {
				pointList = append(pointList, c.boundaryPointWithOffset(next.poly, i))
			}
		}
		pointList = append(pointList, m.unapply(vec.Point2{X: next.maxX + crossingOffset, Y: sp.Y}))
		x = next.maxX
	}
	if addEndpoint {
		pointList = append(pointList, end)
	}

	// shortcut pass: keep only the points we cannot already see past
	p0 := start
	for i := 1; i < len(pointList); i++ {
		if c.collides(p0, pointList[i]) {
			if c.collides(p0, pointList[i-1]) {
				return nil, false
			}
			p0 = pointList[i-1]
			route = append(route, p0)
		}
	}
	if addEndpoint {
		route = append(route, end)
	}
	return route, true
}
