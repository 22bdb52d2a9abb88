package plan

import (
	"sort"

	"gcodeplan/vec"
)

// Segment is one directed edge of a path. Width stays 0 until overlap
// removal assigns a merged extrusion width.
type Segment struct {
	Start vec.Point3
	End   vec.Point3
	Width int64 // um
}

// pathToSegments turns a point sequence into directed segments: n
// segments for a closed path (the last wraps back to the first), n-1
// otherwise.
func pathToSegments(points []vec.Point3, closed bool) []Segment {
	n := len(points)
	if n < 2 {
		return nil
	}
	count := n - 1
	if closed {
		count = n
	}
	segs := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		segs = append(segs, Segment{Start: points[i], End: points[(i+1)%n]})
	}
	return segs
}

// splitSegmentForVertices splits seg at the projections of foreign
// vertices that lie within maxDistance of it. The perpendicular test is
// kept unnormalized (|perp dot| against maxDistance*length) to stay in
// integer arithmetic. Returns nil,false when no vertex projects onto
// the segment interior.
func splitSegmentForVertices(seg Segment, vertices []vec.Point3, maxDistance int64) ([]Segment, bool) {
	dir := seg.End.Sub(seg.Start).XY()
	length := dir.Length()
	if length == 0 {
		return nil, false
	}
	perp := dir.PerpRight()

	splits := make(map[int64]struct{})
	for _, v := range vertices {
		off := v.XY().Sub(seg.Start.XY())
		perpDot := off.Dot(perp)
		if perpDot < 0 {
			perpDot = -perpDot
		}
		if perpDot >= maxDistance*length {
			continue
		}
		along := off.Dot(dir)
		if along <= 0 || along >= length*length {
			continue
		}
		splits[along/length] = struct{}{}
	}
	if len(splits) == 0 {
		return nil, false
	}

	splits[0] = struct{}{}
	splits[length] = struct{}{}
	dists := make([]int64, 0, len(splits))
	for d := range splits {
		dists = append(dists, d)
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i] < dists[j] })

	at := func(d int64) vec.Point3 {
		p := seg.Start.XY().Add(dir.Mul(d).Div(length))
		return p.At(seg.Start.Z)
	}
	segs := make([]Segment, 0, len(dists)-1)
	for i := 0; i+1 < len(dists); i++ {
		segs = append(segs, Segment{Start: at(dists[i]), End: at(dists[i+1])})
	}
	return segs, true
}

// makeCloseSegmentsMergeable inserts virtual vertices into the
// perimeter wherever a foreign vertex runs close alongside a segment,
// so that near-parallel segment pairs line up vertex for vertex and the
// overlap detector can match them pairwise. Returns the start points of
// the resulting segments.
func makeCloseSegmentsMergeable(perimeter []vec.Point3, distance int64) []vec.Point3 {
	segs := pathToSegments(perimeter, true)
	for i := len(segs) - 1; i >= 0; i-- {
		if sub, ok := splitSegmentForVertices(segs[i], perimeter, distance); ok {
			segs = append(segs[:i], append(sub, segs[i+1:]...)...)
		}
	}
	points := make([]vec.Point3, 0, len(segs))
	for _, s := range segs {
		points = append(points, s.Start)
	}
	return points
}
