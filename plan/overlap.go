package plan

import (
	"gcodeplan/vec"
)

type alteration int

const (
	untouched alteration = iota
	mergedSeg
	removedSeg
)

// RemovePerimeterOverlaps detects where a closed perimeter doubles back
// on itself within overlapMerge and rewrites each such antiparallel
// pair as a single midline segment with a widened extrusion, so the
// material is deposited once instead of twice. It returns the perimeter
// as fragments of endpoint-connected equal-width segments, and whether
// any merge happened. With no eligible pairs the result is a single
// fragment tracing the original perimeter.
func RemovePerimeterOverlaps(perimeter []vec.Point3, overlapMerge int64) (bool, []Fragment) {
	points := makeCloseSegmentsMergeable(perimeter, overlapMerge)
	segs := pathToSegments(points, true)
	if len(segs) == 0 {
		return false, nil
	}

	altered := make([]alteration, len(segs))
	changed := false
	for i := range segs {
		if altered[i] != untouched {
			continue
		}
		for j := i + 1; j < len(segs); j++ {
			if altered[j] != untouched {
				continue
			}
			startGap := segs[i].Start.Sub(segs[j].End).XY()
			endGap := segs[i].End.Sub(segs[j].Start).XY()
			if !startGap.ShorterThan(overlapMerge) || !endGap.ShorterThan(overlapMerge) {
				continue
			}
			width := startGap.Length()
			if l := endGap.Length(); l < width {
				width = l
			}
			segs[i].Width = width
			segs[i].Start = segs[i].Start.Add(segs[j].End).Div(2)
			segs[i].End = segs[i].End.Add(segs[j].Start).Div(2)
			altered[i] = mergedSeg
			altered[j] = removedSeg
			changed = true
			break
		}
	}

	for i := len(segs) - 1; i >= 0; i-- {
		if altered[i] == removedSeg {
			segs = append(segs[:i], segs[i+1:]...)
		}
	}
	if len(segs) == 0 {
		return changed, nil
	}

	fragments := []Fragment{}
	f := Fragment{
		Points: []vec.Point3{segs[0].Start},
		Width:  segs[0].Width + overlapMerge,
	}
	for k, s := range segs {
		if k > 0 && (segs[k-1].End != s.Start || segs[k-1].Width != s.Width) {
			fragments = append(fragments, f)
			f = Fragment{
				Points: []vec.Point3{s.Start},
				Width:  s.Width + overlapMerge,
			}
		}
		f.Points = append(f.Points, s.End)
	}
	fragments = append(fragments, f)

	return changed, fragments
}
