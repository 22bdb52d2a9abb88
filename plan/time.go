package plan

// ForceMinimumLayerTime scales extrusion speeds down so the queued
// layer takes at least minTime seconds, for cooling of small layers.
// No extrusion is slowed below minimalSpeed mm/s; if the floor binds,
// the layer stays shorter than minTime and the shortfall is recorded in
// ExtraTime. The slowdown factor only ever decreases within a layer, so
// an earlier slowdown (e.g. for the first layer) is never undone.
func (gp *Planner) ForceMinimumLayerTime(minTime float64, minimalSpeed int) {
	p0 := gp.writer.Position2()
	travelTime := 0.0
	extrudeTime := 0.0
	for _, path := range gp.paths {
		for _, pt := range path.Points {
			t := pt.XY().Sub(p0).LengthMm() / float64(path.Config.Speed)
			if path.Config.LineWidth != 0 {
				extrudeTime += t
			} else {
				travelTime += t
			}
			p0 = pt.XY()
		}
	}

	total := travelTime + extrudeTime
	if total >= minTime || extrudeTime <= 0.0 {
		gp.totalPrintTime = total
		return
	}

	minExtrudeTime := minTime - travelTime
	if minExtrudeTime < 1 {
		minExtrudeTime = 1
	}
	factor := extrudeTime / minExtrudeTime

	// The speed floor is applied uniformly: the factor is raised to the
	// tightest per-path floor before any path is touched, so the result
	// does not depend on path order.
	for _, path := range gp.paths {
		if path.Config.LineWidth == 0 || path.Config.Speed <= 0 {
			continue
		}
		if floor := float64(minimalSpeed) / float64(path.Config.Speed); floor > factor {
			factor = floor
		}
	}

	if pct := int(factor*100 + 0.5); pct < gp.extrudeSpeedFactor {
		gp.SetExtrudeSpeedFactor(pct)
	}
	factor = float64(gp.extrudeSpeedFactor) / 100.0

	gp.totalPrintTime = extrudeTime/factor + travelTime
	if slack := minTime - extrudeTime/factor - travelTime; slack > 0.1 {
		gp.extraTime = slack
	}
}
