package plan

import (
	"gcodeplan/vec"
)

// WriteQueued flushes every buffered path to the writer in queue order,
// applying speed scaling, spiral Z lift, small-move coalescing and
// outer-wall endpoint trimming on the way out. Negative fan values mean
// no fan override. The planner is consumed by this call.
func (gp *Planner) WriteQueued(layerThickness int64, fanSpeed, bridgeFanSpeed int) {
	var lastConfig *PathConfig
	extruder := gp.writer.CurrentExtruder()

	for n := 0; n < len(gp.paths); n++ {
		path := gp.paths[n]

		if path.Extruder != extruder {
			extruder = path.Extruder
			gp.writer.SwitchExtruder(extruder)
		} else if path.Retract {
			gp.writer.Retract()
		}

		if path.Config != &gp.travelConfig && lastConfig != path.Config {
			if bridgeFanSpeed >= 0 {
				if path.Config.Comment == TypeBridge {
					gp.writer.Fan(bridgeFanSpeed)
				} else if lastConfig != nil && lastConfig.Comment == TypeBridge && fanSpeed >= 0 {
					gp.writer.Fan(fanSpeed)
				}
			}
			gp.writer.Comment("TYPE:" + path.Config.Comment)
			lastConfig = path.Config
		}

		speed := path.Config.Speed
		if path.Config.LineWidth != 0 {
			// bridges keep nominal speed: cooling slowdown must not
			// slow them
			if path.Config.Comment != TypeBridge {
				speed = speed * gp.extrudeSpeedFactor / 100
			}
		} else {
			speed = speed * gp.travelSpeedFactor / 100
		}

		if gp.removeOverlaps && path.Config.LineWidth > 0 && len(path.Points) > 2 &&
			gp.writer.Position2() == path.Points[len(path.Points)-1].XY() {
			if changed, fragments := RemovePerimeterOverlaps(path.Points, path.Config.LineWidth); changed {
				for _, f := range fragments {
					if len(f.Points) == 0 {
						continue
					}
					for _, pt := range f.Points {
						gp.writer.WriteMove(pt, speed, f.Width)
					}
				}
				continue
			}
		}

		if len(path.Points) == 1 && path.Config != &gp.travelConfig &&
			gp.writer.Position2().Sub(path.Points[0].XY()).ShorterThan(path.Config.LineWidth*2) {
			// lots of small moves in a row: combine pairs into single
			// wider lines
			p0 := path.Points[0].XY()
			i := n + 1
			for i < len(gp.paths) && len(gp.paths[i].Points) == 1 &&
				p0.Sub(gp.paths[i].Points[0].XY()).ShorterThan(path.Config.LineWidth*2) {
				p0 = gp.paths[i].Points[0].XY()
				i++
			}
			if gp.paths[i-1].Config == &gp.travelConfig {
				i--
			}
			if i > n+2 {
				p0 = gp.writer.Position2()
				for x := n; x < i-1; x += 2 {
					oldLen := p0.Sub(gp.paths[x].Points[0].XY()).Length() +
						gp.paths[x].Points[0].XY().Sub(gp.paths[x+1].Points[0].XY()).Length()
					mid := gp.paths[x].Points[0].Add(gp.paths[x+1].Points[0]).Div(2)
					newLen := gp.writer.Position2().Sub(mid.XY()).Length()
					if newLen > 0 {
						// stretch the width so the combined line lays
						// down the same volume as the two it replaces
						gp.writer.WriteMove(mid, speed, path.Config.LineWidth*oldLen/newLen)
					}
					p0 = gp.paths[x+1].Points[0].XY()
				}
				gp.writer.WriteMove(gp.paths[i-1].Points[0], speed, path.Config.LineWidth)
				n = i - 1
				continue
			}
		}

		if path.Config.Spiralize {
			// only the outermost spiral gets the Z lift; any later
			// spiralize path disables it here
			spiralize := true
			for m := n + 1; m < len(gp.paths); m++ {
				if gp.paths[m].Config.Spiralize {
					spiralize = false
				}
			}
			if spiralize && gp.writeSpiral(path, layerThickness, speed) {
				continue
			}
		}

		if path.Config.Comment == TypeWallOuter || path.Config.Comment == TypeWallInner {
			path.Points = trimTail(path.Points, path.Config.LineWidth)
		}
		for _, pt := range path.Points {
			gp.writer.WriteMove(pt, speed, path.Config.LineWidth)
		}
	}

	gp.writer.UpdateTotalPrintTime()
}

// writeSpiral emits path with z rising linearly in the distance covered
// along the layer, so the wall prints as one continuous helix. Returns
// false when the path has no length to distribute the lift over.
func (gp *Planner) writeSpiral(path *Path, layerThickness int64, speed int) bool {
	totalLength := 0.0
	p0 := gp.writer.Position2()
	for _, pt := range path.Points {
		totalLength += pt.XY().Sub(p0).LengthMm()
		p0 = pt.XY()
	}
	if totalLength <= 0 {
		return false
	}

	z := gp.writer.PositionZ()
	length := 0.0
	p0 = gp.writer.Position2()
	for _, pt := range path.Points {
		length += pt.XY().Sub(p0).LengthMm()
		p0 = pt.XY()
		lift := int64(float64(layerThickness)*length/totalLength + 0.5)
		gp.writer.WriteMove(vec.Point3{X: pt.X, Y: pt.Y, Z: z + lift}, speed, path.Config.LineWidth)
	}
	return true
}

// trimTail removes 0.9 line widths of arc length from the end of a wall
// loop so the seam overlaps the start of the loop instead of leaving a
// gap. The walk never consumes a whole segment longer than what is left
// to remove, so at least the first point always survives.
func trimTail(points []vec.Point3, lineWidth int64) []vec.Point3 {
	target := lineWidth * 9 / 10
	for len(points) >= 2 {
		i := len(points) - 1
		d := points[i].XY().Sub(points[i-1].XY()).Length()
		if d > target {
			remaining := d - target
			// under 100um the integer truncation error dominates;
			// leave the endpoint alone
			if remaining > 100 {
				dir := points[i].Sub(points[i-1])
				points[i] = points[i-1].Add(vec.Point3{
					X: dir.X * remaining / d,
					Y: dir.Y * remaining / d,
					Z: dir.Z * remaining / d,
				})
			}
			break
		}
		points = points[:i]
		if d == target {
			break
		}
		target -= d
	}
	return points
}
