// Package gcode formats printer motion as G-code text and tracks the
// physical printer state: position, feedrate, extruder, filament E
// axis, retraction and fan. It implements the writer capability the
// planner flushes into.
package gcode

import (
	"fmt"
	"io"
	"math"

	"gcodeplan/vec"
)

type Writer struct {
	out io.Writer
	err error

	position vec.Point3 // um
	zPos     int64      // target z for queued moves, um

	currentSpeed int // mm/s
	extruder     int
	fanSpeed     int

	extrusionAmount          float64 // E axis, mm of filament
	extrusionPerMM           float64 // mm filament per mm·mm of line
	retractionAmount         float64 // mm of filament
	retractionSpeed          int     // mm/s
	extruderSwitchRetraction float64 // mm of filament
	isRetracted              bool

	totalFilament  map[int]float64
	totalPrintTime float64
	estimate       float64
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:             out,
		retractionSpeed: 45,
		totalFilament:   make(map[int]float64),
	}
}

func (g *Writer) printf(format string, a ...any) {
	_, err := fmt.Fprintf(g.out, format, a...)
	if err != nil && g.err == nil {
		g.err = err
	}
}

// Err returns the first output error, if any. The planner layer never
// sees I/O errors; callers check here after flushing.
func (g *Writer) Err() error {
	return g.err
}

// SetExtrusionSettings derives the filament feed per mm of line from
// the layer geometry. flow is a percent.
func (g *Writer) SetExtrusionSettings(layerThickness, filamentDiameter int64, flow int) {
	filamentArea := math.Pi * float64(filamentDiameter) / 2000.0 * float64(filamentDiameter) / 2000.0
	g.extrusionPerMM = float64(layerThickness) / 1000.0 / filamentArea * float64(flow) / 100.0
}

// SetRetractionSettings configures the filament pull-back for travel
// retractions and the longer one used around extruder switches.
func (g *Writer) SetRetractionSettings(amount float64, speed int, extruderSwitchAmount float64) {
	g.retractionAmount = amount
	if speed > 0 {
		g.retractionSpeed = speed
	}
	g.extruderSwitchRetraction = extruderSwitchAmount
}

// SetZ sets the z that queued moves are planned at. Nothing is written
// until the next move.
func (g *Writer) SetZ(z int64) {
	g.zPos = z
}

func (g *Writer) CurrentExtruder() int {
	return g.extruder
}

func (g *Writer) CurrentZ() int64 {
	return g.zPos
}

func (g *Writer) Position2() vec.Point2 {
	return g.position.XY()
}

func (g *Writer) Position3() vec.Point3 {
	return g.position
}

func (g *Writer) PositionZ() int64 {
	return g.position.Z
}

func (g *Writer) Comment(comment string) {
	g.printf(";%s\n", comment)
}

// Fan sets the part cooling fan duty cycle in percent.
func (g *Writer) Fan(pct int) {
	if pct == g.fanSpeed {
		return
	}
	if pct > 0 {
		g.printf("M106 S%d\n", pct*255/100)
	} else {
		g.printf("M107\n")
	}
	g.fanSpeed = pct
}

// WriteMove moves to p at speed mm/s. lineWidth 0 is a travel (G0);
// anything else extrudes (G1) with the E axis advanced to match the
// line volume. A pending retraction is primed first.
func (g *Writer) WriteMove(p vec.Point3, speed int, lineWidth int64) {
	diff := p.XY().Sub(g.position.XY())

	if lineWidth != 0 {
		if g.isRetracted {
			g.printf("G1 F%d E%0.5f\n", g.retractionSpeed*60, g.extrusionAmount)
			g.currentSpeed = g.retractionSpeed
			g.isRetracted = false
		}
		g.extrusionAmount += g.extrusionPerMM * float64(lineWidth) / 1000.0 * diff.LengthMm()
		g.printf("G1")
	} else {
		g.printf("G0")
	}

	if speed != g.currentSpeed {
		g.printf(" F%d", speed*60)
		g.currentSpeed = speed
	}
	g.printf(" X%0.3f Y%0.3f", float64(p.X)/1000.0, float64(p.Y)/1000.0)
	if p.Z != g.position.Z {
		g.printf(" Z%0.3f", float64(p.Z)/1000.0)
	}
	if lineWidth != 0 {
		g.printf(" E%0.5f", g.extrusionAmount)
	}
	g.printf("\n")

	if speed > 0 {
		g.estimate += p.Sub(g.position).LengthMm() / float64(speed)
	}
	g.position = p
}

// Retract pulls the filament back so travels don't ooze. A no-op while
// already retracted or with retraction disabled.
func (g *Writer) Retract() {
	if g.retractionAmount <= 0 || g.isRetracted {
		return
	}
	g.printf("G1 F%d E%0.5f\n", g.retractionSpeed*60, g.extrusionAmount-g.retractionAmount)
	g.currentSpeed = g.retractionSpeed
	g.isRetracted = true
}

// SwitchExtruder retracts with the extruder-switch amount, resets the E
// axis and selects the new tool.
func (g *Writer) SwitchExtruder(extruder int) {
	if g.extruder == extruder {
		return
	}
	g.resetExtrusionValue()
	g.extruder = extruder
	g.printf("G1 F%d E%0.5f\n", g.retractionSpeed*60, -g.extruderSwitchRetraction)
	g.currentSpeed = g.retractionSpeed
	g.extrusionAmount = 0
	g.isRetracted = true
	g.printf("T%d\n", extruder)
}

// resetExtrusionValue rolls the accumulated E into the per-extruder
// filament total and zeroes the axis with G92.
func (g *Writer) resetExtrusionValue() {
	if g.extrusionAmount == 0 {
		return
	}
	g.printf("G92 E0\n")
	g.totalFilament[g.extruder] += g.extrusionAmount
	g.extrusionAmount = 0
}

// UpdateTotalPrintTime folds the running estimate into the total.
func (g *Writer) UpdateTotalPrintTime() {
	g.totalPrintTime += g.estimate
	g.estimate = 0
}

func (g *Writer) TotalPrintTime() float64 {
	return g.totalPrintTime
}

// TotalFilament is the filament used by one extruder so far, in mm.
func (g *Writer) TotalFilament(extruder int) float64 {
	total := g.totalFilament[extruder]
	if extruder == g.extruder {
		total += g.extrusionAmount
	}
	return total
}
