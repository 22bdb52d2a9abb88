// Gcodeplan prints a built-in test part (a rectangle with a square
// hole) to G-code, driving the layer planner the way a slicer front-end
// would: wall loops and comb boundary derived from the outline by
// polygon offsetting, zigzag infill, per-layer minimum-time cooling.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	flag "github.com/spf13/pflag"

	"gcodeplan/avoid"
	"gcodeplan/gcode"
	"gcodeplan/plan"
	"gcodeplan/poly"
	"gcodeplan/vec"
)

func mmToUm(mm float64) int64 {
	return int64(mm*1000 + 0.5)
}

func main() {
	profilePath := flag.String("profile", "", "Read a TOML printer profile.")
	outPath := flag.String("out", "", "Write G-code to this file instead of stdout.")
	size := flag.Float64("size", 30, "Side length of the test part in mm.")
	hole := flag.Float64("hole", 10, "Side length of the square hole in mm (0 for solid).")
	layers := flag.Int("layers", 20, "Number of layers.")
	layerHeight := flag.Float64("layer-height", 0.2, "Layer height in mm.")
	lineWidth := flag.Float64("line-width", 0.4, "Extrusion line width in mm.")
	infillSpacing := flag.Float64("infill-spacing", 2.0, "Spacing between infill lines in mm.")
	spiralize := flag.Bool("spiralize", false, "Print the outer wall as a single continuous helix.")
	quiet := flag.Bool("quiet", false, "Suppress progress output.")
	flag.Parse()

	profile := DefaultProfile()
	if *profilePath != "" {
		var err error
		profile, err = LoadProfile(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := mmToUm(*lineWidth)
	thickness := mmToUm(*layerHeight)

	outerWall := &plan.PathConfig{
		Speed:      profile.OuterWallSpeed,
		LineWidth:  w,
		Comment:    plan.TypeWallOuter,
		Spiralize:  *spiralize,
		ClosedLoop: true,
	}
	innerWall := &plan.PathConfig{
		Speed:      profile.InnerWallSpeed,
		LineWidth:  w,
		Comment:    plan.TypeWallInner,
		ClosedLoop: true,
	}
	infill := &plan.PathConfig{
		Speed:     profile.InfillSpeed,
		LineWidth: w,
		Comment:   "FILL",
	}

	writer := gcode.NewWriter(out)
	writer.SetRetractionSettings(profile.RetractionAmount, profile.RetractionSpeed, profile.RetractionAmount+2)
	writer.Comment("FLAVOR:Marlin")
	writer.Comment(fmt.Sprintf("Generated by gcodeplan (%d layers)", *layers))
	fmt.Fprintf(out, "G21\nG90\nM82\n")

	outline := partOutline(mmToUm(*size), mmToUm(*hole))

	for layer := 0; layer < *layers; layer++ {
		z := int64(layer+1) * thickness
		writer.SetZ(z)
		writer.SetExtrusionSettings(thickness, mmToUm(profile.FilamentDiameter), profile.Flow)
		writer.Comment(fmt.Sprintf("LAYER:%d", layer))

		gp := plan.New(writer, profile.TravelSpeed, mmToUm(profile.RetractionMinDistance))
		if layer == 0 {
			gp.SetExtrudeSpeedFactor(profile.FirstLayerSpeedPct)
			writer.Fan(0)
		} else {
			writer.Fan(profile.FanSpeed)
		}

		outerLoops := poly.Inset(outline, w/2)
		innerLoops := poly.Inset(outline, w+w/2)
		gp.SetOuterPerimetersToAvoid(avoid.NewComb(outerLoops))

		// walls print inside-out so the outer wall lands on settled
		// material
		if !*spiralize {
			gp.QueuePolygonsByOptimizer(innerLoops, innerWall)
		}
		gp.QueuePolygonsByOptimizer(outerLoops, outerWall)

		if !*spiralize {
			queueInfill(gp, poly.Inset(outline, 2*w), mmToUm(*infillSpacing), layer%2 == 1, infill)
		}

		gp.ForceMinimumLayerTime(profile.MinLayerTime, profile.MinPrintSpeed)
		fan := profile.FanSpeed
		if layer == 0 {
			fan = 0
		}
		gp.WriteQueued(thickness, fan, profile.BridgeFanSpeed)

		if !*quiet {
			fmt.Fprintf(os.Stderr, "   \rlayer %d/%d: %.1f secs", layer+1, *layers, gp.TotalPrintTime())
		}
	}

	fmt.Fprintf(out, "M107\nM104 S0\nM84\n")
	writer.UpdateTotalPrintTime()

	if !*quiet {
		fmt.Fprintf(os.Stderr, "\nPrint time estimate: %.0f secs\n", writer.TotalPrintTime())
		fmt.Fprintf(os.Stderr, "Filament: %.0f mm\n", writer.TotalFilament(0))
	}
	if err := writer.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "write gcode: %v\n", err)
		os.Exit(1)
	}
}

// partOutline is a square with an optional centered square hole, as a
// clipping-normalized polygon set.
func partOutline(size, hole int64) []vec.Polygon {
	outer := vec.Polygon{
		{X: 0, Y: 0},
		{X: size, Y: 0},
		{X: size, Y: size},
		{X: 0, Y: size},
	}
	polys := []vec.Polygon{outer}
	if hole > 0 {
		lo := (size - hole) / 2
		hi := (size + hole) / 2
		// wound opposite to the outline so union keeps it as a hole
		polys = append(polys, vec.Polygon{
			{X: lo, Y: lo},
			{X: lo, Y: hi},
			{X: hi, Y: hi},
			{X: hi, Y: lo},
		})
	}
	return poly.Union(polys)
}

// queueInfill lays horizontal zigzag lines across the region bounded by
// polys, flipping direction from one span to the next and shifting the
// lines by half a spacing on odd layers.
func queueInfill(gp *plan.Planner, polys []vec.Polygon, spacing int64, odd bool, config *plan.PathConfig) {
	if len(polys) == 0 {
		return
	}
	minY, maxY := polys[0][0].Y, polys[0][0].Y
	for _, pg := range polys {
		for _, p := range pg {
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}

	y := minY + spacing/2
	if odd {
		y = minY + spacing
	}
	flip := false
	for ; y < maxY; y += spacing {
		for _, span := range scanSpans(polys, y) {
			line := vec.Polygon{span[0], span[1]}
			start := 0
			if flip {
				start = 1
			}
			gp.QueuePolygon(line, start, config)
			flip = !flip
		}
	}
}

// scanSpans intersects the horizontal line at y with the region and
// pairs the sorted crossings into printable spans.
func scanSpans(polys []vec.Polygon, y int64) [][2]vec.Point2 {
	var xs []int64
	for _, pg := range polys {
		if len(pg) < 2 {
			continue
		}
		p0 := pg[len(pg)-1]
		for _, p1 := range pg {
			if (p0.Y >= y && p1.Y < y) || (p1.Y >= y && p0.Y < y) {
				xs = append(xs, p0.X+(p1.X-p0.X)*(y-p0.Y)/(p1.Y-p0.Y))
			}
			p0 = p1
		}
	}
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })

	var spans [][2]vec.Point2
	for i := 0; i+1 < len(xs); i += 2 {
		if xs[i+1] <= xs[i] {
			continue
		}
		spans = append(spans, [2]vec.Point2{{X: xs[i], Y: y}, {X: xs[i+1], Y: y}})
	}
	return spans
}
