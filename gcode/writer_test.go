package gcode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcodeplan/vec"
)

func TestTravelMove(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)

	g.WriteMove(vec.Point3{X: 10000, Y: 0, Z: 0}, 150, 0)

	assert.Equal(t, "G0 F9000 X10.000 Y0.000\n", buf.String())
	assert.Equal(t, vec.Point2{X: 10000, Y: 0}, g.Position2())
}

func TestSpeedOnlyWrittenOnChange(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)

	g.WriteMove(vec.Point3{X: 10000, Y: 0, Z: 0}, 150, 0)
	g.WriteMove(vec.Point3{X: 20000, Y: 0, Z: 0}, 150, 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "G0 X20.000 Y0.000", lines[1])
}

func TestExtrusionMove(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)
	// 2mm filament over a 0.2mm layer: filament area is pi, so E feeds
	// come out as round-ish numbers
	g.SetExtrusionSettings(200, 2000, 100)

	g.WriteMove(vec.Point3{X: 10000, Y: 0, Z: 0}, 50, 400)

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(line, "G1 F3000 X10.000 Y0.000 E"), line)
	assert.Contains(t, line, "E0.25465")
}

func TestZOnlyWrittenOnChange(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)
	g.SetZ(200)

	g.WriteMove(vec.Point3{X: 10000, Y: 0, Z: 200}, 150, 0)
	g.WriteMove(vec.Point3{X: 20000, Y: 0, Z: 200}, 150, 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Contains(t, lines[0], "Z0.200")
	assert.NotContains(t, lines[1], "Z")
}

func TestRetractAndPrime(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)
	g.SetExtrusionSettings(200, 2000, 100)
	g.SetRetractionSettings(4.5, 45, 6.5)

	g.WriteMove(vec.Point3{X: 10000, Y: 0, Z: 0}, 50, 400)
	buf.Reset()

	g.Retract()
	assert.Equal(t, "G1 F2700 E-4.24535\n", buf.String())

	// retracting twice does nothing
	buf.Reset()
	g.Retract()
	assert.Empty(t, buf.String())

	// the next extrusion primes back to the pre-retract E first
	g.WriteMove(vec.Point3{X: 20000, Y: 0, Z: 0}, 50, 400)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "G1 F2700 E0.25465", lines[0])
}

func TestSwitchExtruder(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)
	g.SetRetractionSettings(4.5, 45, 6.5)

	g.SwitchExtruder(1)

	assert.Equal(t, 1, g.CurrentExtruder())
	assert.Equal(t, "G1 F2700 E-6.50000\nT1\n", buf.String())

	// switching to the current extruder is a no-op
	buf.Reset()
	g.SwitchExtruder(1)
	assert.Empty(t, buf.String())
}

func TestSwitchExtruderResetsE(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)
	g.SetExtrusionSettings(200, 2000, 100)
	g.SetRetractionSettings(4.5, 45, 6.5)

	g.WriteMove(vec.Point3{X: 10000, Y: 0, Z: 0}, 50, 400)
	g.SwitchExtruder(1)

	assert.Contains(t, buf.String(), "G92 E0\n")
	assert.InDelta(t, 0.25465, g.TotalFilament(0), 0.0001)
}

func TestFan(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)

	g.Fan(100)
	g.Fan(100)
	g.Fan(50)
	g.Fan(0)

	assert.Equal(t, "M106 S255\nM106 S127\nM107\n", buf.String())
}

func TestComment(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)

	g.Comment("TYPE:WALL-OUTER")
	assert.Equal(t, ";TYPE:WALL-OUTER\n", buf.String())
}

func TestPrintTimeEstimate(t *testing.T) {
	var buf bytes.Buffer
	g := NewWriter(&buf)

	// 100mm at 50mm/s
	g.WriteMove(vec.Point3{X: 100000, Y: 0, Z: 0}, 50, 0)
	assert.Equal(t, 0.0, g.TotalPrintTime(), "nothing folded in yet")

	g.UpdateTotalPrintTime()
	assert.InDelta(t, 2.0, g.TotalPrintTime(), 0.001)
}
