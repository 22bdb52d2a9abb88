package plan

// Path type tags recognized by the emission pass. Any other comment
// string is passed through opaquely.
const (
	TypeWallOuter = "WALL-OUTER"
	TypeWallInner = "WALL-INNER"
	TypeBridge    = "BRIDGE"
)

// PathConfig names one kind of motion: a nominal speed, an extrusion
// width (0 for travel), and an opaque comment tag written as a TYPE
// line in the output. Paths group moves by config identity, so a
// front-end keeps one *PathConfig per motion kind and passes the same
// pointer for every move of that kind.
type PathConfig struct {
	Speed      int    // mm/s
	LineWidth  int64  // um, 0 means travel
	Comment    string
	Spiralize  bool
	ClosedLoop bool
}
