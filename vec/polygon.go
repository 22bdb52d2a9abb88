package vec

// Polygon is a closed sequence of 2D points; the last point is
// implicitly connected back to the first.
type Polygon []Point2

// Area is the signed shoelace area in square micrometers; positive for
// anticlockwise winding.
func (poly Polygon) Area() int64 {
	area := int64(0)
	p0 := poly[len(poly)-1]
	for _, p1 := range poly {
		area += p0.X*p1.Y - p1.X*p0.Y
		p0 = p1
	}
	return area / 2
}

// Length is the closed perimeter length.
func (poly Polygon) Length() int64 {
	l := int64(0)
	p0 := poly[len(poly)-1]
	for _, p1 := range poly {
		l += p1.Sub(p0).Length()
		p0 = p1
	}
	return l
}
