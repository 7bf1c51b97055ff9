package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DistanceBetweenParallelLines returns the perpendicular distance between
// y = m*x + b1 and y = m*x + b2.
func DistanceBetweenParallelLines(m, b1, b2 float64) float64 {
	// Hypot avoids overflowing 1+m*m for steep slopes.
	return math.Abs(b1-b2) / math.Hypot(1, m)
}

// LinesIntersect3D reports whether the line through b1 with direction m1
// meets the line through b2 with direction m2.
//
// Components are rounded half to even before testing. Lines with equal
// rounded directions never intersect, including coincident lines. All four
// vectors must have exactly three components.
func LinesIntersect3D(m1, b1, m2, b2 Vector) (bool, error) {
	args := []struct {
		name string
		v    Vector
	}{{"m1", m1}, {"b1", b1}, {"m2", m2}, {"b2", b2}}

	var vecs [4]r3.Vec
	for i, a := range args {
		v, err := roundVec3(a.name, a.v)
		if err != nil {
			return false, err
		}
		vecs[i] = v
	}
	dm1, pb1, dm2, pb2 := vecs[0], vecs[1], vecs[2], vecs[3]

	if dm1 == dm2 {
		return false, nil
	}

	// Coplanar non-parallel lines meet.
	return r3.Dot(r3.Cross(dm1, dm2), r3.Sub(pb2, pb1)) == 0, nil
}

func roundVec3(name string, v Vector) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, shapeErrorf("%s must have 3 components, got %d", name, len(v))
	}
	return r3.Vec{
		X: math.RoundToEven(v[0]),
		Y: math.RoundToEven(v[1]),
		Z: math.RoundToEven(v[2]),
	}, nil
}
