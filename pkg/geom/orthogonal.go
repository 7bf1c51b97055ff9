package geom

import "gonum.org/v1/gonum/floats"

// VectorsOrthogonal reports whether the dot product of m1 and m2 is exactly
// zero. No tolerance is applied.
func VectorsOrthogonal(m1, m2 Vector) (bool, error) {
	if len(m1) == 0 || len(m2) == 0 {
		return false, shapeErrorf("vectors must not be empty")
	}
	if !sameDimension(m1, m2) {
		return false, shapeErrorf("vectors must have the same length: %d != %d", len(m1), len(m2))
	}
	return floats.Dot(m1, m2) == 0, nil
}
