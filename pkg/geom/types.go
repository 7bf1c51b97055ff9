// Package geom provides coordinate-geometry helpers: distances between
// parallel lines and between vectors, 3-D line intersection and
// orthogonality tests.
//
// All functions are pure and safe for concurrent use.
package geom

// Vector is an ordered, fixed-length sequence of real numbers. Its dimension
// is its length.
type Vector = []float64

// Dimension returns the dimension of v.
func Dimension(v Vector) int {
	return len(v)
}

// CloneVector creates a deep copy of a vector.
func CloneVector(v Vector) Vector {
	clone := make(Vector, len(v))
	copy(clone, v)
	return clone
}

// sameDimension reports whether every vector has the dimension of the first.
func sameDimension(vs ...Vector) bool {
	for _, v := range vs[1:] {
		if len(v) != len(vs[0]) {
			return false
		}
	}
	return true
}
