package geom

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Surface represents a distance function between two values
type Surface[T any] interface {
	// Distance calculates the distance between a and b
	Distance(a, b T) (float64, error)
}

// ContraMap is a generic adapter that allows applying a distance function to a different type
// by first mapping that type to the vector type the distance function expects
type ContraMap[V, T any] struct {
	// The underlying surface (distance function)
	Surface Surface[V]

	// The mapping function from T to V
	ContraMap func(T) V
}

// Distance implements the Surface interface by first mapping the inputs and then applying the underlying distance function
func (c ContraMap[V, T]) Distance(a, b T) (float64, error) {
	return c.Surface.Distance(c.ContraMap(a), c.ContraMap(b))
}

// MetricSurface binds a metric and its order into a Surface over vectors.
type MetricSurface struct {
	Metric Metric
	Order  []float64
}

// NewMetricSurface resolves the metric name and validates the order once so
// the returned surface can be reused across many distance calls.
func NewMetricSurface(metric string, p ...float64) (MetricSurface, error) {
	m, err := ParseMetric(metric)
	if err != nil {
		return MetricSurface{}, err
	}
	if _, err := m.norm(p); err != nil {
		return MetricSurface{}, err
	}
	return MetricSurface{Metric: m, Order: append([]float64(nil), p...)}, nil
}

// Distance implements the Surface interface
func (s MetricSurface) Distance(a, b Vector) (float64, error) {
	return s.Metric.Distance(a, b, s.Order...)
}

// PairwiseDistances returns the symmetric matrix of distances between every
// pair of points under s.
func PairwiseDistances(points []Vector, s Surface[Vector]) (*mat.SymDense, error) {
	n := len(points)
	if n == 0 {
		return nil, shapeErrorf("no points")
	}
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := s.Distance(points[i], points[j])
			if err != nil {
				return nil, fmt.Errorf("points %d and %d: %w", i, j, err)
			}
			out.SetSym(i, j, d)
		}
	}
	return out, nil
}
