package geom

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Metric identifies a vector distance function.
type Metric string

const (
	// Euclidean is the L2 distance.
	Euclidean Metric = "euclidean"
	// Manhattan is the L1 distance.
	Manhattan Metric = "manhattan"
	// Chebyshev is the L-infinity distance.
	Chebyshev Metric = "chebyshev"
	// Minkowski is the Lp distance for a caller-supplied order p.
	Minkowski Metric = "minkowski"
)

// metricAliases maps lower-cased names onto metrics. "minokoswki" is a
// spelling older callers still send.
var metricAliases = map[string]Metric{
	"":           Euclidean,
	"euclidean":  Euclidean,
	"manhattan":  Manhattan,
	"chebyshev":  Chebyshev,
	"minkowski":  Minkowski,
	"minokoswki": Minkowski,
}

// Metrics lists the supported metrics.
func Metrics() []Metric {
	return []Metric{Euclidean, Manhattan, Chebyshev, Minkowski}
}

// ParseMetric resolves a metric name case-insensitively. The empty name
// selects Euclidean.
func ParseMetric(name string) (Metric, error) {
	m, ok := metricAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", shapeErrorf("unknown distance metric %q", name)
	}
	return m, nil
}

// String returns the display name of the metric.
func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "Euclidean"
	case Manhattan:
		return "Manhattan"
	case Chebyshev:
		return "Chebyshev"
	case Minkowski:
		return "Minkowski"
	default:
		return fmt.Sprintf("Unknown(%s)", string(m))
	}
}

// norm returns the L parameter passed to floats.Distance for the metric.
func (m Metric) norm(p []float64) (float64, error) {
	switch m {
	case Euclidean:
		return 2, nil
	case Manhattan:
		return 1, nil
	case Chebyshev:
		return math.Inf(1), nil
	case Minkowski:
		if len(p) != 1 {
			return 0, typeErrorf("minkowski distance requires exactly one order p, got %d", len(p))
		}
		if p[0] == 0 || math.IsNaN(p[0]) || math.IsInf(p[0], 0) {
			return 0, shapeErrorf("minkowski order must be finite and non-zero, got %v", p[0])
		}
		return p[0], nil
	default:
		return 0, shapeErrorf("unknown distance metric %q", string(m))
	}
}

// VectorDistance computes the distance between x1 and x2 under the named
// metric. p is the Minkowski order and is only consulted for that metric.
//
// Vectors of unequal length fail with ErrTypeMismatch. Empty vectors and an
// unknown metric name fail with ErrInvalidShape.
func VectorDistance(x1, x2 Vector, metric string, p ...float64) (float64, error) {
	m, err := ParseMetric(metric)
	if err != nil {
		return 0, err
	}
	return m.Distance(x1, x2, p...)
}

// Distance computes the distance between x1 and x2 under m.
func (m Metric) Distance(x1, x2 Vector, p ...float64) (float64, error) {
	if len(x1) != len(x2) {
		return 0, typeErrorf("vectors must have the same length: %d != %d", len(x1), len(x2))
	}
	if len(x1) == 0 {
		return 0, shapeErrorf("vectors must not be empty")
	}
	l, err := m.norm(p)
	if err != nil {
		return 0, err
	}
	return floats.Distance(x1, x2, l), nil
}
