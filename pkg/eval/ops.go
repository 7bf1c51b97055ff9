package eval

import (
	"fmt"

	"github.com/TFMV/coordgeom/pkg/geom"
)

func (e *Evaluator) parallelDistance(args Args) (interface{}, error) {
	m, err := scalarArg(args, "m")
	if err != nil {
		return nil, err
	}
	b1, err := scalarArg(args, "b1")
	if err != nil {
		return nil, err
	}
	b2, err := scalarArg(args, "b2")
	if err != nil {
		return nil, err
	}
	return geom.DistanceBetweenParallelLines(m, b1, b2), nil
}

func (e *Evaluator) vectorDistance(args Args) (interface{}, error) {
	x1, err := vectorArg(args, "x1")
	if err != nil {
		return nil, err
	}
	x2, err := vectorArg(args, "x2")
	if err != nil {
		return nil, err
	}

	metric := e.opts.DefaultMetric
	if raw, ok := args["metric"]; ok && raw != nil {
		name, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: metric: expected a string, got %T", geom.ErrTypeMismatch, raw)
		}
		if name != "" {
			metric = name
		}
	}

	p, err := geom.ParseOrder(args["p"])
	if err != nil {
		return nil, err
	}
	return geom.VectorDistance(x1, x2, metric, p...)
}

func (e *Evaluator) linesIntersect(args Args) (interface{}, error) {
	var vecs [4]geom.Vector
	for i, name := range []string{"m1", "b1", "m2", "b2"} {
		v, err := vectorArg(args, name)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return geom.LinesIntersect3D(vecs[0], vecs[1], vecs[2], vecs[3])
}

func (e *Evaluator) vectorsOrthogonal(args Args) (interface{}, error) {
	m1, err := vectorArg(args, "m1")
	if err != nil {
		return nil, err
	}
	m2, err := vectorArg(args, "m2")
	if err != nil {
		return nil, err
	}
	return geom.VectorsOrthogonal(m1, m2)
}

func scalarArg(args Args, name string) (float64, error) {
	raw, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing argument %s", geom.ErrTypeMismatch, name)
	}
	f, err := geom.ParseScalar(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func vectorArg(args Args, name string) (geom.Vector, error) {
	raw, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing argument %s", geom.ErrTypeMismatch, name)
	}
	v, err := geom.ParseVector(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
