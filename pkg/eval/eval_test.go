package eval

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TFMV/coordgeom/pkg/geom"
	"github.com/TFMV/coordgeom/pkg/metrics"
)

func newTestEvaluator(collector *metrics.Collector) *Evaluator {
	return NewEvaluator(Options{}, zap.NewNop(), collector)
}

func TestEvaluate(t *testing.T) {
	e := newTestEvaluator(nil)

	tests := []struct {
		name     string
		req      Request
		expected interface{}
	}{
		{
			name:     "parallel distance",
			req:      Request{Op: ParallelDistance, Args: Args{"m": 2.0, "b1": 4.0, "b2": -1.0}},
			expected: math.Sqrt(5),
		},
		{
			name:     "default metric",
			req:      Request{Op: VectorDistance, Args: Args{"x1": []interface{}{1.0, 2.0, 3.0, 4.0}, "x2": []interface{}{5.0, 6.0, 7.0, 8.0}}},
			expected: 8.0,
		},
		{
			name: "manhattan",
			req: Request{Op: VectorDistance, Args: Args{
				"x1": []interface{}{1.0, 2.0, 3.0, 4.0}, "x2": []interface{}{5.0, 6.0, 7.0, 8.0}, "metric": "Manhattan",
			}},
			expected: 16.0,
		},
		{
			name: "intersect",
			req: Request{Op: LinesIntersect3D, Args: Args{
				"m1": []interface{}{1.0, 0.0, 0.0}, "b1": []interface{}{0.0, 0.0, 0.0},
				"m2": []interface{}{0.0, 1.0, 0.0}, "b2": []interface{}{0.0, 0.0, 0.0},
			}},
			expected: true,
		},
		{
			name:     "orthogonal",
			req:      Request{Op: VectorsOrthogonal, Args: Args{"m1": []interface{}{0.0, 0.0, 1.0}, "m2": []interface{}{1.0, 1.0, 1.0}}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Evaluate(tt.req)
			require.False(t, res.Failed(), res.Error)
			if f, ok := tt.expected.(float64); ok {
				assert.InDelta(t, f, res.Value, 1e-9)
				return
			}
			assert.Equal(t, tt.expected, res.Value)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	e := newTestEvaluator(nil)

	tests := []struct {
		name string
		req  Request
		kind string
	}{
		{
			name: "missing argument",
			req:  Request{Op: ParallelDistance, Args: Args{"m": 2.0, "b1": 4.0}},
			kind: geom.KindTypeError,
		},
		{
			name: "string slope",
			req:  Request{Op: ParallelDistance, Args: Args{"m": "2", "b1": 4.0, "b2": 1.0}},
			kind: geom.KindTypeError,
		},
		{
			name: "string vector",
			req:  Request{Op: VectorDistance, Args: Args{"x1": "a", "x2": []interface{}{1.0}}},
			kind: geom.KindTypeError,
		},
		{
			name: "unknown metric",
			req:  Request{Op: VectorDistance, Args: Args{"x1": []interface{}{1.0}, "x2": []interface{}{2.0}, "metric": "invalid"}},
			kind: geom.KindValueError,
		},
		{
			name: "non-string metric",
			req:  Request{Op: VectorDistance, Args: Args{"x1": []interface{}{1.0}, "x2": []interface{}{2.0}, "metric": 3.0}},
			kind: geom.KindTypeError,
		},
		{
			name: "string minkowski order",
			req:  Request{Op: VectorDistance, Args: Args{"x1": []interface{}{1.0}, "x2": []interface{}{2.0}, "metric": "minkowski", "p": "1"}},
			kind: geom.KindTypeError,
		},
		{
			name: "object in place of vector",
			req:  Request{Op: VectorsOrthogonal, Args: Args{"m1": map[string]interface{}{"0": 1.0}, "m2": []interface{}{1.0}}},
			kind: geom.KindTypeError,
		},
		{
			name: "short 3-D vector",
			req: Request{Op: LinesIntersect3D, Args: Args{
				"m1": []interface{}{1.0, 0.0}, "b1": []interface{}{0.0, 0.0, 0.0},
				"m2": []interface{}{0.0, 1.0, 0.0}, "b2": []interface{}{0.0, 0.0, 0.0},
			}},
			kind: geom.KindValueError,
		},
		{
			name: "overflowing manhattan distance",
			req: Request{Op: VectorDistance, Args: Args{
				"x1": []interface{}{1e308, 1e308}, "x2": []interface{}{-1e308, -1e308}, "metric": "manhattan",
			}},
			kind: geom.KindValueError,
		},
		{
			name: "overflowing parallel distance",
			req:  Request{Op: ParallelDistance, Args: Args{"m": 0.0, "b1": 1.7e308, "b2": -1.7e308}},
			kind: geom.KindValueError,
		},
		{
			name: "empty distance",
			req:  Request{Op: VectorDistance, Args: Args{"x1": []interface{}{}, "x2": []interface{}{}}},
			kind: geom.KindValueError,
		},
		{
			name: "undecodable record",
			req:  Request{ID: "r9", Op: VectorsOrthogonal, Invalid: "args: expected an object"},
			kind: geom.KindTypeError,
		},
		{
			name: "empty orthogonal",
			req:  Request{Op: VectorsOrthogonal, Args: Args{"m1": []interface{}{}, "m2": []interface{}{}}},
			kind: geom.KindValueError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Evaluate(tt.req)
			require.True(t, res.Failed())
			assert.Nil(t, res.Value)
			assert.Equal(t, tt.kind, res.Kind)
		})
	}
}

func TestEvaluateUnknownOperation(t *testing.T) {
	e := newTestEvaluator(nil)

	_, err := e.Do(Request{Op: "area"})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	res := e.Evaluate(Request{ID: "r1", Op: "area"})
	assert.True(t, res.Failed())
	assert.Empty(t, res.Kind)
	assert.Equal(t, "r1", res.ID)
}

func TestEvaluatorDefaultMetric(t *testing.T) {
	e := NewEvaluator(Options{DefaultMetric: "chebyshev"}, nil, nil)

	res := e.Evaluate(Request{Op: VectorDistance, Args: Args{"x1": []int{1, 2, 3, 4}, "x2": []int{5, 6, 7, 8}}})
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, 4.0, res.Value)
}

func TestEvaluateAll(t *testing.T) {
	collector := metrics.NewCollector(false)
	e := NewEvaluator(Options{Concurrency: 2}, zap.NewNop(), collector)

	var reqs []Request
	for i := 0; i < 20; i++ {
		reqs = append(reqs, Request{Op: ParallelDistance, Args: Args{"m": 0.0, "b1": float64(i), "b2": 0.0}})
	}
	reqs = append(reqs, Request{Op: "bogus"})

	results, err := e.EvaluateAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 21)
	for i := 0; i < 20; i++ {
		assert.Equal(t, float64(i), results[i].Value)
	}
	assert.True(t, results[20].Failed())

	recent := collector.GetRecentMetrics()
	assert.Equal(t, uint64(21), recent.Total)
	assert.Equal(t, uint64(1), recent.Failed)
	assert.Equal(t, uint64(1), recent.ByOperation["unknown"])
}

func TestEvaluateAllCancelled(t *testing.T) {
	e := newTestEvaluator(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EvaluateAll(ctx, []Request{{Op: ParallelDistance}})
	assert.ErrorIs(t, err, context.Canceled)
}
