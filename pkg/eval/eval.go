// Package eval runs geometry operations described by dynamically typed
// requests, as decoded from JSON bodies, CLI arguments or batch files.
package eval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/coordgeom/pkg/geom"
	"github.com/TFMV/coordgeom/pkg/metrics"
)

// Operation names a geometry routine.
type Operation string

const (
	ParallelDistance  Operation = "parallel_distance"
	VectorDistance    Operation = "vector_distance"
	LinesIntersect3D  Operation = "lines_intersect_3d"
	VectorsOrthogonal Operation = "vectors_orthogonal"
)

// ErrUnknownOperation is returned for a request naming no known operation.
var ErrUnknownOperation = errors.New("unknown operation")

// Operations lists every supported operation.
func Operations() []Operation {
	return []Operation{ParallelDistance, VectorDistance, LinesIntersect3D, VectorsOrthogonal}
}

// Args holds the named arguments of a request.
type Args map[string]interface{}

// Request is a single operation to evaluate.
type Request struct {
	ID   string    `json:"id,omitempty"`
	Op   Operation `json:"op"`
	Args Args      `json:"args"`

	// Invalid holds the decode error of a record whose fields could not be
	// read. Such a request evaluates to a type error.
	Invalid string `json:"-"`
}

// Result is the outcome of a Request. Value is a float64 for distance
// operations and a bool for predicates; it is nil when Error is set.
type Result struct {
	ID    string      `json:"id,omitempty"`
	Op    Operation   `json:"op"`
	Value interface{} `json:"value"`
	Error string      `json:"error,omitempty"`
	Kind  string      `json:"kind,omitempty"`
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Options configures an Evaluator.
type Options struct {
	// DefaultMetric is used when a vector_distance request omits the metric.
	DefaultMetric string
	// Concurrency bounds EvaluateAll. Zero means 4.
	Concurrency int
}

// Evaluator dispatches requests to the geom package.
type Evaluator struct {
	opts    Options
	log     *zap.Logger
	metrics *metrics.Collector
}

// NewEvaluator creates an Evaluator. A nil logger or collector disables
// logging or metrics respectively.
func NewEvaluator(opts Options, log *zap.Logger, collector *metrics.Collector) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultMetric == "" {
		opts.DefaultMetric = string(geom.Euclidean)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Evaluator{opts: opts, log: log, metrics: collector}
}

// Do evaluates req and returns its raw value. A distance that overflows to
// a non-finite value fails with geom.ErrInvalidShape.
func (e *Evaluator) Do(req Request) (interface{}, error) {
	if req.Invalid != "" {
		return nil, fmt.Errorf("%w: %s", geom.ErrTypeMismatch, req.Invalid)
	}

	value, err := e.dispatch(req)
	if err != nil {
		return nil, err
	}
	if f, ok := value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil, fmt.Errorf("%w: %s result %v is not finite", geom.ErrInvalidShape, req.Op, f)
	}
	return value, nil
}

func (e *Evaluator) dispatch(req Request) (interface{}, error) {
	switch req.Op {
	case ParallelDistance:
		return e.parallelDistance(req.Args)
	case VectorDistance:
		return e.vectorDistance(req.Args)
	case LinesIntersect3D:
		return e.linesIntersect(req.Args)
	case VectorsOrthogonal:
		return e.vectorsOrthogonal(req.Args)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Op)
	}
}

// Evaluate runs req and records its outcome.
func (e *Evaluator) Evaluate(req Request) Result {
	start := time.Now()
	res := Result{ID: req.ID, Op: req.Op}

	value, err := e.Do(req)
	status := metrics.StatusOK
	if err != nil {
		res.Error = err.Error()
		res.Kind = geom.ErrorKind(err)
		status = statusOf(err)
		e.log.Debug("Operation failed",
			zap.String("id", req.ID),
			zap.String("op", string(req.Op)),
			zap.Error(err),
		)
	} else {
		res.Value = value
	}

	if e.metrics != nil {
		e.metrics.Observe(operationLabel(req.Op), status, start)
	}
	return res
}

// EvaluateAll evaluates reqs concurrently. Results keep the order of reqs.
// Per-request failures are reported in the results; only cancellation of
// ctx aborts the run.
func (e *Evaluator) EvaluateAll(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Evaluate(reqs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	e.log.Info("Batch evaluated", zap.Int("requests", len(reqs)), zap.Int("failed", failed))
	return results, nil
}

func statusOf(err error) string {
	switch geom.ErrorKind(err) {
	case geom.KindTypeError:
		return metrics.StatusTypeError
	case geom.KindValueError:
		return metrics.StatusValueError
	default:
		return metrics.StatusError
	}
}

func operationLabel(op Operation) string {
	for _, known := range Operations() {
		if op == known {
			return string(op)
		}
	}
	return "unknown"
}
