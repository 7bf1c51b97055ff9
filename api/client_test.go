package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/coordgeom/pkg/eval"
	"github.com/TFMV/coordgeom/pkg/geom"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	s, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = s.GetApp().Listener(ln)
	}()
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})

	return "http://" + ln.Addr().String()
}

func TestClientEvaluate(t *testing.T) {
	client := NewClient(startTestServer(t) + "/")
	ctx := context.Background()

	require.NoError(t, client.Health(ctx))

	res, err := client.Evaluate(ctx, eval.Request{
		Op:   eval.VectorDistance,
		Args: eval.Args{"x1": []int{1, 2, 3, 4}, "x2": []int{5, 6, 7, 8}, "metric": "Manhattan"},
	})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, 16.0, res.Value)

	res, err = client.Evaluate(ctx, eval.Request{
		Op:   eval.VectorsOrthogonal,
		Args: eval.Args{"m1": []int{1, 0}, "m2": []int{0}},
	})
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, geom.KindValueError, res.Kind)
}

func TestClientBatchTooLarge(t *testing.T) {
	client := NewClient(startTestServer(t))

	reqs := make([]eval.Request, 4)
	for i := range reqs {
		reqs[i] = eval.Request{Op: eval.ParallelDistance, Args: eval.Args{"m": 1, "b1": 0, "b2": 1}}
	}
	_, err := client.Batch(context.Background(), reqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 413")
}
