package api

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TFMV/coordgeom/pkg/eval"
	"github.com/TFMV/coordgeom/pkg/geom"
	"github.com/TFMV/coordgeom/pkg/metrics"
)

func newTestServer(t *testing.T) (*Server, *metrics.Collector) {
	t.Helper()
	logger := zap.NewNop()
	collector := metrics.NewCollector(true)
	ev := eval.NewEvaluator(eval.Options{}, logger, collector)
	return NewServer(ServerOptions{EnableMetrics: true, MaxBatchSize: 3}, ev, collector, logger), collector
}

func doJSON(t *testing.T, s *Server, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(data) > 0 {
		require.NoError(t, sonic.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := doJSON(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := s.GetApp().Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestOperationEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		body     string
		key      string
		expected interface{}
	}{
		{
			name:     "parallel distance",
			path:     "/api/v1/lines/parallel-distance",
			body:     `{"m":2,"b1":4,"b2":-1}`,
			key:      "distance",
			expected: math.Sqrt(5),
		},
		{
			name:     "euclidean distance",
			path:     "/api/v1/vectors/distance",
			body:     `{"x1":[1,2,3,4],"x2":[5,6,7,8],"metric":"Euclidean"}`,
			key:      "distance",
			expected: 8.0,
		},
		{
			name:     "minkowski distance",
			path:     "/api/v1/vectors/distance",
			body:     `{"x1":[1,2,3,4],"x2":[5,6,7,8],"metric":"minkowski","p":3}`,
			key:      "distance",
			expected: math.Cbrt(256),
		},
		{
			name:     "intersect",
			path:     "/api/v1/lines/intersect",
			body:     `{"m1":[1,0,0],"b1":[0,0,0],"m2":[0,1,0],"b2":[0,0,0]}`,
			key:      "intersect",
			expected: true,
		},
		{
			name:     "orthogonal",
			path:     "/api/v1/vectors/orthogonal",
			body:     `{"m1":[0.2,-4.8],"m2":[12.000001,0.5]}`,
			key:      "orthogonal",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, s, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, status, body)
			if f, ok := tt.expected.(float64); ok {
				assert.InDelta(t, f, body[tt.key], 1e-9)
				return
			}
			assert.Equal(t, tt.expected, body[tt.key])
		})
	}
}

func TestOperationErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{
			name:   "unknown metric",
			path:   "/api/v1/vectors/distance",
			body:   `{"x1":[1,2],"x2":[3,4],"metric":"invalid"}`,
			status: http.StatusUnprocessableEntity,
			kind:   geom.KindValueError,
		},
		{
			name:   "mismatched lengths",
			path:   "/api/v1/vectors/distance",
			body:   `{"x1":[1,2,3,4],"x2":[0],"metric":"euclidean"}`,
			status: http.StatusBadRequest,
			kind:   geom.KindTypeError,
		},
		{
			name:   "object instead of vector",
			path:   "/api/v1/vectors/orthogonal",
			body:   `{"m1":{"a":1},"m2":[1]}`,
			status: http.StatusBadRequest,
			kind:   geom.KindTypeError,
		},
		{
			name:   "scalar instead of vector",
			path:   "/api/v1/vectors/orthogonal",
			body:   `{"m1":5,"m2":[1]}`,
			status: http.StatusBadRequest,
			kind:   geom.KindTypeError,
		},
		{
			name:   "wrong dimension",
			path:   "/api/v1/lines/intersect",
			body:   `{"m1":[1,0],"b1":[0,0,0],"m2":[0,1,0],"b2":[0,0,0]}`,
			status: http.StatusUnprocessableEntity,
			kind:   geom.KindValueError,
		},
		{
			name:   "string slope",
			path:   "/api/v1/lines/parallel-distance",
			body:   `{"m":"2","b1":4,"b2":-1}`,
			status: http.StatusBadRequest,
			kind:   geom.KindTypeError,
		},
		{
			name:   "malformed body",
			path:   "/api/v1/lines/parallel-distance",
			body:   `{"m":`,
			status: http.StatusBadRequest,
			kind:   geom.KindTypeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, true, body["error"])
			assert.Equal(t, tt.kind, body["kind"])
		})
	}
}

func TestBatchEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"operations":[
		{"id":"a","op":"vector_distance","args":{"x1":[1,2,3,4],"x2":[5,6,7,8],"metric":"Chebyshev"}},
		{"id":"b","op":"vectors_orthogonal","args":{"m1":[],"m2":[]}},
		{"id":"c","op":"area","args":{}}
	]}`
	status, out := doJSON(t, s, http.MethodPost, "/api/v1/batch", body)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, 3.0, out["count"])
	assert.Equal(t, 2.0, out["failed"])

	results := out["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, 4.0, first["value"])
	second := results[1].(map[string]interface{})
	assert.Equal(t, geom.KindValueError, second["kind"])

	status, _ = doJSON(t, s, http.MethodPost, "/api/v1/batch", `{"operations":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, s, http.MethodPost, "/api/v1/batch",
		`{"operations":[{"op":"a"},{"op":"b"},{"op":"c"},{"op":"d"}]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}

func TestNonFiniteResult(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := doJSON(t, s, http.MethodPost, "/api/v1/vectors/distance",
		`{"x1":[1e308,1e308],"x2":[-1e308,-1e308],"metric":"manhattan"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, geom.KindValueError, body["kind"])

	status, out := doJSON(t, s, http.MethodPost, "/api/v1/batch", `{"operations":[
		{"id":"big","op":"vector_distance","args":{"x1":[1e308,1e308],"x2":[-1e308,-1e308],"metric":"manhattan"}},
		{"id":"ok","op":"vectors_orthogonal","args":{"m1":[1,0],"m2":[0,1]}}
	]}`)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, 1.0, out["failed"])

	results := out["results"].([]interface{})
	assert.Equal(t, geom.KindValueError, results[0].(map[string]interface{})["kind"])
	assert.Equal(t, true, results[1].(map[string]interface{})["value"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, collector := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/vectors/orthogonal", `{"m1":[1,0],"m2":[0,1]}`)
	assert.Equal(t, uint64(1), collector.GetRecentMetrics().ByOperation["vectors_orthogonal"])

	resp, err := s.GetApp().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `coordgeom_operations_total{operation="vectors_orthogonal",status="ok"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	ev := eval.NewEvaluator(eval.Options{}, nil, nil)
	s := NewServer(ServerOptions{}, ev, nil, nil)

	resp, err := s.GetApp().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, ":8080", s.Addr())
}
